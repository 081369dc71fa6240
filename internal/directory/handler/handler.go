package handler

import (
	"net/http"

	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/directory/service"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/directory/transport"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/httpkit"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid user ID"
)

// Handler handles HTTP requests for the user directory.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new directory handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// ListConsultants lists active sales consultants with loads.
// GET /api/v1/consultants
func (h *Handler) ListConsultants(c *gin.Context) {
	result, err := h.svc.ListConsultants(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetConsultant resolves one consultant.
// GET /api/v1/consultants/:id
func (h *Handler) GetConsultant(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.GetConsultant(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ListUsers lists all users (admin).
// GET /api/v1/admin/users
func (h *Handler) ListUsers(c *gin.Context) {
	result, err := h.svc.ListUsers(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// CreateUser creates a backoffice user (admin).
// POST /api/v1/admin/users
func (h *Handler) CreateUser(c *gin.Context) {
	var req transport.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CreateUser(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

// Deactivate disables a user (admin).
// PATCH /api/v1/admin/users/:id/deactivate
func (h *Handler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

// Activate re-enables a user (admin).
// PATCH /api/v1/admin/users/:id/activate
func (h *Handler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *Handler) setActive(c *gin.Context, isActive bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	if err := h.svc.SetActive(c.Request.Context(), id, isActive); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"id": id, "isActive": isActive})
}

// SetRoles replaces a user's role set (admin).
// PUT /api/v1/admin/users/:id/roles
func (h *Handler) SetRoles(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.SetRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.SetRoles(c.Request.Context(), id, req.Roles); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"id": id, "roles": req.Roles})
}
