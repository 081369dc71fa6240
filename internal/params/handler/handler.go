package handler

import (
	"net/http"

	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/params/service"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/params/transport"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/httpkit"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler exposes parameters over HTTP.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a parameter handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List handles GET /parameters.
func (h *Handler) List(c *gin.Context) {
	params, err := h.svc.List(c.Request.Context())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusOK, params)
}

// Get handles GET /parameters/:key.
func (h *Handler) Get(c *gin.Context) {
	param, err := h.svc.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusOK, param)
}

// Set handles PUT /parameters.
func (h *Handler) Set(c *gin.Context) {
	var req transport.SetParameterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	param, err := h.svc.Set(c.Request.Context(), req)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.JSON(c, http.StatusOK, param)
}

// Delete handles DELETE /parameters/:key.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("key")); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
