package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/events"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/tasks/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/tasks/transport"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/apperr"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"

	"github.com/google/uuid"
)

// stubTaskRepo mirrors the conditional transition semantics of the SQL
// implementation in memory.
type stubTaskRepo struct {
	mu           sync.Mutex
	tasks        map[uuid.UUID]repository.Task
	definitions  map[uuid.UUID]repository.Definition
	defLookupErr error
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{
		tasks:       make(map[uuid.UUID]repository.Task),
		definitions: make(map[uuid.UUID]repository.Definition),
	}
}

func (s *stubTaskRepo) Create(_ context.Context, params repository.CreateParams) (repository.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := repository.StatusPending
	if params.AssignedToID != nil {
		status = repository.StatusInProgress
	}
	t := repository.Task{
		ID:           uuid.New(),
		DefinitionID: params.DefinitionID,
		CustomerID:   params.CustomerID,
		Title:        params.Title,
		Description:  params.Description,
		TargetRole:   params.TargetRole,
		ProductCode:  params.ProductCode,
		Status:       status,
		AssignedToID: params.AssignedToID,
		CreatedByID:  params.CreatedByID,
		CreatedAt:    time.Now(),
	}
	s.tasks[t.ID] = t
	return t, nil
}

func (s *stubTaskRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return repository.Task{}, apperr.NotFound("task not found")
	}
	return t, nil
}

func (s *stubTaskRepo) List(_ context.Context, filter repository.ListFilter) ([]repository.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.Task, 0)
	for _, t := range s.tasks {
		if filter.PoolOnly && t.AssignedToID != nil {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, st := range filter.Statuses {
				if t.Status == st {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		if filter.TargetRole != "" && t.TargetRole != nil && *t.TargetRole != filter.TargetRole {
			continue
		}
		if filter.AssignedToID != nil && (t.AssignedToID == nil || *t.AssignedToID != *filter.AssignedToID) {
			continue
		}
		if filter.CreatedByID != nil && t.CreatedByID != *filter.CreatedByID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *stubTaskRepo) Claim(_ context.Context, taskID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return apperr.NotFound("task not found")
	}
	if t.AssignedToID != nil || t.Status != repository.StatusPending {
		return apperr.Conflict("task is already assigned")
	}
	t.AssignedToID = &userID
	t.Status = repository.StatusInProgress
	s.tasks[taskID] = t
	return nil
}

func (s *stubTaskRepo) Complete(_ context.Context, taskID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return apperr.NotFound("task not found")
	}
	if t.AssignedToID == nil || *t.AssignedToID != userID || t.Status != repository.StatusInProgress {
		return apperr.Conflict("task is not in progress for this user")
	}
	now := time.Now()
	t.Status = repository.StatusCompleted
	t.CompletedAt = &now
	s.tasks[taskID] = t
	return nil
}

func (s *stubTaskRepo) Cancel(_ context.Context, taskID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return apperr.NotFound("task not found")
	}
	if t.AssignedToID != nil || t.Status != repository.StatusPending {
		return apperr.Conflict("task is no longer cancellable")
	}
	now := time.Now()
	t.Status = repository.StatusCancelled
	t.CancelledAt = &now
	s.tasks[taskID] = t
	return nil
}

func (s *stubTaskRepo) ListPendingOlderThan(_ context.Context, cutoff time.Time) ([]repository.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.Task, 0)
	for _, t := range s.tasks {
		if t.Status == repository.StatusPending && t.AssignedToID == nil && t.CreatedAt.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *stubTaskRepo) CreateDefinition(_ context.Context, params repository.DefinitionParams) (repository.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := repository.Definition{
		ID:                  uuid.New(),
		Name:                params.Name,
		DefaultTargetRole:   params.DefaultTargetRole,
		RequiresProductCode: params.RequiresProductCode,
		CreatedAt:           time.Now(),
	}
	s.definitions[d.ID] = d
	return d, nil
}

func (s *stubTaskRepo) GetDefinition(_ context.Context, id uuid.UUID) (repository.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.defLookupErr != nil {
		return repository.Definition{}, s.defLookupErr
	}
	d, ok := s.definitions[id]
	if !ok {
		return repository.Definition{}, apperr.NotFound("task definition not found")
	}
	return d, nil
}

func (s *stubTaskRepo) ListDefinitions(_ context.Context) ([]repository.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.Definition, 0, len(s.definitions))
	for _, d := range s.definitions {
		out = append(out, d)
	}
	return out, nil
}

func (s *stubTaskRepo) UpdateDefinition(_ context.Context, id uuid.UUID, params repository.DefinitionParams) (repository.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.definitions[id]
	if !ok {
		return repository.Definition{}, apperr.NotFound("task definition not found")
	}
	d.Name = params.Name
	d.DefaultTargetRole = params.DefaultTargetRole
	d.RequiresProductCode = params.RequiresProductCode
	s.definitions[id] = d
	return d, nil
}

func (s *stubTaskRepo) DeleteDefinition(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.definitions[id]; !ok {
		return apperr.NotFound("task definition not found")
	}
	delete(s.definitions, id)
	return nil
}

type nopBus struct{}

func (nopBus) Publish(context.Context, events.Event) {}

func (nopBus) PublishSync(context.Context, events.Event) error { return nil }

func (nopBus) Subscribe(string, events.Handler) {}

var (
	runnerRole     = "Runner"
	consultantRole = []string{"Satış Danışmanı"}
	managerRole    = []string{"Mağaza Müdürü"}
)

func newTestService() (*Service, *stubTaskRepo) {
	repo := newStubTaskRepo()
	return New(repo, nopBus{}, logger.New("test")), repo
}

func createPoolTask(t *testing.T, svc *Service, creator uuid.UUID, targetRole *string) uuid.UUID {
	t.Helper()
	task, err := svc.Create(context.Background(), transport.CreateTaskRequest{
		Title:      "Depodan ürün getir",
		TargetRole: targetRole,
	}, creator)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task.ID
}

func TestTakeSecondClaimConflicts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	creator := uuid.New()
	first := uuid.New()
	second := uuid.New()
	taskID := createPoolTask(t, svc, creator, nil)

	if _, err := svc.Take(ctx, taskID, first, consultantRole); err != nil {
		t.Fatalf("first Take: %v", err)
	}

	_, err := svc.Take(ctx, taskID, second, consultantRole)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second Take = %v, want Conflict", err)
	}

	got, err := svc.Get(ctx, taskID)
	if err != nil {
		t.Fatal(err)
	}
	if got.AssignedToID == nil || *got.AssignedToID != first {
		t.Error("second Take reassigned the task")
	}
}

func TestTakeRoleGating(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	taskID := createPoolTask(t, svc, uuid.New(), &runnerRole)

	// A sales consultant cannot claim a runner task.
	if _, err := svc.Take(ctx, taskID, uuid.New(), consultantRole); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("Take with wrong primary role = %v, want Forbidden", err)
	}

	// A runner can.
	if _, err := svc.Take(ctx, taskID, uuid.New(), []string{runnerRole}); err != nil {
		t.Errorf("Take with matching role = %v, want success", err)
	}
}

func TestTakeCreatorCannotClaimOwnTask(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	creator := uuid.New()
	taskID := createPoolTask(t, svc, creator, nil)

	if _, err := svc.Take(ctx, taskID, creator, consultantRole); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("creator self-claim = %v, want Forbidden", err)
	}
}

func TestCompleteOnlyAssignee(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	assignee := uuid.New()
	taskID := createPoolTask(t, svc, uuid.New(), nil)
	if _, err := svc.Take(ctx, taskID, assignee, consultantRole); err != nil {
		t.Fatalf("Take: %v", err)
	}

	if _, err := svc.Complete(ctx, taskID, uuid.New(), transport.CompleteTaskRequest{}); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("Complete by non-assignee = %v, want Forbidden", err)
	}

	resp, err := svc.Complete(ctx, taskID, assignee, transport.CompleteTaskRequest{})
	if err != nil {
		t.Fatalf("Complete by assignee: %v", err)
	}
	if resp.Status != string(repository.StatusCompleted) {
		t.Errorf("status = %q, want %q", resp.Status, repository.StatusCompleted)
	}

	// Completed is terminal.
	if _, err := svc.Complete(ctx, taskID, assignee, transport.CompleteTaskRequest{}); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("Complete on completed task = %v, want Conflict", err)
	}
}

func TestCompleteRequiresProductCode(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	def, err := repo.CreateDefinition(ctx, repository.DefinitionParams{
		Name:                "Ürün Teslimi",
		RequiresProductCode: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	code := "SKU-1234"
	assignee := uuid.New()
	task, err := svc.Create(ctx, transport.CreateTaskRequest{
		DefinitionID: &def.ID,
		Title:        "Ürün teslim et",
		ProductCode:  &code,
	}, uuid.New())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Take(ctx, task.ID, assignee, consultantRole); err != nil {
		t.Fatalf("Take: %v", err)
	}

	if _, err := svc.Complete(ctx, task.ID, assignee, transport.CompleteTaskRequest{}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("Complete without code = %v, want Validation", err)
	}

	wrong := "SKU-9999"
	if _, err := svc.Complete(ctx, task.ID, assignee, transport.CompleteTaskRequest{ProductCode: &wrong}); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("Complete with wrong code = %v, want Validation", err)
	}

	if _, err := svc.Complete(ctx, task.ID, assignee, transport.CompleteTaskRequest{ProductCode: &code}); err != nil {
		t.Errorf("Complete with matching code = %v, want success", err)
	}
}

func TestCompleteDefinitionLookupFailureBlocksCompletion(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	def, err := repo.CreateDefinition(ctx, repository.DefinitionParams{
		Name:                "Ürün Teslimi",
		RequiresProductCode: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	code := "SKU-1234"
	assignee := uuid.New()
	task, err := svc.Create(ctx, transport.CreateTaskRequest{
		DefinitionID: &def.ID,
		Title:        "Ürün teslim et",
		ProductCode:  &code,
	}, uuid.New())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Take(ctx, task.ID, assignee, consultantRole); err != nil {
		t.Fatalf("Take: %v", err)
	}

	// A failing definition lookup must not let the product code check slip.
	repo.defLookupErr = errors.New("connection reset")
	if _, err := svc.Complete(ctx, task.ID, assignee, transport.CompleteTaskRequest{}); err == nil {
		t.Fatal("Complete succeeded while the definition lookup failed")
	}
	got, err := repo.GetByID(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != repository.StatusInProgress {
		t.Errorf("status = %q, want still %q", got.Status, repository.StatusInProgress)
	}

	// A deleted definition leaves nothing to enforce.
	repo.defLookupErr = nil
	if err := repo.DeleteDefinition(ctx, def.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Complete(ctx, task.ID, assignee, transport.CompleteTaskRequest{}); err != nil {
		t.Errorf("Complete after definition removal = %v, want success", err)
	}
}

func TestCancelPermissions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	creator := uuid.New()
	stranger := uuid.New()
	manager := uuid.New()

	// A stranger cannot cancel, the creator can.
	taskID := createPoolTask(t, svc, creator, nil)
	if _, err := svc.Cancel(ctx, taskID, stranger, consultantRole); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("Cancel by stranger = %v, want Forbidden", err)
	}
	resp, err := svc.Cancel(ctx, taskID, creator, consultantRole)
	if err != nil {
		t.Fatalf("Cancel by creator: %v", err)
	}
	if resp.Status != string(repository.StatusCancelled) {
		t.Errorf("status = %q, want %q", resp.Status, repository.StatusCancelled)
	}
	if resp.CancelledAt == nil {
		t.Error("cancelled task has no cancelled_at stamp")
	}

	// A manager can cancel any pool task.
	other := createPoolTask(t, svc, creator, nil)
	if _, err := svc.Cancel(ctx, other, manager, managerRole); err != nil {
		t.Errorf("Cancel by manager = %v, want success", err)
	}

	// An assigned task cannot be cancelled.
	assigned := createPoolTask(t, svc, creator, nil)
	if _, err := svc.Take(ctx, assigned, stranger, consultantRole); err != nil {
		t.Fatalf("Take: %v", err)
	}
	if _, err := svc.Cancel(ctx, assigned, creator, consultantRole); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("Cancel on assigned task = %v, want Conflict", err)
	}

	// Cancelled is terminal; a later take conflicts.
	if _, err := svc.Take(ctx, taskID, stranger, consultantRole); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("Take on cancelled task = %v, want Conflict", err)
	}
}

func TestCreatePreAssignedStartsInProgress(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	assignee := uuid.New()
	task, err := svc.Create(ctx, transport.CreateTaskRequest{
		Title:        "Müşteriyi ara",
		AssignedToID: &assignee,
	}, uuid.New())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Status != string(repository.StatusInProgress) {
		t.Errorf("status = %q, want %q", task.Status, repository.StatusInProgress)
	}
}

func TestCreateRejectsUnknownTargetRole(t *testing.T) {
	svc, _ := newTestService()
	bogus := "Kasiyer"
	_, err := svc.Create(context.Background(), transport.CreateTaskRequest{
		Title:      "Test",
		TargetRole: &bogus,
	}, uuid.New())
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("unknown target role = %v, want Validation", err)
	}
}
