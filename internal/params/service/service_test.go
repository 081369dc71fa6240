package service

import (
	"context"
	"testing"
	"time"

	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/params/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/params/transport"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/apperr"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type stubRepo struct {
	values map[string]repository.Parameter
	gets   int
}

func newStubRepo() *stubRepo {
	return &stubRepo{values: make(map[string]repository.Parameter)}
}

func (s *stubRepo) Get(_ context.Context, key string) (repository.Parameter, error) {
	s.gets++
	p, ok := s.values[key]
	if !ok {
		return repository.Parameter{}, apperr.NotFound("parameter not found")
	}
	return p, nil
}

func (s *stubRepo) List(_ context.Context) ([]repository.Parameter, error) {
	out := make([]repository.Parameter, 0, len(s.values))
	for _, p := range s.values {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubRepo) Upsert(_ context.Context, p repository.Parameter) (repository.Parameter, error) {
	s.values[p.Key] = p
	return p, nil
}

func (s *stubRepo) Delete(_ context.Context, key string) error {
	if _, ok := s.values[key]; !ok {
		return apperr.NotFound("parameter not found")
	}
	delete(s.values, key)
	return nil
}

func newTestService(t *testing.T, repo repository.Repository) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })
	return New(repo, cache, time.Minute, logger.New("test")), mr
}

func TestMaxCustomersPerConsultant(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		seed map[string]string
		want int
	}{
		{name: "canonical key", seed: map[string]string{KeyMaxCustomersPerConsultant: "3"}, want: 3},
		{name: "legacy key fallback", seed: map[string]string{legacyKeyMaxCustomers: "5"}, want: 5},
		{
			name: "canonical wins over legacy",
			seed: map[string]string{
				KeyMaxCustomersPerConsultant: "2",
				legacyKeyMaxCustomers:        "7",
			},
			want: 2,
		},
		{name: "missing uses default", seed: nil, want: 1},
		{name: "unparseable uses default", seed: map[string]string{KeyMaxCustomersPerConsultant: "many"}, want: 1},
		{name: "zero is honored", seed: map[string]string{KeyMaxCustomersPerConsultant: "0"}, want: 0},
		{name: "negative uses default", seed: map[string]string{KeyMaxCustomersPerConsultant: "-4"}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubRepo()
			for k, v := range tt.seed {
				repo.values[k] = repository.Parameter{Key: k, Value: v}
			}
			svc, _ := newTestService(t, repo)

			if got := svc.MaxCustomersPerConsultant(ctx); got != tt.want {
				t.Errorf("MaxCustomersPerConsultant() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLookupCachesValue(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	repo.values[KeyMaxCustomersPerConsultant] = repository.Parameter{Key: KeyMaxCustomersPerConsultant, Value: "4"}
	svc, _ := newTestService(t, repo)

	if got := svc.MaxCustomersPerConsultant(ctx); got != 4 {
		t.Fatalf("first read = %d, want 4", got)
	}
	before := repo.gets

	if got := svc.MaxCustomersPerConsultant(ctx); got != 4 {
		t.Fatalf("second read = %d, want 4", got)
	}
	if repo.gets != before {
		t.Errorf("expected cached read, repository hit %d more times", repo.gets-before)
	}
}

func TestSetInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	repo.values[KeyMaxCustomersPerConsultant] = repository.Parameter{Key: KeyMaxCustomersPerConsultant, Value: "2"}
	svc, _ := newTestService(t, repo)

	if got := svc.MaxCustomersPerConsultant(ctx); got != 2 {
		t.Fatalf("initial read = %d, want 2", got)
	}

	_, err := svc.Set(ctx, transport.SetParameterRequest{Key: KeyMaxCustomersPerConsultant, Value: "6"})
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if got := svc.MaxCustomersPerConsultant(ctx); got != 6 {
		t.Errorf("read after update = %d, want 6", got)
	}
}

func TestDeleteFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	repo := newStubRepo()
	repo.values[KeyMaxCustomersPerConsultant] = repository.Parameter{Key: KeyMaxCustomersPerConsultant, Value: "9"}
	svc, _ := newTestService(t, repo)

	if got := svc.MaxCustomersPerConsultant(ctx); got != 9 {
		t.Fatalf("initial read = %d, want 9", got)
	}

	if err := svc.Delete(ctx, KeyMaxCustomersPerConsultant); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if got := svc.MaxCustomersPerConsultant(ctx); got != 1 {
		t.Errorf("read after delete = %d, want default 1", got)
	}
}
