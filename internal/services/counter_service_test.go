package services

import (
	"context"
	"errors"
	"testing"
)

type stubCounterRepository struct {
	nextFn func(ctx context.Context, name string, step int64) (int64, error)
}

func (s *stubCounterRepository) Next(ctx context.Context, name string, step int64) (int64, error) {
	return s.nextFn(ctx, name, step)
}

func TestNextOrderCodeFormatsSequence(t *testing.T) {
	repo := &stubCounterRepository{nextFn: func(_ context.Context, name string, step int64) (int64, error) {
		if name != "order" {
			t.Fatalf("counter name = %q, want order", name)
		}
		if step != 1 {
			t.Fatalf("step = %d, want 1", step)
		}
		// Counter previously at 41.
		return 42, nil
	}}

	svc, err := NewCounterService(CounterServiceDeps{Counters: repo})
	if err != nil {
		t.Fatalf("NewCounterService returned error: %v", err)
	}

	code, err := svc.NextOrderCode(context.Background())
	if err != nil {
		t.Fatalf("NextOrderCode returned error: %v", err)
	}
	if code != "MS000042" {
		t.Fatalf("code = %q, want MS000042", code)
	}
}

func TestNextOrderCodeWidensPastPadding(t *testing.T) {
	repo := &stubCounterRepository{nextFn: func(context.Context, string, int64) (int64, error) {
		return 1234567, nil
	}}
	svc, _ := NewCounterService(CounterServiceDeps{Counters: repo})

	code, err := svc.NextOrderCode(context.Background())
	if err != nil {
		t.Fatalf("NextOrderCode returned error: %v", err)
	}
	if code != "MS1234567" {
		t.Fatalf("code = %q, want MS1234567", code)
	}
}

func TestNextOrderCodePropagatesCounterFailure(t *testing.T) {
	repoErr := errors.New("firestore unavailable")
	repo := &stubCounterRepository{nextFn: func(context.Context, string, int64) (int64, error) {
		return 0, repoErr
	}}
	svc, _ := NewCounterService(CounterServiceDeps{Counters: repo})

	if _, err := svc.NextOrderCode(context.Background()); !errors.Is(err, repoErr) {
		t.Fatalf("expected wrapped counter error, got %v", err)
	}
}
