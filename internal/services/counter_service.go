package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/minashop/api/internal/repositories"
)

// Counter name backing order code assignment.
const orderCounterName = "order"

// CounterService exposes named sequence values and the formatted order
// codes minted from them.
type CounterService interface {
	Next(ctx context.Context, name string, step int64) (int64, error)
	NextOrderCode(ctx context.Context) (string, error)
}

// CounterServiceDeps wires the counter service dependencies.
type CounterServiceDeps struct {
	Counters repositories.CounterRepository
}

type counterService struct {
	counters repositories.CounterRepository
}

// NewCounterService validates dependencies and returns the service.
func NewCounterService(deps CounterServiceDeps) (CounterService, error) {
	if deps.Counters == nil {
		return nil, errors.New("counter service requires counter repository")
	}
	return &counterService{counters: deps.Counters}, nil
}

func (s *counterService) Next(ctx context.Context, name string, step int64) (int64, error) {
	return s.counters.Next(ctx, name, step)
}

// NextOrderCode formats the next order sequence value as MS + 6-digit
// zero-padded number, e.g. sequence 42 becomes MS000042.
func (s *counterService) NextOrderCode(ctx context.Context) (string, error) {
	seq, err := s.counters.Next(ctx, orderCounterName, 1)
	if err != nil {
		return "", fmt.Errorf("next order sequence: %w", err)
	}
	return fmt.Sprintf("MS%06d", seq), nil
}
