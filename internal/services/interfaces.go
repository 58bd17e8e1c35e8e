// Package services holds the application logic between the HTTP handlers
// and the repositories. Each service is constructed from a Deps struct and
// returned as an interface so tests can substitute stubs.
package services

import (
	"context"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/minashop/api/internal/platform/events"
)

// Clock supplies the current time; injected so tests can pin it.
type Clock func() time.Time

// IDGenerator mints storage identifiers.
type IDGenerator func() string

// Sleeper pauses between retries; injected so tests avoid real waits.
type Sleeper func(d time.Duration)

// RandomDigits returns a non-negative pseudo-random number below bound.
type RandomDigits func(bound int) int

// NewULIDGenerator returns an IDGenerator producing lowercase ULIDs.
func NewULIDGenerator() IDGenerator {
	return func() string { return ulid.Make().String() }
}

func defaultClock() time.Time { return time.Now().UTC() }

func defaultRandom(bound int) int {
	if bound <= 0 {
		return 0
	}
	return rand.Intn(bound)
}

// OrderEventPublisher forwards order lifecycle events to the message bus.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event events.OrderEvent) (string, error)
}
