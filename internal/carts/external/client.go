// Package external talks to the companion shopping application that
// receives shared carts. The real endpoint is not reachable from
// development environments, so the default client simulates its latency
// and acknowledgement behavior.
package external

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// CartPayload is the cart summary sent to the external application.
type CartPayload struct {
	CartID     uuid.UUID `json:"cartId"`
	CustomerID uuid.UUID `json:"customerId"`
	TotalCents int64     `json:"totalCents"`
	ItemCount  int       `json:"itemCount"`
}

// Client delivers a shared cart to the external application.
type Client interface {
	ShareCart(ctx context.Context, payload CartPayload) error
}

// SimulatedClient mimics the external application: a short variable
// delay followed by an acknowledgement. It honors context cancellation
// during the simulated round trip.
type SimulatedClient struct {
	MinLatency time.Duration
	MaxLatency time.Duration
}

// NewSimulatedClient creates a client with the default latency window.
func NewSimulatedClient() *SimulatedClient {
	return &SimulatedClient{
		MinLatency: 200 * time.Millisecond,
		MaxLatency: 1500 * time.Millisecond,
	}
}

// Compile-time check that SimulatedClient implements Client.
var _ Client = (*SimulatedClient)(nil)

// ShareCart simulates the external call.
func (c *SimulatedClient) ShareCart(ctx context.Context, _ CartPayload) error {
	window := c.MaxLatency - c.MinLatency
	delay := c.MinLatency
	if window > 0 {
		delay += time.Duration(rand.Int63n(int64(window)))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
