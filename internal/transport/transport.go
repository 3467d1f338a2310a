// Package transport carries envelopes between processes. A Supervisor prefers
// the live websocket link and falls back to an in-process loopback whenever the
// live link is unavailable, so sending never fails for the caller.
package transport

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
)

// Kind names the transport currently carrying traffic.
type Kind string

const (
	KindLive  Kind = "live"
	KindLocal Kind = "local"
)

// ErrNotConnected is returned by a live transport used before Connect succeeded.
var ErrNotConnected = errors.New("transport not connected")

// Handler receives inbound envelopes.
type Handler func(models.Envelope)

// Transport is the contract shared by the live and local implementations.
type Transport interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, env models.Envelope) error
	OnReceive(h Handler)
	Close() error
	IsLive() bool
}

// LiveTransport is a Transport that can drop; OnDown fires once when it does.
type LiveTransport interface {
	Transport
	OnDown(fn func(error))
}

// Status is the connection indicator shown to staff.
type Status struct {
	Connected      bool `json:"connected"`
	ConnectionType Kind `json:"connectionType"`
}

// Acknowledge fills the id and timestamp a server assigns when they are absent.
func Acknowledge(env models.Envelope, now time.Time) models.Envelope {
	if env.ID == "" {
		env.ID = uuid.New().String()
	}
	if env.Timestamp.IsZero() {
		env.Timestamp = now.UTC()
	}
	return env
}
