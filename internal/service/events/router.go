package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
	"github.com/mamadbah2/kitchenstock/internal/transport"
)

// ErrMissingType rejects envelopes without a type tag.
var ErrMissingType = errors.New("envelope type is required")

// Sink receives envelopes that passed a viewer's filter.
type Sink func(models.Envelope)

// Mirror receives a copy of every published envelope.
type Mirror interface {
	Mirror(ctx context.Context, env models.Envelope) error
}

type attachment struct {
	viewer Viewer
	sink   Sink
}

// Router stamps outbound envelopes and fans inbound ones out to attached viewers.
type Router struct {
	transport transport.Transport
	system    models.Actor
	mirror    Mirror
	logger    *zap.Logger
	now       func() time.Time

	mu          sync.RWMutex
	attachments map[uint64]attachment
	nextID      uint64
}

// Option customizes a Router.
type Option func(*Router)

// WithMirror copies published envelopes to m.
func WithMirror(m Mirror) Option {
	return func(r *Router) { r.mirror = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

// NewRouter binds a router to t. system is stamped on envelopes published without an actor.
func NewRouter(t transport.Transport, system models.Actor, logger *zap.Logger, opts ...Option) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		transport:   t,
		system:      system,
		logger:      logger,
		now:         time.Now,
		attachments: make(map[uint64]attachment),
	}
	for _, opt := range opts {
		opt(r)
	}
	t.OnReceive(r.OnInbound)
	return r
}

// Publish stamps actor and timestamp when absent and forwards env to the transport.
func (r *Router) Publish(ctx context.Context, env models.Envelope) error {
	if env.Type == "" {
		return ErrMissingType
	}
	if env.User == nil {
		actor := r.system
		env.User = &actor
	}
	if env.Timestamp.IsZero() {
		env.Timestamp = r.now().UTC()
	}

	if r.mirror != nil {
		if err := r.mirror.Mirror(ctx, env); err != nil {
			r.logger.Warn("envelope mirror failed", zap.String("type", env.Type), zap.Error(err))
		}
	}

	if err := r.transport.Send(ctx, env); err != nil {
		r.logger.Error("transport send failed", zap.String("type", env.Type), zap.Error(err))
	}
	return nil
}

// OnInbound normalizes an arriving envelope and hands it to every viewer allowed to see it.
func (r *Router) OnInbound(env models.Envelope) {
	if env.Type == "" {
		r.logger.Debug("dropping inbound envelope without type")
		return
	}
	if env.ID == "" {
		env.ID = uuid.New().String()
	}
	if env.Timestamp.IsZero() {
		env.Timestamp = r.now().UTC()
	}

	r.mu.RLock()
	targets := make([]attachment, 0, len(r.attachments))
	for _, a := range r.attachments {
		targets = append(targets, a)
	}
	r.mu.RUnlock()

	for _, a := range targets {
		if !IsVisible(env, a.viewer) {
			continue
		}
		a.sink(env)
	}
}

// Attach registers a viewer. Envelopes arriving before Attach or after detach are not queued.
func (r *Router) Attach(viewer Viewer, sink Sink) (detach func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.attachments[id] = attachment{viewer: viewer, sink: sink}
	r.mu.Unlock()

	r.logger.Debug("viewer attached", zap.Int64("viewer_id", viewer.ID), zap.String("role", string(viewer.Role)))

	return func() {
		r.mu.Lock()
		delete(r.attachments, id)
		r.mu.Unlock()
	}
}
