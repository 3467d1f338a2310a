package transport

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
	"github.com/mamadbah2/kitchenstock/internal/metrics"
)

// Config tunes the live connection policy.
type Config struct {
	// ConnectTimeout bounds each dial before falling back.
	ConnectTimeout time.Duration
	// ReconnectAttempts caps live reconnects over the supervisor's lifetime.
	ReconnectAttempts int
	// ReconnectBackoff is the delay before the first reconnect; it doubles per attempt.
	ReconnectBackoff time.Duration
}

// LiveFactory builds a fresh, unconnected live transport.
type LiveFactory func() LiveTransport

// Supervisor selects between the live transport and the local loopback.
// State moves Live -> Local on any live failure; a bounded number of
// reconnects may move it back.
type Supervisor struct {
	cfg     Config
	newLive LiveFactory
	local   *Local
	logger  *zap.Logger
	metrics *metrics.Metrics

	// mu is held across live writes so a swap cannot interleave with a send.
	mu            sync.Mutex
	state         Kind
	live          LiveTransport
	closed        bool
	reconnects    int
	cancelConnect context.CancelFunc

	handlerMu sync.RWMutex
	handler   Handler

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewSupervisor builds a supervisor. A nil factory means local-only operation.
func NewSupervisor(cfg Config, newLive LiveFactory, logger *zap.Logger, m *metrics.Metrics) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 3 * time.Second
	}
	if cfg.ReconnectBackoff <= 0 {
		cfg.ReconnectBackoff = 500 * time.Millisecond
	}
	s := &Supervisor{
		cfg:     cfg,
		newLive: newLive,
		local:   NewLocal(),
		logger:  logger,
		metrics: m,
		state:   KindLocal,
		stop:    make(chan struct{}),
	}
	s.local.OnReceive(s.dispatch)
	return s
}

// WebsocketFactory returns a LiveFactory dialing url, or nil when url is empty.
func WebsocketFactory(url string, logger *zap.Logger) LiveFactory {
	if url == "" {
		return nil
	}
	return func() LiveTransport { return NewLive(url, logger) }
}

// Connect tries the live endpoint once within ConnectTimeout. Failure leaves
// the supervisor on the local loopback and schedules a bounded reconnect; the
// returned error is always nil.
func (s *Supervisor) Connect(ctx context.Context) error {
	if s.newLive == nil {
		s.logger.Info("no realtime endpoint configured, using local transport")
		return nil
	}
	if !s.dial(ctx) {
		s.scheduleReconnect()
	}
	return nil
}

// Send delivers env over the live link when up, otherwise through the loopback.
// A live write failure swaps to local and replays env there.
func (s *Supervisor) Send(ctx context.Context, env models.Envelope) error {
	s.mu.Lock()
	if s.state == KindLive && s.live != nil {
		live := s.live
		err := live.Send(ctx, env)
		if err == nil {
			s.mu.Unlock()
			s.metrics.EnvelopePublished(string(KindLive))
			return nil
		}
		s.toLocalLocked()
		s.mu.Unlock()

		s.logger.Warn("live send failed, replaying on local transport", zap.String("type", env.Type), zap.Error(err))
		_ = live.Close()
		s.scheduleReconnect()
	} else {
		s.mu.Unlock()
	}

	s.metrics.EnvelopePublished(string(KindLocal))
	return s.local.Send(ctx, env)
}

// OnReceive sets the handler for envelopes from either transport.
func (s *Supervisor) OnReceive(h Handler) {
	s.handlerMu.Lock()
	s.handler = h
	s.handlerMu.Unlock()
}

// IsLive reports whether traffic currently flows over the live link.
func (s *Supervisor) IsLive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == KindLive
}

// Status reports the connection indicator.
func (s *Supervisor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{Connected: !s.closed, ConnectionType: s.state}
}

// Close cancels any pending dial, closes the live link and stops reconnects.
// Later sends still loop back locally.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.cancelConnect != nil {
		s.cancelConnect()
	}
	live := s.live
	s.live = nil
	s.state = KindLocal
	s.mu.Unlock()

	close(s.stop)
	var err error
	if live != nil {
		err = live.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Supervisor) dial(parent context.Context) bool {
	ctx, cancel := context.WithTimeout(parent, s.cfg.ConnectTimeout)
	defer cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.cancelConnect = cancel
	s.mu.Unlock()

	live := s.newLive()
	live.OnReceive(s.dispatch)
	live.OnDown(func(err error) { s.liveDown(live, err) })

	if err := live.Connect(ctx); err != nil {
		s.logger.Warn("live transport unavailable, using local transport", zap.Error(err))
		return false
	}

	s.mu.Lock()
	s.cancelConnect = nil
	if s.closed {
		s.mu.Unlock()
		_ = live.Close()
		return false
	}
	// A drop reported before this point was ignored by liveDown.
	if !live.IsLive() {
		s.mu.Unlock()
		s.logger.Warn("live transport dropped while connecting, using local transport")
		_ = live.Close()
		return false
	}
	s.live = live
	s.state = KindLive
	s.mu.Unlock()

	s.logger.Info("live transport connected")
	return true
}

func (s *Supervisor) liveDown(live LiveTransport, err error) {
	s.mu.Lock()
	if s.live != live {
		s.mu.Unlock()
		return
	}
	s.toLocalLocked()
	s.mu.Unlock()

	s.logger.Warn("live transport dropped, using local transport", zap.Error(err))
	_ = live.Close()
	s.scheduleReconnect()
}

// toLocalLocked requires s.mu.
func (s *Supervisor) toLocalLocked() {
	s.live = nil
	s.state = KindLocal
	s.metrics.TransportFallback()
}

func (s *Supervisor) scheduleReconnect() {
	s.mu.Lock()
	if s.closed || s.newLive == nil || s.reconnects >= s.cfg.ReconnectAttempts {
		s.mu.Unlock()
		return
	}
	s.reconnects++
	delay := s.cfg.ReconnectBackoff << (s.reconnects - 1)
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-s.stop:
			return
		case <-timer.C:
		}
		if s.dial(context.Background()) {
			return
		}
		s.scheduleReconnect()
	}()
}

func (s *Supervisor) dispatch(env models.Envelope) {
	s.handlerMu.RLock()
	h := s.handler
	s.handlerMu.RUnlock()
	if h != nil {
		h(env)
	}
}
