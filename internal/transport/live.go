package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/domain/models"
)

const writeTimeout = 5 * time.Second

// Live is a websocket connection to a realtime endpoint.
type Live struct {
	url    string
	dialer *websocket.Dialer
	logger *zap.Logger

	writeMu sync.Mutex
	conn    *websocket.Conn

	cbMu    sync.RWMutex
	handler Handler
	onDown  func(error)

	dead      atomic.Bool
	downOnce  sync.Once
	closeOnce sync.Once
}

// NewLive prepares a live transport for url. Nothing is dialed until Connect.
func NewLive(url string, logger *zap.Logger) *Live {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Live{
		url: url,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Connect dials the endpoint and starts reading. ctx bounds the handshake.
func (l *Live) Connect(ctx context.Context) error {
	conn, resp, err := l.dialer.DialContext(ctx, l.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", l.url, err)
	}

	l.writeMu.Lock()
	l.conn = conn
	l.writeMu.Unlock()

	go l.readLoop(conn)
	return nil
}

// Send writes env as a JSON text frame.
func (l *Live) Send(ctx context.Context, env models.Envelope) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if l.conn == nil {
		return ErrNotConnected
	}

	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := l.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := l.conn.WriteJSON(env); err != nil {
		return fmt.Errorf("write envelope: %w", err)
	}
	return nil
}

// OnReceive sets the inbound handler.
func (l *Live) OnReceive(h Handler) {
	l.cbMu.Lock()
	l.handler = h
	l.cbMu.Unlock()
}

// OnDown sets the callback fired once when the connection fails or closes.
func (l *Live) OnDown(fn func(error)) {
	l.cbMu.Lock()
	l.onDown = fn
	l.cbMu.Unlock()
}

// IsLive reports whether a connection is established and has not failed.
func (l *Live) IsLive() bool {
	if l.dead.Load() {
		return false
	}
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.conn != nil
}

// Close sends a close frame and tears the socket down.
func (l *Live) Close() error {
	var err error
	l.closeOnce.Do(func() {
		l.writeMu.Lock()
		defer l.writeMu.Unlock()
		if l.conn == nil {
			return
		}
		_ = l.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = l.conn.Close()
		l.conn = nil
	})
	return err
}

func (l *Live) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			l.down(err)
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			l.logger.Warn("dropping malformed frame", zap.Error(err))
			continue
		}

		l.cbMu.RLock()
		h := l.handler
		l.cbMu.RUnlock()
		if h != nil {
			h(env)
		}
	}
}

func (l *Live) down(err error) {
	l.dead.Store(true)
	l.downOnce.Do(func() {
		l.cbMu.RLock()
		fn := l.onDown
		l.cbMu.RUnlock()
		if fn != nil {
			fn(err)
		}
	})
}
