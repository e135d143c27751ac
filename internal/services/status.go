package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reportweaver/internal/shared"
	"github.com/gorilla/websocket"
)

var (
	_ StatusSource = (*StatusDialer)(nil)
	_ StatusStream = (*StatusConn)(nil)
)

const closeGracePeriod = time.Second

// StatusDialer opens websocket connections to the backend's status endpoint.
type StatusDialer struct {
	url    string
	dialer *websocket.Dialer
	logger *log.Logger
}

// NewStatusDialer creates a dialer for the websocket url (e.g. ws://localhost:8080/ws/selenium-status).
//
// A nil dialer uses [websocket.DefaultDialer].
func NewStatusDialer(url string, dialer *websocket.Dialer, logger *log.Logger) *StatusDialer {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &StatusDialer{url: url, dialer: dialer, logger: logger}
}

// URL returns the websocket endpoint.
func (d *StatusDialer) URL() string { return d.url }

// Dial connects and starts forwarding text frames to handler.
//
// The handshake carries the session id from ctx. ctx only bounds the handshake; use [StatusConn.Close] to end the stream.
func (d *StatusDialer) Dial(ctx context.Context, handler StatusHandler) (StatusStream, error) {
	header := http.Header{}
	if id := SessionID(ctx); id != "" {
		header.Set(SessionHeader, id)
	}

	conn, resp, err := d.dialer.DialContext(ctx, d.url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w: status channel handshake returned %d: %v", shared.ErrServiceUnavailable, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("%w: status channel dial failed: %v", shared.ErrServiceUnavailable, err)
	}

	c := &StatusConn{
		conn:    conn,
		handler: handler,
		logger:  d.logger.With("url", d.url),
		done:    make(chan struct{}),
	}
	go c.readLoop()

	d.logger.Debug("status channel opened", "url", d.url)
	return c, nil
}

// StatusConn is a single status channel connection.
//
// Frames are handed to the handler from the connection's read goroutine, one at a time, in arrival order.
type StatusConn struct {
	conn    *websocket.Conn
	handler StatusHandler
	logger  *log.Logger

	closing   atomic.Bool
	closeOnce sync.Once
	done      chan struct{}

	mu  sync.Mutex
	err error
}

func (c *StatusConn) readLoop() {
	defer close(c.done)

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if c.closing.Load() {
				return
			}
			c.fail(err)
			return
		}

		if kind != websocket.TextMessage {
			continue
		}
		if c.closing.Load() {
			return
		}
		c.handler(string(data))
	}
}

// fail records why the far end went away and releases the socket. The loss is logged, never retried here.
func (c *StatusConn) fail(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Info("status channel closed by server")
	} else {
		c.logger.Warn("status channel lost", "error", err)
	}

	c.release(false)
}

// release closes the socket exactly once.
func (c *StatusConn) release(sendClose bool) error {
	var err error
	c.closeOnce.Do(func() {
		c.closing.Store(true)
		if sendClose {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		}
		err = c.conn.Close()
	})
	return err
}

// Close sends a close frame and releases the connection. Later calls are no-ops.
func (c *StatusConn) Close() error {
	if err := c.release(true); err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return fmt.Errorf("failed to close status channel: %w", err)
	}
	return nil
}

// Done is closed when the read loop has exited.
func (c *StatusConn) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that ended the connection from the far side, if any.
func (c *StatusConn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
