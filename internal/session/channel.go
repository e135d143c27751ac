package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reportweaver/internal/services"
	"github.com/desertthunder/reportweaver/internal/shared"
	"golang.org/x/time/rate"
)

const defaultReconnectInterval = 2 * time.Second

// ReconnectPolicy controls what happens after the far end closes the status channel.
//
// The zero value never reconnects.
type ReconnectPolicy struct {
	Enabled     bool
	MaxAttempts int
	Interval    time.Duration
}

// ReconnectPolicyFromConfig maps the [status] config section onto a policy.
func ReconnectPolicyFromConfig(cfg shared.StatusConfig) ReconnectPolicy {
	return ReconnectPolicy{
		Enabled:     cfg.Reconnect,
		MaxAttempts: cfg.MaxReconnects,
		Interval:    cfg.ReconnectInterval,
	}
}

// ChannelOpts configures a [Channel].
type ChannelOpts struct {
	Source    services.StatusSource
	SessionID string
	Handler   services.StatusHandler
	Reconnect ReconnectPolicy
	Logger    *log.Logger
}

// Channel manages the status connection for one session.
type Channel struct {
	source    services.StatusSource
	sessionID string
	handler   services.StatusHandler
	policy    ReconnectPolicy
	logger    *log.Logger

	// ctx ends when the channel is closed; it bounds dials and the reconnect loop
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stream  services.StatusStream
	opened  bool
	closed  bool
	redials int
}

// NewChannel creates a channel manager. Nothing is dialed until [Channel.Open].
func NewChannel(opts ChannelOpts) *Channel {
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	if opts.Reconnect.Interval <= 0 {
		opts.Reconnect.Interval = defaultReconnectInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Channel{
		source:    opts.Source,
		sessionID: opts.SessionID,
		handler:   opts.Handler,
		policy:    opts.Reconnect,
		logger:    opts.Logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Open dials the status channel once per session. Calling it again is a no-op, even after the far end closed the
// first connection.
func (ch *Channel) Open(ctx context.Context) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.closed {
		return shared.ErrChannelClosed
	}
	if ch.opened {
		return nil
	}

	stream, err := ch.dial(ctx)
	if err != nil {
		ch.logger.Warn("status channel unavailable", "error", err)
		return err
	}

	ch.stream = stream
	ch.opened = true

	if ch.policy.Enabled {
		go ch.watch(stream)
	}
	return nil
}

// dial connects with a context that also ends when the channel is closed. Callers hold mu.
func (ch *Channel) dial(ctx context.Context) (services.StatusStream, error) {
	dialCtx, cancel := context.WithCancel(services.WithSessionID(ctx, ch.sessionID))
	defer cancel()

	stop := context.AfterFunc(ch.ctx, cancel)
	defer stop()

	return ch.source.Dial(dialCtx, ch.handler)
}

// watch redials after abnormal closes until the policy's attempts run out or the channel is closed.
func (ch *Channel) watch(stream services.StatusStream) {
	limiter := rate.NewLimiter(rate.Every(ch.policy.Interval), 1)

	for {
		select {
		case <-ch.ctx.Done():
			return
		case <-stream.Done():
		}

		if stream.Err() == nil {
			return
		}

		ch.mu.Lock()
		if ch.closed {
			ch.mu.Unlock()
			return
		}
		if ch.redials >= ch.policy.MaxAttempts {
			ch.mu.Unlock()
			ch.logger.Warn("status channel reconnect limit reached", "attempts", ch.redials)
			return
		}
		ch.redials++
		attempt := ch.redials
		ch.mu.Unlock()

		if err := limiter.Wait(ch.ctx); err != nil {
			return
		}

		ch.mu.Lock()
		if ch.closed {
			ch.mu.Unlock()
			return
		}
		next, err := ch.dial(ch.ctx)
		if err != nil {
			ch.mu.Unlock()
			ch.logger.Warn("status channel reconnect failed", "attempt", attempt, "error", err)
			continue
		}
		ch.stream = next
		ch.mu.Unlock()

		ch.logger.Info("status channel reconnected", "attempt", attempt)
		stream = next
	}
}

// Connected reports whether a connection is currently delivering frames.
func (ch *Channel) Connected() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.closed || ch.stream == nil {
		return false
	}
	select {
	case <-ch.stream.Done():
		return false
	default:
		return true
	}
}

// Reconnects returns how many redials have been attempted.
func (ch *Channel) Reconnects() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.redials
}

// Close releases the current connection exactly once and stops any reconnect loop.
func (ch *Channel) Close() error {
	ch.cancel()

	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return nil
	}
	ch.closed = true
	stream := ch.stream
	ch.stream = nil
	ch.mu.Unlock()

	if stream == nil {
		return nil
	}
	ch.logger.Debug("closing status channel")
	return stream.Close()
}
