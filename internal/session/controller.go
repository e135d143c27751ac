package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reportweaver/internal/models"
	"github.com/desertthunder/reportweaver/internal/services"
	"github.com/desertthunder/reportweaver/internal/shared"
)

// Listener receives every new snapshot.
//
// Listeners run on the goroutine that caused the transition, in transition order. They may call [Controller.State]
// but must not call Submit, Cancel, OnStatus or Close synchronously.
type Listener func(models.SessionState)

// Opts configures a [Controller].
type Opts struct {
	// ID is the session id. A new UUID is generated when empty.
	ID     string
	Client services.JobClient
	// Source is optional. Without it the controller never opens a status channel.
	Source    services.StatusSource
	Reconnect ReconnectPolicy
	Logger    *log.Logger
}

// Controller is the session state machine.
type Controller struct {
	id      string
	client  services.JobClient
	channel *Channel
	logger  *log.Logger

	current atomic.Pointer[models.SessionState]

	// mu serializes transitions and listener delivery
	mu        sync.Mutex
	attempt   uint64
	closed    bool
	listeners []Listener
}

// New creates a controller in the idle state.
func New(opts Opts) *Controller {
	if opts.ID == "" {
		opts.ID = shared.GenerateID()
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}

	c := &Controller{
		id:     opts.ID,
		client: opts.Client,
		logger: shared.WithLogger(opts.Logger, "session_id", opts.ID),
	}

	initial := models.NewSessionState(opts.ID)
	c.current.Store(&initial)

	if opts.Source != nil {
		c.channel = NewChannel(ChannelOpts{
			Source:    opts.Source,
			SessionID: opts.ID,
			Handler:   c.OnStatus,
			Reconnect: opts.Reconnect,
			Logger:    c.logger,
		})
	}
	return c
}

// ID returns the session id sent with every request.
func (c *Controller) ID() string { return c.id }

// State returns the current snapshot.
func (c *Controller) State() models.SessionState {
	return *c.current.Load()
}

// Channel returns the status channel manager, or nil when the controller has no status source.
func (c *Controller) Channel() *Channel { return c.channel }

// Subscribe registers fn for every later transition.
func (c *Controller) Subscribe(fn Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Open connects the status channel. It is a no-op without a status source or when already open.
//
// A failed open leaves the session usable; it simply receives no status updates.
func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()

	if closed {
		return shared.ErrSessionClosed
	}
	if c.channel == nil {
		return nil
	}
	return c.channel.Open(ctx)
}

// Submit starts a job.
//
// The move to [models.Submitting] is applied and published before the network call. Submit then blocks until the
// job client answers and applies the result, unless a cancel, another submit, or teardown happened in between.
// It returns [shared.ErrSessionBusy] while a job is in flight and [shared.ErrSessionClosed] after teardown.
func (c *Controller) Submit(ctx context.Context, creds models.Credentials) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return shared.ErrSessionClosed
	}
	if phase := c.State().Phase; phase.Active() {
		c.mu.Unlock()
		c.logger.Debug("submit ignored", "phase", phase)
		return shared.ErrSessionBusy
	}

	c.attempt++
	attempt := c.attempt
	c.commit(c.State().WithPhase(models.Submitting).WithStatus(models.StatusProcessing))
	c.mu.Unlock()

	c.logger.Info("submitting job", "credentials", creds.String())
	result := c.client.SubmitJob(services.WithSessionID(ctx, c.id), creds)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.attempt != attempt {
		c.logger.Debug("dropping stale submit result", "result", result.Kind)
		return nil
	}

	state := c.State()
	switch result.Kind {
	case models.JobPending:
		state = state.WithPhase(models.Running)
	case models.JobCompleted:
		state = state.WithDocument(result.DocumentURL)
	case models.JobFailed:
		state = state.WithPhase(models.Error).WithStatus(result.Message)
	}

	c.logger.Info("submit finished", "result", result.Kind, "phase", state.Phase)
	c.commit(state)
	return nil
}

// Cancel asks the backend to stop and returns the text it answered with.
//
// It is allowed in every phase and always makes the stop call. While the call is in flight the phase is
// [models.Submitting] with the stopping text. Afterwards the phase is [models.Idle] when closeIntent is set and
// [models.Running] otherwise, the status text is the response, and the document link is gone.
func (c *Controller) Cancel(ctx context.Context, closeIntent bool) string {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ""
	}

	c.attempt++
	attempt := c.attempt
	c.commit(c.State().WithPhase(models.Submitting).WithStatus(models.StatusStopping))
	c.mu.Unlock()

	c.logger.Info("cancelling job", "close", closeIntent)
	text := c.client.CancelJob(services.WithSessionID(ctx, c.id))

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.attempt != attempt {
		c.logger.Debug("dropping stale cancel result")
		return text
	}

	next := models.Running
	if closeIntent {
		next = models.Idle
	}
	c.commit(c.State().WithPhase(next).WithStatus(text))
	return text
}

// OnStatus applies a status frame.
//
// Frames are accepted in every phase, including Done and Error. An empty frame while Running is applied like a
// cancel without close intent that already got its answer: the session stays Running with the Cancel label, the
// document link is dropped and no network call is made. Empty frames in other phases are ignored.
func (c *Controller) OnStatus(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	state := c.State()
	if text == "" {
		if state.Phase != models.Running {
			return
		}
		c.attempt++
		c.logger.Debug("empty status frame, stopping locally")
		c.commit(state.WithPhase(models.Running))
		return
	}

	c.commit(state.WithStatus(text))
}

// Close tears the session down: it releases the status channel and freezes the state. Later calls are no-ops.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.attempt++
	c.mu.Unlock()

	c.logger.Debug("session closed")
	if c.channel == nil {
		return nil
	}
	return c.channel.Close()
}

// commit stores and publishes next. Callers hold mu.
func (c *Controller) commit(next models.SessionState) {
	c.current.Store(&next)
	for _, fn := range c.listeners {
		fn(next)
	}
}
