package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reportweaver/internal/models"
	"github.com/desertthunder/reportweaver/internal/services"
	"github.com/desertthunder/reportweaver/internal/shared"
)

// StopResponse is returned once all running jobs have been stopped.
const StopResponse = "All active Selenium WebDriver sessions have been stopped."

// DefaultSteps are the status frames a stub job emits, modeled on a real report run.
var DefaultSteps = []string{
	"Logging in to %s...",
	"Clicking download button...",
	"Waiting for file download...",
	"Starting data extraction from file: report.xlsx",
	"Data extraction completed. Errors found: 3",
	"Creating error summary table...",
	"Adding heading: Error Report",
}

// StubOpts configures a [Stub].
type StubOpts struct {
	Hub       *StatusHub
	StepDelay time.Duration
	StopDelay time.Duration
	// Async answers submits with the processing sentinel and runs the job in the background.
	Async bool
	// FailStatus, when non-zero, answers every submit with this status.
	FailStatus int
	// Steps override [DefaultSteps]. A %s verb is replaced with the website.
	Steps []string
	// DocumentID generates the id returned for a finished job. Defaults to a UUID.
	DocumentID func() string
	Logger     *log.Logger
}

// Stub is an in-process stand-in for the report backend.
//
// It runs one job at a time. A stop request aborts the running job, which then answers its submit with a 500.
type Stub struct {
	hub        *StatusHub
	stepDelay  time.Duration
	stopDelay  time.Duration
	async      bool
	failStatus int
	steps      []string
	documentID func() string
	logger     *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	jobs   sync.WaitGroup
}

type reportRequest struct {
	Website  string `json:"website"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// NewStub creates a stub backend broadcasting on opts.Hub.
func NewStub(opts StubOpts) *Stub {
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	if opts.Hub == nil {
		opts.Hub = NewStatusHub(opts.Logger)
	}
	if len(opts.Steps) == 0 {
		opts.Steps = DefaultSteps
	}
	if opts.DocumentID == nil {
		opts.DocumentID = shared.GenerateID
	}

	return &Stub{
		hub:        opts.Hub,
		stepDelay:  opts.StepDelay,
		stopDelay:  opts.StopDelay,
		async:      opts.Async,
		failStatus: opts.FailStatus,
		steps:      opts.Steps,
		documentID: opts.DocumentID,
		logger:     opts.Logger,
	}
}

// Hub returns the status hub the stub broadcasts on.
func (s *Stub) Hub() *StatusHub { return s.hub }

// Register mounts the submit, stop and status routes on r.
func (s *Stub) Register(r Router) {
	r.Handle(http.MethodPost, services.SubmitPath, http.HandlerFunc(s.Submit))
	r.Handle(http.MethodPost, services.CancelPath, http.HandlerFunc(s.Stop))
	r.Handler(s.hub)
}

// Submit handles POST /.
func (s *Stub) Submit(w http.ResponseWriter, r *http.Request) {
	if s.failStatus != 0 {
		http.Error(w, http.StatusText(s.failStatus), s.failStatus)
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	creds := models.Credentials{WebsiteName: req.Website, SSOUsername: req.Username, Password: req.Password, Email: req.Email}
	if err := creds.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, ok := s.start()
	if !ok {
		http.Error(w, "a report is already running", http.StatusTooManyRequests)
		return
	}

	logger := s.logger.With("website", creds.WebsiteName, "session_id", r.Header.Get(services.SessionHeader))
	logger.Info("report job started")

	if s.async {
		go func() {
			defer s.finish()
			id, err := s.run(ctx, creds)
			if err != nil {
				logger.Warn("report job aborted", "error", err)
				return
			}
			s.hub.Broadcast("Document ready: " + services.DocumentURL(id))
		}()
		w.Write([]byte(services.ProcessingSentinel))
		return
	}

	defer s.finish()

	// a client that goes away also stops the job
	stop := context.AfterFunc(r.Context(), s.abort)
	defer stop()

	id, err := s.run(ctx, creds)
	if err != nil {
		logger.Warn("report job aborted", "error", err)
		http.Error(w, "Error generating report: "+err.Error(), http.StatusInternalServerError)
		return
	}

	logger.Info("report job finished", "document_id", id)
	w.Write([]byte(id))
}

// Stop handles POST /api/server/stop-selenium.
func (s *Stub) Stop(w http.ResponseWriter, r *http.Request) {
	s.abort()
	s.hub.Broadcast(models.StatusStopping)

	if s.stopDelay > 0 {
		select {
		case <-time.After(s.stopDelay):
		case <-r.Context().Done():
			http.Error(w, "Error while stopping Selenium WebDrivers.", http.StatusInternalServerError)
			return
		}
	}

	w.Write([]byte(StopResponse))
}

// Wait blocks until every background job has returned.
func (s *Stub) Wait() {
	s.jobs.Wait()
}

func (s *Stub) start() (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil, false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.jobs.Add(1)
	return ctx, true
}

func (s *Stub) finish() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()
	s.jobs.Done()
}

func (s *Stub) abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Stub) run(ctx context.Context, creds models.Credentials) (string, error) {
	for _, step := range s.steps {
		text := step
		if strings.Contains(step, "%s") {
			text = fmt.Sprintf(step, creds.WebsiteName)
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("session stopped")
		case <-time.After(s.stepDelay):
		}
		s.hub.Broadcast(text)
	}

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("session stopped")
	}
	return s.documentID(), nil
}
