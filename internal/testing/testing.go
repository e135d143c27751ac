// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/reportweaver/internal/models"
)

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockJobClient is a test double for [services.JobClient].
//
// SubmitJob blocks until a result is pushed with Resolve (or ctx ends) unless SubmitResult is set.
type MockJobClient struct {
	SubmitResult *models.JobResult
	CancelText   string

	mu          sync.Mutex
	submits     []models.Credentials
	cancels     int
	results     chan models.JobResult
	cancelGate  chan struct{}
	submitEntry chan struct{}
}

func NewMockJobClient() *MockJobClient {
	return &MockJobClient{
		results:     make(chan models.JobResult, 1),
		submitEntry: make(chan struct{}, 8),
	}
}

// Resolve delivers the result of the pending SubmitJob call.
func (m *MockJobClient) Resolve(r models.JobResult) {
	m.results <- r
}

// SubmitStarted is signalled each time SubmitJob is entered.
func (m *MockJobClient) SubmitStarted() <-chan struct{} {
	return m.submitEntry
}

// HoldCancel makes CancelJob block until the returned func is called.
func (m *MockJobClient) HoldCancel() (release func()) {
	gate := make(chan struct{})
	m.mu.Lock()
	m.cancelGate = gate
	m.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (m *MockJobClient) SubmitJob(ctx context.Context, creds models.Credentials) models.JobResult {
	m.mu.Lock()
	m.submits = append(m.submits, creds)
	fixed := m.SubmitResult
	m.mu.Unlock()

	select {
	case m.submitEntry <- struct{}{}:
	default:
	}

	if fixed != nil {
		return *fixed
	}

	select {
	case r := <-m.results:
		return r
	case <-ctx.Done():
		return models.FailedResult("context done")
	}
}

func (m *MockJobClient) CancelJob(ctx context.Context) string {
	m.mu.Lock()
	m.cancels++
	gate := m.cancelGate
	text := m.CancelText
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
		}
	}
	return text
}

// Submits returns the credentials passed to SubmitJob so far.
func (m *MockJobClient) Submits() []models.Credentials {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Credentials(nil), m.submits...)
}

// Cancels returns how many times CancelJob was called.
func (m *MockJobClient) Cancels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancels
}

// StateRecorder collects session snapshots delivered to a listener.
type StateRecorder struct {
	mu     sync.Mutex
	states []models.SessionState
	notify chan struct{}
}

func NewStateRecorder() *StateRecorder {
	return &StateRecorder{notify: make(chan struct{}, 64)}
}

// Record is the listener func.
func (r *StateRecorder) Record(s models.SessionState) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// States returns a copy of everything recorded.
func (r *StateRecorder) States() []models.SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.SessionState(nil), r.states...)
}

// WaitFor blocks until a recorded state satisfies match, failing the test after timeout.
func (r *StateRecorder) WaitFor(t *testing.T, timeout time.Duration, match func(models.SessionState) bool) models.SessionState {
	t.Helper()

	deadline := time.After(timeout)
	for {
		for _, s := range r.States() {
			if match(s) {
				return s
			}
		}
		select {
		case <-r.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for state; recorded %+v", r.States())
			return models.SessionState{}
		}
	}
}

// Eventually polls cond until it holds or the timeout passes.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}
