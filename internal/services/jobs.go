// Job service for the report backend's submit and stop endpoints
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/reportweaver/internal/models"
	"github.com/desertthunder/reportweaver/internal/shared"
)

const (
	SubmitPath = "/"
	CancelPath = "/api/server/stop-selenium"
	StatusPath = "/ws/selenium-status"

	// ProcessingSentinel is the submit body meaning the job was accepted but has not finished.
	ProcessingSentinel = "Processing"

	// SessionHeader carries the client's session id on every request.
	SessionHeader = "X-Session-ID"

	documentURLFormat = "https://docs.google.com/document/d/%s/edit"
	defaultBaseURL    = "http://localhost:8080"
)

var _ JobClient = (*JobService)(nil)

// JobService implements [JobClient] over HTTP.
type JobService struct {
	baseURL       string
	httpClient    *http.Client
	cancelTimeout time.Duration
	logger        *log.Logger
}

// JobServiceOpts contains configuration options for creating a JobService.
type JobServiceOpts struct {
	BaseURL       string
	HTTPClient    *http.Client
	CancelTimeout time.Duration
	Logger        *log.Logger
}

// NewJobService creates a new job service instance for the report backend.
func NewJobService(opts JobServiceOpts) *JobService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}

	return &JobService{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		httpClient:    opts.HTTPClient,
		cancelTimeout: opts.CancelTimeout,
		logger:        opts.Logger,
	}
}

// DocumentURL builds the link to the generated Google Doc.
func DocumentURL(documentID string) string {
	return fmt.Sprintf(documentURLFormat, documentID)
}

// ParseSubmitResponse classifies a submit response.
//
// This is the only place the body is sniffed: the sentinel means pending, any other 2xx body is a document id.
func ParseSubmitResponse(statusCode int, body []byte) models.JobResult {
	if statusCode < 200 || statusCode >= 300 {
		return models.FailedResult(StatusMessage(statusCode))
	}

	text := strings.TrimSpace(string(body))
	switch text {
	case ProcessingSentinel:
		return models.PendingResult()
	case "":
		return models.FailedResult(fmt.Sprintf("Unexpected Error: HTTP %d returned no document id", statusCode))
	default:
		return models.CompletedResult(DocumentURL(text))
	}
}

type submitRequest struct {
	Website  string `json:"website"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// SubmitJob posts the credentials and classifies the response.
func (s *JobService) SubmitJob(ctx context.Context, creds models.Credentials) models.JobResult {
	logger := s.logger.With("website", creds.WebsiteName, "username", creds.SSOUsername)

	data, err := json.Marshal(submitRequest{
		Website:  creds.WebsiteName,
		Username: creds.SSOUsername,
		Password: creds.Password,
		Email:    creds.Email,
	})
	if err != nil {
		logger.Error("failed to encode submit request", "error", err)
		return models.FailedResult(ConnectivityMessage)
	}

	status, body, err := s.post(ctx, SubmitPath, data)
	if err != nil {
		logger.Error("submit request failed", "status", status, "error", err)
		// an error response whose body could not be read still has a known status
		if status != 0 && (status < 200 || status >= 300) {
			return models.FailedResult(StatusMessage(status))
		}
		return models.FailedResult(ConnectivityMessage)
	}

	result := ParseSubmitResponse(status, body)
	if result.Kind == models.JobFailed {
		logger.Warn("submit rejected", "status", status)
	} else {
		logger.Info("submit accepted", "status", status, "result", result.Kind)
	}
	return result
}

// CancelJob asks the backend to stop every running browser session.
//
// Returns the response text on success and [CancelFallback] on any failure.
func (s *JobService) CancelJob(ctx context.Context) string {
	if s.cancelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cancelTimeout)
		defer cancel()
	}

	status, body, err := s.post(ctx, CancelPath, nil)
	if err != nil {
		s.logger.Error("stop request failed", "error", err)
		return CancelFallback
	}
	if status < 200 || status >= 300 {
		s.logger.Warn("stop request rejected", "status", status)
		return CancelFallback
	}

	return string(body)
}

// post performs a POST request and returns the status and body. A nil data sends no body.
func (s *JobService) post(ctx context.Context, path string, data []byte) (int, []byte, error) {
	var reader io.Reader
	if data != nil {
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := SessionID(ctx); id != "" {
		req.Header.Set(SessionHeader, id)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, body, nil
}

type sessionKey struct{}

// WithSessionID returns a context that tags outgoing requests with the session id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionID returns the session id stored by [WithSessionID], or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
