// package services defines the request/response and streaming boundaries to the report backend
package services

import (
	"context"

	"github.com/desertthunder/reportweaver/internal/models"
)

// JobClient is the request/response boundary to the report backend.
//
// Implementations are stateless beyond the network call and never retry.
type JobClient interface {
	// SubmitJob sends the credentials and classifies the response. Failures are reported as [models.JobFailed], never as an error.
	SubmitJob(ctx context.Context, creds models.Credentials) models.JobResult

	// CancelJob asks the backend to stop all running jobs and returns the text to show. It cannot fail loudly.
	CancelJob(ctx context.Context) string
}

// StatusHandler receives each text frame pushed on the status channel.
type StatusHandler func(text string)

// StatusSource opens status channel connections.
type StatusSource interface {
	Dial(ctx context.Context, handler StatusHandler) (StatusStream, error)
}

// StatusStream is one open status channel connection.
type StatusStream interface {
	// Close releases the connection. Safe to call more than once.
	Close() error

	// Done is closed once the connection has stopped delivering frames.
	Done() <-chan struct{}

	// Err reports why the connection ended; nil after a local Close.
	Err() error
}
