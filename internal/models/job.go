package models

import (
	"fmt"
	"strings"
)

// Credentials is the site login submitted with a report request.
type Credentials struct {
	WebsiteName string `json:"website"`
	SSOUsername string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
}

// Validate reports the first empty field.
//
// The session controller does not call this; it is for the form and CLI flags.
func (c Credentials) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"website", c.WebsiteName},
		{"username", c.SSOUsername},
		{"password", c.Password},
		{"email", c.Email},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%s is required", f.name)
		}
	}
	return nil
}

// String renders the credentials without the password.
func (c Credentials) String() string {
	return fmt.Sprintf("%s@%s <%s>", c.SSOUsername, c.WebsiteName, c.Email)
}

// JobKind tags the variant held by a [JobResult].
type JobKind int

const (
	JobPending JobKind = iota
	JobCompleted
	JobFailed
)

func (k JobKind) String() string {
	switch k {
	case JobPending:
		return "pending"
	case JobCompleted:
		return "completed"
	case JobFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// JobResult is the classified outcome of a submit call.
//
// Only the field matching Kind is meaningful.
type JobResult struct {
	Kind        JobKind
	DocumentURL string // set when Kind is [JobCompleted]
	Message     string // set when Kind is [JobFailed]
}

// PendingResult is returned while the backend is still working on the job.
func PendingResult() JobResult {
	return JobResult{Kind: JobPending}
}

// CompletedResult wraps the URL of the generated document.
func CompletedResult(url string) JobResult {
	return JobResult{Kind: JobCompleted, DocumentURL: url}
}

// FailedResult wraps a user-facing failure message.
func FailedResult(msg string) JobResult {
	return JobResult{Kind: JobFailed, Message: msg}
}

func (r JobResult) String() string {
	switch r.Kind {
	case JobCompleted:
		return fmt.Sprintf("completed(%s)", r.DocumentURL)
	case JobFailed:
		return fmt.Sprintf("failed(%s)", r.Message)
	default:
		return r.Kind.String()
	}
}
