package models

// Phase is the discrete state of a report session.
type Phase int

const (
	Idle Phase = iota
	Submitting
	Running
	Done
	Error
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Running:
		return "running"
	case Done:
		return "done"
	case Error:
		return "error"
	default:
		return ""
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Active reports whether a job is in flight for this phase.
func (p Phase) Active() bool {
	return p == Submitting || p == Running
}

// Action labels and fixed status texts shown by the presentation layer.
const (
	LabelCancel = "Cancel"
	LabelClose  = "Close"
	LabelDone   = "Done"

	StatusWaiting    = "Waiting for updates..."
	StatusProcessing = "Processing..."
	StatusStopping   = "Stopping Selenium WebDrivers..."
)

// SessionState is a snapshot of a session.
//
// Snapshots are values: the controller builds a new one on every transition and never mutates one that was handed out.
type SessionState struct {
	SessionID   string `json:"session_id"`
	Phase       Phase  `json:"phase"`
	StatusText  string `json:"status"`
	ActionLabel string `json:"action"`
	DocumentURL string `json:"document_url,omitempty"`
}

// NewSessionState returns the idle state shown before anything is submitted.
func NewSessionState(id string) SessionState {
	return SessionState{
		SessionID:   id,
		Phase:       Idle,
		StatusText:  StatusWaiting,
		ActionLabel: LabelCancel,
	}
}

// ModalOpen reports whether the status modal is visible.
func (s SessionState) ModalOpen() bool {
	return s.Phase != Idle
}

// HasDocument reports whether a result link can be shown.
func (s SessionState) HasDocument() bool {
	return s.Phase == Done && s.DocumentURL != ""
}

// labelFor returns the action label a phase carries.
func labelFor(p Phase) string {
	switch p {
	case Done:
		return LabelDone
	case Error:
		return LabelClose
	default:
		return LabelCancel
	}
}

// WithPhase returns a copy moved to p with the matching action label.
//
// The document URL is cleared for every phase but [Done].
func (s SessionState) WithPhase(p Phase) SessionState {
	s.Phase = p
	s.ActionLabel = labelFor(p)
	if p != Done {
		s.DocumentURL = ""
	}
	return s
}

// WithStatus returns a copy with a new status text.
func (s SessionState) WithStatus(text string) SessionState {
	s.StatusText = text
	return s
}

// WithDocument returns a copy in [Done] carrying url.
func (s SessionState) WithDocument(url string) SessionState {
	s = s.WithPhase(Done)
	s.DocumentURL = url
	return s
}
