// package formatter renders session snapshots for the headless commands (plain text, JSON lines, Markdown)
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/desertthunder/reportweaver/internal/models"
	"github.com/desertthunder/reportweaver/internal/shared"
)

// Format selects an output rendering.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// SuccessMessage is shown once a document has been produced.
const SuccessMessage = "The Google Doc was successfully created."

// ParseFormat accepts text, json or markdown (md). An empty string means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
	}
}

// FormatState renders one snapshot, newline terminated.
func FormatState(state models.SessionState, format Format) ([]byte, error) {
	switch format {
	case FormatText, "":
		return StateToText(state), nil
	case FormatJSON:
		return StateToJSON(state)
	case FormatMarkdown:
		return StateToMarkdown(state), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// StateToText renders "[phase] status", followed by the document link when there is one.
func StateToText(state models.SessionState) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("[%s] %s\n", state.Phase, state.StatusText))
	if state.HasDocument() {
		buf.WriteString(fmt.Sprintf("%s\n%s\n", SuccessMessage, state.DocumentURL))
	}

	return buf.Bytes()
}

// StateToJSON renders the snapshot as a single JSON line.
func StateToJSON(state models.SessionState) ([]byte, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return append(data, '\n'), nil
}

// StateToMarkdown renders the snapshot as a Markdown list item with a link for finished documents.
func StateToMarkdown(state models.SessionState) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("- **%s**: %s", state.Phase, escapeMarkdown(state.StatusText)))
	if state.HasDocument() {
		buf.WriteString(fmt.Sprintf(" ([Open document](%s))", state.DocumentURL))
	}
	buf.WriteString("\n")

	return buf.Bytes()
}

func escapeMarkdown(s string) string {
	r := strings.NewReplacer("*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`, "`", "\\`")
	return r.Replace(s)
}

// StateWriter streams snapshots to w, skipping consecutive duplicates.
//
// It is safe to use as a session listener.
type StateWriter struct {
	w      io.Writer
	format Format

	mu   sync.Mutex
	last *models.SessionState
}

// NewStateWriter creates a [StateWriter]. An unknown format falls back to text.
func NewStateWriter(w io.Writer, format Format) *StateWriter {
	if _, err := ParseFormat(string(format)); err != nil {
		format = FormatText
	}
	return &StateWriter{w: w, format: format}
}

// Write renders state unless it equals the previous one.
func (sw *StateWriter) Write(state models.SessionState) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.last != nil && *sw.last == state {
		return nil
	}

	data, err := FormatState(state, sw.format)
	if err != nil {
		return err
	}
	if _, err := sw.w.Write(data); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}

	sw.last = &state
	return nil
}

// Listen adapts Write to a listener func, dropping write errors.
func (sw *StateWriter) Listen(state models.SessionState) {
	_ = sw.Write(state)
}
