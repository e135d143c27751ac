package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/reportweaver/internal/models"
	"github.com/desertthunder/reportweaver/internal/shared"
	th "github.com/desertthunder/reportweaver/internal/testing"
)

const docURL = "https://docs.google.com/document/d/abc123/edit"

func runningState() models.SessionState {
	return models.NewSessionState("s1").WithPhase(models.Running).WithStatus("Downloading report")
}

func doneState() models.SessionState {
	return models.NewSessionState("s1").WithStatus("Processing...").WithDocument(docURL)
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		in   string
		want Format
	}{
		{"", FormatText},
		{"text", FormatText},
		{"TXT", FormatText},
		{"json", FormatJSON},
		{"markdown", FormatMarkdown},
		{" md ", FormatMarkdown},
	}

	for _, tt := range tc {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Errorf("ParseFormat(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFormat("csv"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}

func TestFormatters(t *testing.T) {
	t.Run("StateToText", func(t *testing.T) {
		output := string(StateToText(runningState()))
		if output != "[running] Downloading report\n" {
			t.Errorf("unexpected text %q", output)
		}

		output = string(StateToText(doneState()))
		if !strings.Contains(output, "[done] Processing...") {
			t.Errorf("text missing phase line, got: %s", output)
		}
		if !strings.Contains(output, SuccessMessage) {
			t.Errorf("text missing success message")
		}
		if !strings.Contains(output, docURL) {
			t.Errorf("text missing document url")
		}
	})

	t.Run("StateToJSON", func(t *testing.T) {
		data, err := StateToJSON(doneState())
		if err != nil {
			t.Fatalf("StateToJSON failed: %v", err)
		}
		if !bytes.HasSuffix(data, []byte("\n")) || bytes.Count(data, []byte("\n")) != 1 {
			t.Errorf("expected a single JSON line, got %q", data)
		}

		var decoded map[string]string
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["phase"] != "done" {
			t.Errorf("expected phase done, got %s", decoded["phase"])
		}
		if decoded["action"] != "Done" {
			t.Errorf("expected action Done, got %s", decoded["action"])
		}
		if decoded["document_url"] != docURL {
			t.Errorf("expected document_url, got %s", decoded["document_url"])
		}
		if decoded["session_id"] != "s1" {
			t.Errorf("expected session_id s1, got %s", decoded["session_id"])
		}
	})

	t.Run("StateToJSON Omits Empty URL", func(t *testing.T) {
		data, _ := StateToJSON(runningState())
		if strings.Contains(string(data), "document_url") {
			t.Errorf("expected no document_url, got %s", data)
		}
	})

	t.Run("StateToMarkdown", func(t *testing.T) {
		output := string(StateToMarkdown(doneState()))
		if !strings.HasPrefix(output, "- **done**: Processing...") {
			t.Errorf("unexpected markdown %q", output)
		}
		if !strings.Contains(output, "([Open document]("+docURL+"))") {
			t.Errorf("markdown missing link, got %q", output)
		}

		escaped := string(StateToMarkdown(runningState().WithStatus("step_1 *done*")))
		if !strings.Contains(escaped, `step\_1 \*done\*`) {
			t.Errorf("expected markdown escaping, got %q", escaped)
		}
	})

	t.Run("FormatState Unknown", func(t *testing.T) {
		if _, err := FormatState(runningState(), Format("yaml")); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestStateWriter(t *testing.T) {
	t.Run("Skips Consecutive Duplicates", func(t *testing.T) {
		var buf bytes.Buffer
		sw := NewStateWriter(&buf, FormatText)

		sw.Listen(runningState())
		sw.Listen(runningState())
		sw.Listen(doneState())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 4 {
			t.Errorf("expected 4 lines (1 running + 3 done), got %d: %q", len(lines), lines)
		}
	})

	t.Run("Unknown Format Falls Back To Text", func(t *testing.T) {
		var buf bytes.Buffer
		sw := NewStateWriter(&buf, Format("yaml"))

		if err := sw.Write(runningState()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if buf.String() != "[running] Downloading report\n" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("Write Error", func(t *testing.T) {
		sw := NewStateWriter(&th.FWriter{}, FormatJSON)

		if err := sw.Write(runningState()); err == nil {
			t.Fatal("expected write error")
		}
	})
}
