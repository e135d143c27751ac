package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/reportweaver/internal/models"
)

const (
	fieldWebsite = iota
	fieldUsername
	fieldPassword
	fieldEmail
	fieldCount
)

var fieldLabels = [fieldCount]string{"Website Name", "SSO Username", "Password", "Email"}

// form collects the four credential fields.
type form struct {
	inputs [fieldCount]textinput.Model
	focus  int
}

func newForm() form {
	var f form
	for i := range f.inputs {
		in := textinput.New()
		in.Placeholder = fieldLabels[i]
		in.CharLimit = 256
		in.Width = 40
		if i == fieldPassword {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.inputs[i] = in
	}
	f.inputs[0].Focus()
	return f
}

func (f *form) setFocus(i int) tea.Cmd {
	f.inputs[f.focus].Blur()
	f.focus = (i + fieldCount) % fieldCount
	return f.inputs[f.focus].Focus()
}

func (f *form) next() tea.Cmd { return f.setFocus(f.focus + 1) }
func (f *form) prev() tea.Cmd { return f.setFocus(f.focus - 1) }

func (f *form) last() bool { return f.focus == fieldCount-1 }

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *form) credentials() models.Credentials {
	return models.Credentials{
		WebsiteName: strings.TrimSpace(f.inputs[fieldWebsite].Value()),
		SSOUsername: strings.TrimSpace(f.inputs[fieldUsername].Value()),
		Password:    f.inputs[fieldPassword].Value(),
		Email:       strings.TrimSpace(f.inputs[fieldEmail].Value()),
	}
}

// reset clears every field and focuses the first one.
func (f *form) reset() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Reset()
	}
	return f.setFocus(0)
}

func (f *form) view(p *Palette) string {
	var b strings.Builder
	for i, in := range f.inputs {
		b.WriteString(p.label.Render(fieldLabels[i]))
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n\n")
	}
	return b.String()
}
