package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/reportweaver/internal/formatter"
	"github.com/desertthunder/reportweaver/internal/models"
	"github.com/desertthunder/reportweaver/internal/session"
	"github.com/desertthunder/reportweaver/internal/shared"
)

const updateBuffer = 32

// Options configures a [Model].
type Options struct {
	Controller *session.Controller
	// Theme is the starting theme, read once.
	Theme models.Theme
	// SaveTheme persists a toggled theme. Optional.
	SaveTheme func(models.Theme) error
	// OpenURL opens the document link. Defaults to [shared.OpenBrowser].
	OpenURL func(string) error
	// CopyText copies the document link. Defaults to the system clipboard.
	CopyText func(string) error
	// AutoOpen opens the document as soon as it is ready.
	AutoOpen bool
	Logger   *log.Logger
}

// Model is the TUI: a credential form, a status modal, and the result view inside the modal.
type Model struct {
	ctx  context.Context
	ctrl *session.Controller

	updates   chan models.SessionState
	done      chan struct{}
	closeOnce sync.Once

	state   models.SessionState
	form    form
	spinner spinner.Model
	theme   models.Theme
	palette *Palette
	help    help.Model
	keys    keyMap

	saveTheme func(models.Theme) error
	openURL   func(string) error
	copyText  func(string) error
	autoOpen  bool
	logger    *log.Logger

	formErr    string
	notice     string
	channelErr error
}

// NewModel creates the TUI model and subscribes it to the controller.
func NewModel(ctx context.Context, opts Options) *Model {
	if opts.Theme == "" {
		opts.Theme = models.ThemeLight
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}
	if opts.CopyText == nil {
		opts.CopyText = clipboard.WriteAll
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:       ctx,
		ctrl:      opts.Controller,
		updates:   make(chan models.SessionState, updateBuffer),
		done:      make(chan struct{}),
		state:     opts.Controller.State(),
		form:      newForm(),
		spinner:   sp,
		theme:     opts.Theme,
		palette:   PaletteFor(opts.Theme),
		help:      help.New(),
		keys:      newKeyMap(),
		saveTheme: opts.SaveTheme,
		openURL:   opts.OpenURL,
		copyText:  opts.CopyText,
		autoOpen:  opts.AutoOpen,
		logger:    opts.Logger,
	}

	m.ctrl.Subscribe(func(s models.SessionState) {
		select {
		case m.updates <- s:
		case <-m.done:
		}
	})
	return m
}

// Theme returns the active theme.
func (m *Model) Theme() models.Theme { return m.theme }

// Close tears down the session. Safe to call more than once.
func (m *Model) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.done)
		err = m.ctrl.Close()
	})
	return err
}

// Init opens the status channel and starts listening for snapshots.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForState(), m.openChannel())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case stateMsg:
		return m, m.applyState(models.SessionState(msg))

	case submitDoneMsg:
		return m, m.handleSubmitDone(msg)

	case cancelDoneMsg:
		m.logger.Debug("cancel finished", "response", msg.text)
		return m, nil

	case channelMsg:
		m.channelErr = msg.err
		if msg.err != nil {
			m.logger.Warn("status channel unavailable", "error", msg.err)
		}
		return m, nil

	case noticeMsg:
		if msg.err != nil {
			m.notice = m.palette.err.Render(msg.err.Error())
		} else {
			m.notice = m.palette.ok.Render(msg.text)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if !m.state.ModalOpen() {
		return m, m.form.update(msg)
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		if err := m.Close(); err != nil {
			m.logger.Warn("failed to close session", "error", err)
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.theme):
		return m, m.toggleTheme()
	}

	if m.state.ModalOpen() {
		return m.handleModalKeys(msg)
	}
	return m.handleFormKeys(msg)
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.submit):
		if !m.form.last() {
			return m, m.form.next()
		}
		return m, m.submit()
	case key.Matches(msg, m.keys.next):
		return m, m.form.next()
	case key.Matches(msg, m.keys.prev):
		return m, m.form.prev()
	}

	m.formErr = ""
	return m, m.form.update(msg)
}

func (m *Model) handleModalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.action):
		return m, m.cancel()
	case key.Matches(msg, m.keys.open) && m.state.HasDocument():
		return m, m.open(m.state.DocumentURL)
	case key.Matches(msg, m.keys.copy) && m.state.HasDocument():
		return m, m.copy(m.state.DocumentURL)
	}
	return m, nil
}

// applyState renders a new snapshot and keeps listening.
func (m *Model) applyState(s models.SessionState) tea.Cmd {
	prev := m.state
	m.state = s

	if !s.ModalOpen() {
		m.notice = ""
	}

	cmds := []tea.Cmd{m.waitForState()}
	if m.autoOpen && s.HasDocument() && !prev.HasDocument() {
		cmds = append(cmds, m.open(s.DocumentURL))
	}
	return tea.Batch(cmds...)
}

// handleSubmitDone clears the form after an accepted submit.
func (m *Model) handleSubmitDone(msg submitDoneMsg) tea.Cmd {
	if msg.err != nil {
		if !errors.Is(msg.err, shared.ErrSessionBusy) {
			m.formErr = msg.err.Error()
		}
		return nil
	}

	switch m.ctrl.State().Phase {
	case models.Running, models.Done:
		return m.form.reset()
	}
	return nil
}

func (m *Model) submit() tea.Cmd {
	creds := m.form.credentials()
	if err := creds.Validate(); err != nil {
		m.formErr = err.Error()
		return nil
	}
	m.formErr = ""

	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return submitDoneMsg{err: ctrl.Submit(ctx, creds)}
	}
}

// cancel runs the modal action. The modal button always stops with close intent.
func (m *Model) cancel() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return cancelDoneMsg{text: ctrl.Cancel(ctx, true)}
	}
}

func (m *Model) openChannel() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return channelMsg{err: ctrl.Open(ctx)}
	}
}

func (m *Model) waitForState() tea.Cmd {
	updates, done := m.updates, m.done
	return func() tea.Msg {
		select {
		case s := <-updates:
			return stateMsg(s)
		case <-done:
			return nil
		}
	}
}

func (m *Model) open(url string) tea.Cmd {
	openURL := m.openURL
	return func() tea.Msg {
		if err := openURL(url); err != nil {
			return noticeMsg{err: fmt.Errorf("could not open browser: %w", err)}
		}
		return noticeMsg{text: "Opened in browser"}
	}
}

func (m *Model) copy(url string) tea.Cmd {
	copyText := m.copyText
	return func() tea.Msg {
		if err := copyText(url); err != nil {
			return noticeMsg{err: fmt.Errorf("could not copy link: %w", err)}
		}
		return noticeMsg{text: "Link copied"}
	}
}

// toggleTheme switches palettes now and persists the choice in the background.
func (m *Model) toggleTheme() tea.Cmd {
	m.theme = m.theme.Toggle()
	m.palette = PaletteFor(m.theme)

	if m.saveTheme == nil {
		return nil
	}

	save, theme := m.saveTheme, m.theme
	return func() tea.Msg {
		if err := save(theme); err != nil {
			return noticeMsg{err: fmt.Errorf("could not save theme: %w", err)}
		}
		return nil
	}
}

// View renders the form, or the modal while a session is open.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.palette.title.Render("Generate Report"))
	b.WriteString("\n")

	if m.state.ModalOpen() {
		b.WriteString(m.renderModal())
	} else {
		b.WriteString(m.renderForm())
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(m.notice)
	}
	if m.channelErr != nil {
		b.WriteString("\n")
		b.WriteString(m.palette.warn.Render("Live status updates unavailable"))
	}
	return b.String()
}

func (m *Model) renderForm() string {
	var b strings.Builder

	b.WriteString(m.form.view(m.palette))
	b.WriteString(m.palette.help.Render(m.state.StatusText))
	b.WriteString("\n")

	if m.formErr != "" {
		b.WriteString(m.palette.err.Render(m.formErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.submit, m.keys.theme, m.keys.quit}))
	return b.String()
}

func (m *Model) renderModal() string {
	var body strings.Builder

	status := m.palette.text.Render(m.state.StatusText)
	switch {
	case m.state.Phase == models.Error:
		status = m.palette.err.Render(m.state.StatusText)
	case m.state.ActionLabel != models.LabelDone:
		status = m.spinner.View() + " " + status
	}
	body.WriteString(status)
	body.WriteString("\n")

	if m.state.HasDocument() {
		body.WriteString("\n")
		body.WriteString(m.palette.ok.Render(formatter.SuccessMessage))
		body.WriteString("\n")
		body.WriteString(m.palette.As(m.state.DocumentURL, m.palette.link))
		body.WriteString("\n")
	}

	body.WriteString("\n")
	body.WriteString(m.palette.On(" "+m.state.ActionLabel+" ", m.palette.link))

	bindings := []key.Binding{actionHelp(m.state.ActionLabel)}
	if m.state.HasDocument() {
		bindings = append(bindings, m.keys.open, m.keys.copy)
	}
	bindings = append(bindings, m.keys.quit)

	return m.palette.modal.Render(body.String()) + "\n\n" + m.help.ShortHelpView(bindings)
}

// actionHelp labels the modal action key with the current button text.
func actionHelp(label string) key.Binding {
	return key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", strings.ToLower(label)))
}
