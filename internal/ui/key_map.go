package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
//
// Letter keys are only bound outside the form so they can be typed into fields.
type keyMap struct {
	next   key.Binding
	prev   key.Binding
	submit key.Binding
	action key.Binding
	open   key.Binding
	copy   key.Binding
	theme  key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab/↓", "next field")),
		prev:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab/↑", "previous field")),
		submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		action: key.NewBinding(key.WithKeys("enter", "esc"), key.WithHelp("enter", "cancel")),
		open:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open doc")),
		copy:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy link")),
		theme:  key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "theme")),
		quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.theme, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.next, k.prev, k.submit},
		{k.action, k.open, k.copy},
		{k.theme, k.quit},
	}
}
