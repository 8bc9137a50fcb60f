package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings shared by the wizards.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Back     key.Binding
	Quit     key.Binding
	Retry    key.Binding
	Tab      key.Binding
	ShiftTab key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Retry:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		ShiftTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev field")),
	}
}

// HelpText returns the help line for list screens.
func (k KeyMap) HelpText() string {
	return joinHelp(k.Up, k.Down, k.Select, k.Back)
}

// InputHelpText returns the help line for form screens.
func (k KeyMap) InputHelpText() string {
	return joinHelp(k.Tab, k.ShiftTab, k.Select, k.Back)
}

func joinHelp(bindings ...key.Binding) string {
	var s string
	for i, b := range bindings {
		if i > 0 {
			s += " " + SymbolBullet + " "
		}
		h := b.Help()
		s += h.Key + " " + h.Desc
	}
	return s
}
