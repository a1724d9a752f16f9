package tui

import (
	"strings"

	"github.com/alkime/lectio/internal/tui/style"
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings of the recording screen.
type KeyMap struct {
	Next  key.Binding
	Prev  key.Binding
	Left  key.Binding
	Right key.Binding

	Start   key.Binding
	Stop    key.Binding
	Upload  key.Binding
	Dictate key.Binding
	Play    key.Binding
	Delete  key.Binding

	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down", "j"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up", "k"),
			key.WithHelp("shift+tab", "previous field"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "previous"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "next"),
		),
		Start: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "record"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		Upload: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "upload"),
		),
		Dictate: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "dictate"),
		),
		Play: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "save audio"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Stop, k.Upload, k.Dictate, k.Quit}
}

// FullHelp returns every binding grouped by concern.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Left, k.Right},
		{k.Start, k.Stop, k.Upload, k.Dictate},
		{k.Play, k.Delete},
		{k.Quit, k.ForceQuit},
	}
}

func renderKeyHelp(keyBinding key.Binding, suffix ...string) string {
	s := style.Help.Render("[") + style.Key.Render(keyBinding.Help().Key) +
		style.Help.Render("] ") +
		style.Help.Render(keyBinding.Help().Desc)

	s += strings.Join(suffix, "")

	return s
}

func renderHelp(groups [][]key.Binding) string {
	lines := make([]string, 0, len(groups))

	for _, group := range groups {
		parts := make([]string, 0, len(group))
		for _, b := range group {
			parts = append(parts, renderKeyHelp(b))
		}

		lines = append(lines, strings.Join(parts, "  "))
	}

	return strings.Join(lines, "\n")
}
