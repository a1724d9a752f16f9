// Package labeledspinner renders a spinner with a title, subtitle and help line.
package labeledspinner

import (
	"strings"

	"github.com/alkime/lectio/internal/tui/style"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Model shows a spinner with a title and subtitle on one line and a help
// line beneath, sized to sit inside a larger screen. It animates only
// between Start and Stop, so an idle screen schedules no ticks.
type Model struct {
	Spinner  spinner.Model
	Title    string
	Subtitle string
	Help     string

	active bool
}

// New creates an inactive labeled spinner.
func New(s spinner.Spinner, title, subtitle, help string) Model {
	sp := spinner.New()
	sp.Spinner = s

	return Model{
		Spinner:  sp,
		Title:    title,
		Subtitle: subtitle,
		Help:     help,
		active:   false,
	}
}

// Init returns the first tick.
func (ls Model) Init() tea.Cmd {
	return ls.Spinner.Tick
}

// Start activates the spinner with a new subtitle.
func (ls Model) Start(subtitle string) (Model, tea.Cmd) {
	ls.Subtitle = subtitle
	ls.active = true

	return ls, ls.Init()
}

// Stop deactivates the spinner. Ticks already scheduled are dropped.
func (ls Model) Stop() Model {
	ls.active = false
	return ls
}

// Active reports whether the spinner is between Start and Stop.
func (ls Model) Active() bool {
	return ls.active
}

// Update advances the spinner on its own ticks while active.
func (ls Model) Update(teaMsg tea.Msg) (Model, tea.Cmd) {
	tickMsg, ok := teaMsg.(spinner.TickMsg)
	if !ok || !ls.active {
		return ls, nil
	}

	var cmd tea.Cmd
	ls.Spinner, cmd = ls.Spinner.Update(tickMsg)

	return ls, cmd
}

// View renders the labeled spinner with its static help text.
func (ls Model) View() string {
	return ls.ViewWithHelp(ls.Help)
}

// ViewWithHelp renders the labeled spinner with help computed at render time,
// such as the size of the payload in flight. Empty parts are omitted.
func (ls Model) ViewWithHelp(help string) string {
	var sb strings.Builder

	sb.WriteString(ls.Spinner.View())
	sb.WriteString(" ")
	sb.WriteString(style.Title.Render(ls.Title))

	if ls.Subtitle != "" {
		sb.WriteString(" ")
		sb.WriteString(style.Subtitle.Render(ls.Subtitle))
	}

	if help != "" {
		sb.WriteString("\n")
		sb.WriteString(style.Help.Render(help))
	}

	return sb.String()
}
