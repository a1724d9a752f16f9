// Package style holds the lipgloss styles shared by the recording screen and
// its components. Styles are values and safe to share between goroutines.
package style

import "github.com/charmbracelet/lipgloss"

var (
	// Title is used for the screen title and the upload spinner label.
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205"))

	// Subtitle is used for the scripture reference and spinner subtitles.
	Subtitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	// Success is used for success messages.
	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	// Error is used for error messages.
	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))

	// Warning is used for recoverable failures such as a rejected upload.
	Warning = lipgloss.NewStyle().
		Foreground(lipgloss.Color("214"))

	// Viewport frames the transcription text.
	Viewport = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	// Help is used for keyboard shortcut hints.
	Help = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	// Key is used for highlighting keyboard keys.
	Key = lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	// Progress is used for the level meter.
	Progress = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	// Label is used for field and section labels.
	Label = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("255"))

	// Muted is used for placeholders and recording metadata.
	Muted = lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	// Bullet marks the focused field and the selected recording.
	Bullet = lipgloss.NewStyle().
		Foreground(lipgloss.Color("205"))

	// Focus highlights the value of the focused field.
	Focus = lipgloss.NewStyle().
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))

	// Recording is the live capture indicator.
	Recording = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)
