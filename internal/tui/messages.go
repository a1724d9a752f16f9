package tui

import (
	"time"

	"github.com/alkime/lectio/internal/catalog"
	tea "github.com/charmbracelet/bubbletea"
)

const tickInterval = 200 * time.Millisecond

// tickMsg drains captured audio and refreshes the elapsed time.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// statsLoadedMsg carries the statistics of the translation that requested them.
type statsLoadedMsg struct {
	translationID int64
	stats         catalog.SummaryStats
	err           error
}

// recordingsLoadedMsg carries the recordings of the translation that requested them.
type recordingsLoadedMsg struct {
	translationID int64
	recordings    []catalog.Recording
	err           error
}

type uploadDoneMsg struct {
	recordingID int64
	err         error
}

// dictatedMsg carries a Whisper transcription for the take it was made from.
type dictatedMsg struct {
	take int
	text string
	err  error
}

type audioSavedMsg struct {
	recording catalog.Recording
	path      string
	size      int64
	err       error
}

type deletedMsg struct {
	recordingID int64
	err         error
}
