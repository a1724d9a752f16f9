// Package waveform renders a live input level meter for the recording screen.
package waveform

import (
	"math"
	"strings"
	"time"

	"github.com/alkime/lectio/internal/tui/style"
	"github.com/alkime/lectio/pkg/uictl"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Block characters for amplitude, index 0 is empty and 8 is a full cell.
const blockChars = " ▁▂▃▄▅▆▇█"

// ClipLevel is the peak amplitude at which a column is drawn as clipping.
const ClipLevel = 32000

const frameInterval = 50 * time.Millisecond

// TickMsg triggers a redraw.
type TickMsg struct{}

// Model draws recent samples as bars, oldest on the left. Columns whose peak
// reaches ClipLevel are drawn in the error style so the reader can back off
// the microphone.
type Model struct {
	levels uictl.Levels[int16]
	width  int
	height int
}

// New creates a meter reading from levels. Samples are bucketed to fit width
// columns; height is the number of rows and is at least one.
func New(levels uictl.Levels[int16], width, height int) Model {
	return Model{
		levels: levels,
		width:  max(width, 1),
		height: max(height, 1),
	}
}

// SetWidth resizes the meter.
func (m Model) SetWidth(width int) Model {
	m.width = max(width, 1)
	return m
}

// Init starts the redraw ticker.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update reschedules the ticker on every TickMsg.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(TickMsg); ok {
		return m, m.tick()
	}

	return m, nil
}

// View renders the meter. Without samples only the baseline is drawn.
func (m Model) View() string {
	var samples []int16
	if m.levels != nil {
		samples = m.levels.Read()
	}

	if len(samples) == 0 {
		return m.renderBaseline()
	}

	return m.render(columnPeaks(samples, m.width))
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(frameInterval, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m Model) render(peaks []int) string {
	runes := []rune(blockChars)
	maxLevel := m.height * 8

	levels := make([]int, len(peaks))
	for i, p := range peaks {
		levels[i] = level(p, maxLevel)
	}

	rows := make([]string, 0, m.height)

	for row := range m.height {
		// row 0 is the top, so it holds the highest eighths
		base := (m.height - 1 - row) * 8

		var (
			sb      strings.Builder
			run     strings.Builder
			runClip bool
		)

		flush := func() {
			if run.Len() == 0 {
				return
			}

			st := style.Progress
			if runClip {
				st = style.Error
			}

			sb.WriteString(st.Render(run.String()))
			run.Reset()
		}

		for col, lvl := range levels {
			clip := peaks[col] >= ClipLevel
			if clip != runClip {
				flush()
				runClip = clip
			}

			run.WriteRune(runes[min(max(lvl-base, 0), 8)])
		}

		flush()
		rows = append(rows, sb.String())
	}

	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderBaseline() string {
	rows := make([]string, 0, m.height)

	for row := range m.height {
		fill := " "
		if row == m.height-1 {
			fill = "▁"
		}

		rows = append(rows, style.Muted.Render(strings.Repeat(fill, m.width)))
	}

	return strings.Join(rows, "\n")
}

// columnPeaks splits samples into width buckets and returns the peak absolute
// amplitude of each. Columns past the end of the samples are zero.
func columnPeaks(samples []int16, width int) []int {
	peaks := make([]int, width)
	bucket := max(1, len(samples)/width)

	for col := range width {
		start := col * bucket
		if start >= len(samples) {
			break
		}

		for _, s := range samples[start:min(start+bucket, len(samples))] {
			peaks[col] = max(peaks[col], abs(int(s)))
		}
	}

	return peaks
}

// level maps a peak onto 0..maxLevel eighths. The square root keeps quiet
// speech visible.
func level(peak, maxLevel int) int {
	if peak <= 0 {
		return 0
	}

	normalized := min(float64(peak)/math.MaxInt16, 1)

	return min(int(math.Sqrt(normalized)*float64(maxLevel)), maxLevel)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
