package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alkime/lectio/internal/catalog"
	"github.com/alkime/lectio/internal/recording"
	"github.com/alkime/lectio/internal/selection"
	"github.com/alkime/lectio/internal/stats"
	"github.com/alkime/lectio/internal/tui/style"
	"github.com/dustin/go-humanize"
)

const (
	plotCols      = 50
	boxRows       = 3
	histogramRows = 6
	// plots are drawn on a 10px-per-column surface and sampled into cells
	plotWidth       = plotCols * 10
	boxHeight       = 60
	histogramHeight = 120

	visibleRecordings = 8
)

// View renders the screen.
func (m *Model) View() string {
	var sb strings.Builder

	snap := m.store.Snapshot()

	sb.WriteString(style.Title.Render("Lectio"))

	if ref := snap.Reference(); ref != "" {
		sb.WriteString(" ")
		sb.WriteString(style.Subtitle.Render(ref))
	}

	sb.WriteString("\n\n")

	for f := fieldTranslation; f <= fieldVerseEnd; f++ {
		sb.WriteString(m.renderField(f, fieldValue(f, snap)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.renderTranscription(snap.Transcription))
	sb.WriteString("\n\n")
	sb.WriteString(m.renderRecorder())
	sb.WriteString("\n\n")
	sb.WriteString(m.renderStats())
	sb.WriteString("\n\n")
	sb.WriteString(m.renderRecordings())
	sb.WriteString("\n\n")

	if m.status != "" {
		sb.WriteString(m.statusStyle.Render(m.status))
		sb.WriteString("\n\n")
	}

	sb.WriteString(renderHelp(m.keys.FullHelp()))

	return sb.String()
}

func fieldValue(f field, snap selection.Snapshot) string {
	switch f {
	case fieldTranslation:
		return snap.TranslationName
	case fieldVersion:
		return snap.Version
	case fieldBook:
		return snap.BookName
	case fieldChapter:
		if snap.ChapterNumber == 0 {
			return ""
		}

		return fmt.Sprintf("%d (%d verses)", snap.ChapterNumber, snap.VerseCount)
	case fieldVerseStart:
		return verseValue(snap.VerseStart)
	case fieldVerseEnd:
		return verseValue(snap.VerseEnd)
	case fieldRecordings, fieldCount:
	}

	return ""
}

func verseValue(v int) string {
	if v == 0 {
		return ""
	}

	return strconv.Itoa(v)
}

func (m *Model) renderField(f field, value string) string {
	marker := "  "
	if m.focus == f {
		marker = style.Bullet.Render("›") + " "
	}

	label := style.Label.Render(fmt.Sprintf("%-12s", f.String()))

	switch {
	case value == "":
		value = style.Muted.Render("…")
	case m.focus == f:
		value = style.Focus.Render("‹ " + value + " ›")
	}

	return marker + label + value
}

func (m *Model) renderTranscription(text string) string {
	if text == "" {
		text = style.Muted.Render("No verse text for this passage. Record, then press t to dictate.")
	}

	width := min(max(m.width-4, 20), 76)

	return style.Label.Render("Transcription") + "\n" + style.Viewport.Width(width).Render(text)
}

func (m *Model) renderRecorder() string {
	elapsed := formatElapsed(m.session.ElapsedSeconds())
	size := humanBytes(int64(m.session.Bytes()))

	switch m.session.State() {
	case recording.Recording:
		return style.Recording.Render("● REC") + " " +
			style.Subtitle.Render(elapsed+"  "+size) + "\n" +
			m.waveform.View()

	case recording.Uploading:
		return m.spinner.ViewWithHelp(size)

	case recording.Idle:
		return style.Subtitle.Render("Ready to record")

	case recording.Stopped, recording.UploadFailed, recording.UploadSucceeded:
	}

	return style.Subtitle.Render(fmt.Sprintf("%s  %s  %s", m.session.State(), elapsed, size))
}

func (m *Model) renderStats() string {
	var sb strings.Builder

	sb.WriteString(style.Label.Render("Words per minute"))
	sb.WriteString("\n")

	switch {
	case m.summary == nil:
		sb.WriteString(style.Muted.Render("No statistics"))
		return sb.String()
	case m.summary.Count == 0:
		sb.WriteString(style.Muted.Render("No recordings yet"))
		return sb.String()
	}

	s := m.summary
	sb.WriteString(style.Subtitle.Render(fmt.Sprintf(
		"n=%d  median %.0f  mean %.0f  min %.0f  max %.0f",
		s.Count, s.Median, s.Mean, s.Min, s.Max,
	)))
	sb.WriteString("\n")

	box := stats.NewCellCanvas(plotCols, boxRows, plotWidth, boxHeight)
	hist := stats.NewCellCanvas(plotCols, histogramRows, plotWidth, histogramHeight)
	stats.Render(box, hist, s)

	sb.WriteString(box.Render())
	sb.WriteString("\n")
	sb.WriteString(hist.Render())

	return sb.String()
}

func (m *Model) renderRecordings() string {
	var sb strings.Builder

	sb.WriteString(m.renderField(fieldRecordings, strconv.Itoa(len(m.recordings))))

	first := max(0, min(m.cursor-visibleRecordings/2, len(m.recordings)-visibleRecordings))
	last := min(len(m.recordings), first+visibleRecordings)

	for i := first; i < last; i++ {
		rec := m.recordings[i]

		marker := "    "
		if m.focus == fieldRecordings && i == m.cursor {
			marker = "  " + style.Bullet.Render("•") + " "
		}

		sb.WriteString("\n")
		sb.WriteString(marker)
		sb.WriteString(fmt.Sprintf("#%d %s", rec.ID, recordingReference(rec)))
		sb.WriteString(style.Muted.Render(fmt.Sprintf("  %s  %s  %s",
			formatDuration(rec.DurationSeconds), formatWPM(rec.WPM), humanize.Time(rec.DateRecorded))))
	}

	return sb.String()
}

func recordingReference(rec catalog.Recording) string {
	if rec.VerseStart == rec.VerseEnd {
		return fmt.Sprintf("%s %d:%d", rec.BookName, rec.ChapterNumber, rec.VerseStart)
	}

	return fmt.Sprintf("%s %d:%d-%d", rec.BookName, rec.ChapterNumber, rec.VerseStart, rec.VerseEnd)
}

func formatElapsed(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func formatDuration(seconds *float64) string {
	if seconds == nil {
		return "--:--"
	}

	return formatElapsed(int(*seconds + 0.5))
}

func formatWPM(wpm *float64) string {
	if wpm == nil {
		return "– wpm"
	}

	return fmt.Sprintf("%.0f wpm", *wpm)
}

func humanBytes(n int64) string {
	return humanize.Bytes(uint64(max(n, 0)))
}
