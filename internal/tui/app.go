// Package tui is the interactive recording screen: passage selection, the
// recording session and the words-per-minute statistics of a translation.
//
// The Model owns the selection store and the recording session. Every network
// call runs as a tea.Cmd and its result is applied back in Update, so neither
// is touched off the UI loop.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/alkime/lectio/internal/api"
	"github.com/alkime/lectio/internal/audio"
	"github.com/alkime/lectio/internal/cascade"
	"github.com/alkime/lectio/internal/catalog"
	"github.com/alkime/lectio/internal/recording"
	"github.com/alkime/lectio/internal/selection"
	"github.com/alkime/lectio/internal/transcription"
	"github.com/alkime/lectio/internal/tui/components/labeledspinner"
	"github.com/alkime/lectio/internal/tui/components/waveform"
	"github.com/alkime/lectio/internal/tui/style"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// meterWindow is how many recent samples the level meter shows.
	meterWindow   = 4096
	waveformWidth = 48
)

// Dictation transcribes a finished take.
type Dictation interface {
	TranscribeRecording(ctx context.Context, data []byte, mime string) (string, error)
}

// Config holds the collaborators of the recording screen.
type Config struct {
	Backend api.Backend
	Device  recording.Device
	// Encoder wraps uploads and dictation audio. Nil sends raw PCM.
	Encoder recording.Encoder
	// Dictation is optional; without it the dictate key reports that no
	// OpenAI key is configured.
	Dictation Dictation
	// Samples feeds the level meter. Nil allocates a private buffer.
	Samples *audio.SampleRingBuffer
	// AudioPath resolves where fetched recordings are written.
	AudioPath func(filename string) (string, error)
	Logger    *slog.Logger
	Cancel    context.CancelFunc
}

type field int

const (
	fieldTranslation field = iota
	fieldVersion
	fieldBook
	fieldChapter
	fieldVerseStart
	fieldVerseEnd
	fieldRecordings
	fieldCount
)

func (f field) String() string {
	switch f {
	case fieldTranslation:
		return "Translation"
	case fieldVersion:
		return "Version"
	case fieldBook:
		return "Book"
	case fieldChapter:
		return "Chapter"
	case fieldVerseStart:
		return "From verse"
	case fieldVerseEnd:
		return "To verse"
	case fieldRecordings:
		return "Recordings"
	case fieldCount:
	}

	return ""
}

// Model is the recording screen.
type Model struct {
	ctx    context.Context
	config Config
	keys   KeyMap
	logger *slog.Logger

	store    *selection.Store
	cascade  *cascade.Controller
	session  *recording.Session
	samples  *audio.SampleRingBuffer
	waveform waveform.Model
	spinner  labeledspinner.Model

	focus field
	// translationID is the translation whose stats and recordings are shown.
	translationID int64
	summary       *catalog.SummaryStats
	recordings    []catalog.Recording
	cursor        int
	// take counts recordings started so a late dictation cannot land on a
	// newer take.
	take int

	status      string
	statusStyle lipgloss.Style
	width       int
}

// New creates the recording screen. ctx bounds every request the screen
// issues.
func New(ctx context.Context, config Config) *Model {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	if config.Samples == nil {
		config.Samples = audio.NewSampleRingBuffer(meterWindow)
	}

	store := selection.New()
	resolver := transcription.NewResolver(config.Backend, config.Logger)

	return &Model{ //nolint:exhaustruct // stats, recordings and status arrive later
		ctx:     ctx,
		config:  config,
		keys:    DefaultKeyMap(),
		logger:  config.Logger,
		store:   store,
		cascade: cascade.New(store, config.Backend, resolver, config.Logger),
		session: recording.New(config.Device, recording.Config{ //nolint:exhaustruct // wall clock
			Encoder: config.Encoder,
			Logger:  config.Logger,
		}),
		samples:     config.Samples,
		waveform:    waveform.New(audio.NewMeter(config.Samples, meterWindow), waveformWidth, 2),
		spinner:     labeledspinner.New(spinner.Dot, "Uploading", "", ""),
		statusStyle: style.Muted,
		width:       80,
	}
}

// Init loads the translation and version lists.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.run(m.cascade.Load()), tick())
}

// Update handles all messages.
func (m *Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.waveform = m.waveform.SetWidth(min(msg.Width-4, waveformWidth))

		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case cascade.Completion:
		cmd := m.run(m.cascade.Apply(msg))
		return m, tea.Batch(cmd, m.syncTranslation())

	case tickMsg:
		m.drainAudio()
		return m, tick()

	case waveform.TickMsg:
		// the meter animates only while capturing
		if m.session.State() != recording.Recording {
			return m, nil
		}

		var cmd tea.Cmd
		m.waveform, cmd = m.waveform.Update(msg)

		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case statsLoadedMsg:
		m.applyStats(msg)
		return m, nil

	case recordingsLoadedMsg:
		m.applyRecordings(msg)
		return m, nil

	case uploadDoneMsg:
		return m, m.completeUpload(msg)

	case dictatedMsg:
		m.applyDictation(msg)
		return m, nil

	case audioSavedMsg:
		if msg.err != nil {
			m.setError("Failed to fetch audio", msg.err)
			return m, nil
		}

		m.setStatus(fmt.Sprintf("Saved %s to %s (%s)", recordingReference(msg.recording), msg.path, humanBytes(msg.size)), style.Success)

		return m, nil

	case deletedMsg:
		if msg.err != nil {
			m.setError("Failed to delete recording", msg.err)
			return m, nil
		}

		m.setStatus(fmt.Sprintf("Deleted recording #%d", msg.recordingID), style.Success)

		return m, m.reload(m.translationID)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.ForceQuit), key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Next):
		m.focus = (m.focus + 1) % fieldCount
	case key.Matches(msg, m.keys.Prev):
		m.focus = (m.focus + fieldCount - 1) % fieldCount
	case key.Matches(msg, m.keys.Left):
		return m.adjust(-1)
	case key.Matches(msg, m.keys.Right):
		return m.adjust(1)

	case key.Matches(msg, m.keys.Start):
		return m.startRecording()
	case key.Matches(msg, m.keys.Stop):
		m.stopRecording()
	case key.Matches(msg, m.keys.Upload):
		return m.upload()
	case key.Matches(msg, m.keys.Dictate):
		return m.dictate()
	case key.Matches(msg, m.keys.Play):
		return m.fetchAudio()
	case key.Matches(msg, m.keys.Delete):
		return m.deleteRecording()
	}

	return nil
}

func (m *Model) quit() tea.Cmd {
	if err := m.session.Close(m.ctx); err != nil {
		m.logger.Warn("failed to release capture device", "error", err)
	}

	if m.config.Cancel != nil {
		m.config.Cancel()
	}

	return tea.Quit
}

// run turns cascade fetches into commands. The completions come back through
// Update.
func (m *Model) run(fetches []cascade.Fetch) tea.Cmd {
	if len(fetches) == 0 {
		return nil
	}

	ctx := m.ctx
	cmds := make([]tea.Cmd, 0, len(fetches))

	for _, fetch := range fetches {
		cmds = append(cmds, func() tea.Msg {
			return fetch(ctx)
		})
	}

	return tea.Batch(cmds...)
}

// adjust moves the focused field one step. Lists stop at their ends.
func (m *Model) adjust(delta int) tea.Cmd {
	var (
		fetches []cascade.Fetch
		err     error
	)

	sel := m.store.Selection()

	switch m.focus {
	case fieldTranslation:
		next, ok := step(m.store.Translations(), func(t catalog.Translation) bool { return t.ID == sel.TranslationID }, delta)
		if !ok {
			return nil
		}

		fetches, err = m.cascade.SetTranslation(next.ID)

	case fieldVersion:
		current := m.store.Version()

		next, ok := step(m.store.Versions(), func(v string) bool { return v == current }, delta)
		if !ok {
			return nil
		}

		fetches, err = m.cascade.SetVersion(next)

	case fieldBook:
		next, ok := step(m.store.Books(), func(b catalog.Book) bool { return b.ID == sel.BookID }, delta)
		if !ok {
			return nil
		}

		fetches, err = m.cascade.SetBook(next.ID)

	case fieldChapter:
		next, ok := step(m.store.Chapters(), func(c catalog.Chapter) bool { return c.ID == sel.ChapterID }, delta)
		if !ok {
			return nil
		}

		fetches, err = m.cascade.SetChapter(next.ID)

	case fieldVerseStart:
		if sel.ChapterID == 0 {
			return nil
		}

		fetches, err = m.cascade.SetVerseRange(sel.VerseStart+delta, sel.VerseEnd)

	case fieldVerseEnd:
		if sel.ChapterID == 0 {
			return nil
		}

		fetches, err = m.cascade.SetVerseRange(sel.VerseStart, sel.VerseEnd+delta)

	case fieldRecordings:
		if len(m.recordings) > 0 {
			m.cursor = min(max(m.cursor+delta, 0), len(m.recordings)-1)
		}

		return nil

	case fieldCount:
		return nil
	}

	if err != nil {
		m.setError("Invalid selection", err)
		return nil
	}

	return tea.Batch(m.run(fetches), m.syncTranslation())
}

// step returns the item delta positions away from the one matching current.
// With nothing selected the first item is returned.
func step[T any](items []T, current func(T) bool, delta int) (T, bool) {
	var zero T

	if len(items) == 0 {
		return zero, false
	}

	idx := slices.IndexFunc(items, current)
	if idx < 0 {
		return items[0], true
	}

	next := min(max(idx+delta, 0), len(items)-1)
	if next == idx {
		return zero, false
	}

	return items[next], true
}

// syncTranslation reloads statistics and recordings when the selected
// translation has changed since they were last requested.
func (m *Model) syncTranslation() tea.Cmd {
	id := m.store.Selection().TranslationID
	if id == m.translationID {
		return nil
	}

	m.translationID = id
	m.summary = nil
	m.recordings = nil
	m.cursor = 0

	return m.reload(id)
}

func (m *Model) reload(translationID int64) tea.Cmd {
	if translationID == 0 {
		return nil
	}

	ctx := m.ctx
	backend := m.config.Backend

	return tea.Batch(
		func() tea.Msg {
			s, err := backend.FetchSummaryStats(ctx, translationID)
			return statsLoadedMsg{translationID: translationID, stats: s, err: err}
		},
		func() tea.Msg {
			rs, err := backend.ListRecordings(ctx, translationID)
			return recordingsLoadedMsg{translationID: translationID, recordings: rs, err: err}
		},
	)
}

func (m *Model) applyStats(msg statsLoadedMsg) {
	if msg.translationID != m.translationID {
		m.logger.Debug("discarding stats for previous translation", "translation", msg.translationID)
		return
	}

	if msg.err != nil {
		m.logger.Error("failed to load statistics", "translation", msg.translationID, "error", msg.err)
		m.summary = nil

		return
	}

	m.summary = &msg.stats
}

func (m *Model) applyRecordings(msg recordingsLoadedMsg) {
	if msg.translationID != m.translationID {
		m.logger.Debug("discarding recordings for previous translation", "translation", msg.translationID)
		return
	}

	if msg.err != nil {
		m.logger.Error("failed to list recordings", "translation", msg.translationID, "error", msg.err)
		return
	}

	m.recordings = msg.recordings
	m.cursor = min(m.cursor, max(len(m.recordings)-1, 0))
}

func (m *Model) startRecording() tea.Cmd {
	if err := m.session.Start(m.ctx); err != nil {
		m.setError("Cannot start recording", err)
		return nil
	}

	m.take++
	m.samples.Reset()
	m.setStatus("Recording "+m.store.Snapshot().Reference(), style.Title)

	return m.waveform.Init()
}

func (m *Model) stopRecording() {
	if m.session.State() != recording.Recording {
		return
	}

	err := m.session.Stop(m.ctx)
	m.feedMeter(m.session.Drain())

	if err != nil {
		m.setError("Stopped with errors", err)
		return
	}

	m.setStatus(fmt.Sprintf("Stopped after %s (%s)", formatElapsed(m.session.ElapsedSeconds()), humanBytes(int64(m.session.Bytes()))), style.Warning)
}

func (m *Model) drainAudio() {
	m.feedMeter(m.session.Drain())
}

func (m *Model) feedMeter(chunks [][]byte) {
	for _, chunk := range chunks {
		m.samples.WritePCM(chunk)
	}
}

func (m *Model) upload() tea.Cmd {
	payload, err := m.session.BeginUpload(m.store.Snapshot())
	if err != nil {
		m.setError("Cannot upload", err)
		return nil
	}

	subtitle := m.store.Snapshot().Reference()
	if subtitle == "" {
		subtitle = humanBytes(int64(len(payload.Audio)))
	}

	var spin tea.Cmd
	m.spinner, spin = m.spinner.Start(subtitle)

	m.setStatus("", style.Muted)

	ctx := m.ctx
	backend := m.config.Backend

	return tea.Batch(spin, func() tea.Msg {
		id, err := backend.SubmitRecording(ctx, payload)
		return uploadDoneMsg{recordingID: id, err: err}
	})
}

func (m *Model) completeUpload(msg uploadDoneMsg) tea.Cmd {
	m.session.CompleteUpload(msg.err)
	m.spinner = m.spinner.Stop()

	if msg.err != nil {
		m.setError("Upload failed (press u to retry)", msg.err)
		return nil
	}

	m.setStatus(fmt.Sprintf("Uploaded recording #%d", msg.recordingID), style.Success)

	return m.reload(m.translationID)
}

func (m *Model) dictate() tea.Cmd {
	if m.config.Dictation == nil {
		m.setStatus("Dictation unavailable: no OpenAI API key configured", style.Warning)
		return nil
	}

	if m.session.State() == recording.Recording {
		m.setStatus("Stop recording before dictating", style.Warning)
		return nil
	}

	chunks := m.session.Chunks()
	if len(chunks) == 0 {
		m.setStatus("Record something before dictating", style.Warning)
		return nil
	}

	ctx := m.ctx
	take := m.take
	encoder := m.config.Encoder
	dictation := m.config.Dictation

	m.setStatus("Dictating...", style.Muted)

	return func() tea.Msg {
		data, mime, err := encodeChunks(encoder, chunks)
		if err != nil {
			return dictatedMsg{take: take, err: err}
		}

		text, err := dictation.TranscribeRecording(ctx, data, mime)

		return dictatedMsg{take: take, text: text, err: err}
	}
}

func (m *Model) applyDictation(msg dictatedMsg) {
	if msg.take != m.take {
		m.logger.Debug("discarding dictation for previous take", "take", msg.take)
		return
	}

	if msg.err != nil {
		m.setError("Dictation failed", msg.err)
		return
	}

	m.store.SetTranscription(msg.text)
	m.setStatus("Dictation ready", style.Success)
}

func encodeChunks(encoder recording.Encoder, chunks [][]byte) ([]byte, string, error) {
	if encoder != nil {
		data, mime, err := encoder.Encode(chunks)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode dictation: %w", err)
		}

		return data, mime, nil
	}

	var data []byte
	for _, c := range chunks {
		data = append(data, c...)
	}

	return data, recording.MIMERawPCM, nil
}

func (m *Model) selectedRecording() (catalog.Recording, bool) {
	if m.cursor < 0 || m.cursor >= len(m.recordings) {
		return catalog.Recording{}, false //nolint:exhaustruct // empty
	}

	return m.recordings[m.cursor], true
}

func (m *Model) fetchAudio() tea.Cmd {
	rec, ok := m.selectedRecording()
	if !ok {
		m.setStatus("No recording selected", style.Warning)
		return nil
	}

	if m.config.AudioPath == nil {
		m.setStatus("No audio directory configured", style.Warning)
		return nil
	}

	ctx := m.ctx
	backend := m.config.Backend
	audioPath := m.config.AudioPath

	return func() tea.Msg {
		path, n, err := saveAudio(ctx, backend, audioPath, rec.ID)
		return audioSavedMsg{recording: rec, path: path, size: n, err: err}
	}
}

func saveAudio(
	ctx context.Context,
	backend api.Backend,
	audioPath func(string) (string, error),
	recordingID int64,
) (string, int64, error) {
	body, mime, err := backend.FetchAudio(ctx, recordingID)
	if err != nil {
		return "", 0, err
	}
	defer body.Close()

	path, err := audioPath(fmt.Sprintf("recording-%d%s", recordingID, catalog.AudioExtension(mime)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to resolve audio path: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create audio file: %w", err)
	}

	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return "", 0, fmt.Errorf("failed to write audio file: %w", err)
	}

	return path, n, nil
}

func (m *Model) deleteRecording() tea.Cmd {
	rec, ok := m.selectedRecording()
	if !ok {
		m.setStatus("No recording selected", style.Warning)
		return nil
	}

	ctx := m.ctx
	backend := m.config.Backend

	return func() tea.Msg {
		return deletedMsg{recordingID: rec.ID, err: backend.DeleteRecording(ctx, rec.ID)}
	}
}

func (m *Model) setStatus(status string, s lipgloss.Style) {
	m.status = status
	m.statusStyle = s
}

func (m *Model) setError(prefix string, err error) {
	m.logger.Warn(prefix, "error", err)

	msg := err.Error()
	if errors.Is(err, api.ErrUnauthorized) {
		msg = "not authorized, check LECTIO_API_TOKEN"
	}

	m.setStatus(prefix+": "+msg, style.Error)
}
