package tui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alkime/lectio/internal/api"
	"github.com/alkime/lectio/internal/catalog"
	"github.com/alkime/lectio/internal/recording"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// outputChecker provides helpers for testing teatest output.
type outputChecker struct {
	intervl, timeout time.Duration
}

func defaultChecker() outputChecker {
	return outputChecker{
		intervl: 100 * time.Millisecond,
		timeout: 3 * time.Second,
	}
}

func (o outputChecker) check(t *testing.T, tm *teatest.TestModel, checkFunc func(buf []byte) bool) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), checkFunc,
		teatest.WithCheckInterval(o.intervl),
		teatest.WithDuration(o.timeout))
}

func (o outputChecker) checkString(t *testing.T, tm *teatest.TestModel, substr string) {
	t.Helper()
	o.check(t, tm, func(buf []byte) bool {
		return bytes.Contains(buf, []byte(substr))
	})
}

const genesisText = "1 In the beginning God created the heaven and the earth."

// fakeBackend serves a two-translation catalog. It is called from command
// goroutines.
type fakeBackend struct {
	mu sync.Mutex

	submitErrs    []error
	submissions   []catalog.Submission
	deleted       []int64
	statsRequests []int64
	recordings    []catalog.Recording
}

func (f *fakeBackend) ListTranslations(_ context.Context) ([]catalog.Translation, error) {
	return []catalog.Translation{
		{ID: 1, Name: "Sample Bible", Language: "English", Version: "KJV"},
		{ID: 2, Name: "Vulgate", Language: "Latin", Version: "VUL"},
	}, nil
}

func (f *fakeBackend) ListVersions(_ context.Context) ([]string, error) {
	return []string{"KJV", "WEB"}, nil
}

func (f *fakeBackend) ListBooks(_ context.Context, translationID int64) ([]catalog.Book, error) {
	if translationID == 2 {
		return []catalog.Book{{ID: 20, DisplayName: "Psalms"}}, nil
	}

	return []catalog.Book{{ID: 10, DisplayName: "Genesis"}, {ID: 11, DisplayName: "Exodus"}}, nil
}

func (f *fakeBackend) ListChapters(_ context.Context, bookID int64) ([]catalog.Chapter, error) {
	return []catalog.Chapter{{ID: bookID * 10, Number: 1, DisplayName: "1", VerseCount: 5}}, nil
}

func (f *fakeBackend) FetchVerseText(_ context.Context, passage catalog.Passage) (string, error) {
	if passage.BookName == "Genesis" {
		return genesisText, nil
	}

	return "", api.ErrNotFound
}

func (f *fakeBackend) FetchSummaryStats(_ context.Context, translationID int64) (catalog.SummaryStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.statsRequests = append(f.statsRequests, translationID)

	n := int(translationID) * 2

	return catalog.SummaryStats{
		Count:  n,
		Min:    100,
		Max:    180,
		Mean:   140,
		Median: 138,
		Q1:     120,
		Q3:     160,
		Histogram: []catalog.HistogramBucket{
			{LowerBound: 100, Count: 1},
			{LowerBound: 140, Count: n - 1},
		},
	}, nil
}

func (f *fakeBackend) SubmitRecording(_ context.Context, sub catalog.Submission) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.submissions = append(f.submissions, sub)

	if len(f.submitErrs) > 0 {
		err := f.submitErrs[0]
		f.submitErrs = f.submitErrs[1:]

		return 0, err
	}

	return 7, nil
}

func (f *fakeBackend) ListRecordings(_ context.Context, translationID int64) ([]catalog.Recording, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if translationID != 1 {
		return nil, nil
	}

	return append([]catalog.Recording(nil), f.recordings...), nil
}

func (f *fakeBackend) UpdateRecording(_ context.Context, _ int64, _ api.RecordingUpdate) error {
	return nil
}

func (f *fakeBackend) FetchAudio(_ context.Context, _ int64) (io.ReadCloser, string, error) {
	return io.NopCloser(strings.NewReader("ID3audio")), "audio/mpeg", nil
}

func (f *fakeBackend) DeleteRecording(_ context.Context, recordingID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deleted = append(f.deleted, recordingID)

	return nil
}

func (f *fakeBackend) DownloadArchive(_ context.Context, _ int64) (io.ReadCloser, error) {
	return nil, errors.New("not supported")
}

func (f *fakeBackend) snapshot() ([]catalog.Submission, []int64, []int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]catalog.Submission(nil), f.submissions...),
		append([]int64(nil), f.deleted...),
		append([]int64(nil), f.statsRequests...)
}

// fakeDevice delivers a fixed set of packets on every acquisition.
type fakeDevice struct {
	mu       sync.Mutex
	packets  [][]byte
	err      error
	ch       chan []byte
	acquired int
	released int
}

func (d *fakeDevice) Acquire(_ context.Context) (<-chan []byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return nil, d.err
	}

	d.ch = make(chan []byte, len(d.packets))
	for _, p := range d.packets {
		d.ch <- p
	}

	d.acquired++

	return d.ch, nil
}

func (d *fakeDevice) Release(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	close(d.ch)
	d.released++

	return nil
}

func (d *fakeDevice) counts() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.acquired, d.released
}

func newTestModel(t *testing.T, backend *fakeBackend, device *fakeDevice) *Model {
	t.Helper()

	dir := t.TempDir()

	return New(context.Background(), Config{ //nolint:exhaustruct // no encoder or dictation
		Backend: backend,
		Device:  device,
		AudioPath: func(filename string) (string, error) {
			return filepath.Join(dir, filename), nil
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func quit(t *testing.T, tm *teatest.TestModel) {
	t.Helper()

	tm.Send(keyRunes("q"))
	tm.WaitFinished(t, teatest.WithFinalTimeout(3*time.Second))
}

func TestModel_LoadsCascade(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	tm := teatest.NewTestModel(t, newTestModel(t, backend, &fakeDevice{}), teatest.WithInitialTermSize(200, 80))

	checker := defaultChecker()
	checker.check(t, tm, func(buf []byte) bool {
		return bytes.Contains(buf, []byte("Sample Bible (English)")) &&
			bytes.Contains(buf, []byte("In the beginning"))
	})

	quit(t, tm)

	m, ok := tm.FinalModel(t).(*Model)
	require.True(t, ok)

	snap := m.store.Snapshot()
	assert.Equal(t, int64(1), snap.TranslationID)
	assert.Equal(t, int64(10), snap.BookID)
	assert.Equal(t, int64(100), snap.ChapterID)
	assert.Equal(t, "KJV", snap.Version)
	assert.Equal(t, genesisText, snap.Transcription)
	assert.Equal(t, "Genesis 1:1", snap.Reference())
}

func TestModel_RecordAndUpload(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	device := &fakeDevice{packets: [][]byte{{1, 0, 2, 0}, {3, 0, 4, 0}}}
	tm := teatest.NewTestModel(t, newTestModel(t, backend, device), teatest.WithInitialTermSize(200, 80))

	checker := defaultChecker()
	checker.checkString(t, tm, "In the beginning")

	tm.Send(keyRunes("r"))
	checker.checkString(t, tm, "REC")

	tm.Send(keyRunes("s"))
	checker.checkString(t, tm, "Stopped after")

	tm.Send(keyRunes("u"))
	checker.checkString(t, tm, "Uploaded recording #7")

	quit(t, tm)

	submissions, _, statsRequests := backend.snapshot()
	require.Len(t, submissions, 1)

	sub := submissions[0]
	assert.Equal(t, int64(1), sub.TranslationID)
	assert.Equal(t, int64(100), sub.ChapterID)
	assert.Equal(t, 1, sub.VerseStart)
	assert.Equal(t, 1, sub.VerseEnd)
	assert.Equal(t, genesisText, sub.TranscriptionText)
	assert.Equal(t, []byte{1, 0, 2, 0, 3, 0, 4, 0}, sub.Audio)
	assert.Equal(t, recording.MIMERawPCM, sub.AudioMIME)

	// loaded once for the translation, again after the upload
	assert.GreaterOrEqual(t, len(statsRequests), 2)

	acquired, released := device.counts()
	assert.Equal(t, 1, acquired)
	assert.Equal(t, 1, released)
}

func TestModel_UploadRetryReusesPayload(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{submitErrs: []error{errors.New("connection reset")}}
	device := &fakeDevice{packets: [][]byte{{9, 9}}}
	tm := teatest.NewTestModel(t, newTestModel(t, backend, device), teatest.WithInitialTermSize(200, 80))

	checker := defaultChecker()
	checker.checkString(t, tm, "In the beginning")

	tm.Send(keyRunes("r"))
	checker.checkString(t, tm, "REC")
	tm.Send(keyRunes("s"))
	checker.checkString(t, tm, "Stopped after")

	tm.Send(keyRunes("u"))
	checker.checkString(t, tm, "Upload failed (press u to retry): connection reset")

	// moving the selection does not change the retried payload
	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	tm.Send(tea.KeyMsg{Type: tea.KeyTab})
	tm.Send(tea.KeyMsg{Type: tea.KeyRight})
	checker.checkString(t, tm, "Exodus")

	tm.Send(keyRunes("u"))
	checker.checkString(t, tm, "Uploaded recording #7")

	quit(t, tm)

	submissions, _, _ := backend.snapshot()
	require.Len(t, submissions, 2)
	assert.Equal(t, submissions[0], submissions[1])
	assert.Equal(t, int64(100), submissions[1].ChapterID)
}

func TestModel_DeviceUnavailable(t *testing.T) {
	t.Parallel()

	device := &fakeDevice{err: errors.New("no microphone")}
	tm := teatest.NewTestModel(t, newTestModel(t, &fakeBackend{}, device), teatest.WithInitialTermSize(200, 80))

	checker := defaultChecker()
	checker.checkString(t, tm, "In the beginning")

	tm.Send(keyRunes("r"))
	checker.checkString(t, tm, "capture device unavailable")

	quit(t, tm)

	m, ok := tm.FinalModel(t).(*Model)
	require.True(t, ok)
	assert.Equal(t, recording.Idle, m.session.State())
}

func TestModel_TranslationChangeReloadsStats(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{}
	tm := teatest.NewTestModel(t, newTestModel(t, backend, &fakeDevice{}), teatest.WithInitialTermSize(200, 80))

	checker := defaultChecker()
	checker.checkString(t, tm, "n=2")

	tm.Send(tea.KeyMsg{Type: tea.KeyRight})
	checker.check(t, tm, func(buf []byte) bool {
		return bytes.Contains(buf, []byte("Psalms")) && bytes.Contains(buf, []byte("n=4"))
	})

	quit(t, tm)

	_, _, statsRequests := backend.snapshot()
	assert.Contains(t, statsRequests, int64(1))
	assert.Contains(t, statsRequests, int64(2))
}

func TestModel_SaveAndDeleteRecording(t *testing.T) {
	t.Parallel()

	wpm := 142.0
	duration := 42.0
	backend := &fakeBackend{recordings: []catalog.Recording{{
		ID:              3,
		BookName:        "Genesis",
		ChapterNumber:   1,
		VerseStart:      1,
		VerseEnd:        2,
		DateRecorded:    time.Now().Add(-time.Hour),
		DurationSeconds: &duration,
		WPM:             &wpm,
	}}}

	model := newTestModel(t, backend, &fakeDevice{})
	tm := teatest.NewTestModel(t, model, teatest.WithInitialTermSize(200, 80))

	checker := defaultChecker()
	checker.checkString(t, tm, "#3 Genesis 1:1-2")

	tm.Send(tea.KeyMsg{Type: tea.KeyShiftTab})
	tm.Send(keyRunes("p"))
	checker.checkString(t, tm, "Saved Genesis 1:1-2")

	tm.Send(keyRunes("x"))
	checker.checkString(t, tm, "Deleted recording #3")

	quit(t, tm)

	_, deleted, _ := backend.snapshot()
	assert.Equal(t, []int64{3}, deleted)

	path, err := model.config.AudioPath("recording-3.mp3")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ID3audio", string(data))
}

func TestModel_DiscardsStatsForPreviousTranslation(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, &fakeBackend{}, &fakeDevice{})
	m.translationID = 2

	m.Update(statsLoadedMsg{translationID: 1, stats: catalog.SummaryStats{Count: 9}}) //nolint:exhaustruct // test
	assert.Nil(t, m.summary)

	m.Update(recordingsLoadedMsg{translationID: 1, recordings: []catalog.Recording{{ID: 1}}}) //nolint:exhaustruct // test
	assert.Empty(t, m.recordings)

	m.Update(statsLoadedMsg{translationID: 2, stats: catalog.SummaryStats{Count: 3}}) //nolint:exhaustruct // test
	require.NotNil(t, m.summary)
	assert.Equal(t, 3, m.summary.Count)
	assert.Contains(t, m.View(), "n=3")
}

func TestModel_Dictation(t *testing.T) {
	t.Parallel()

	t.Run("unavailable without key", func(t *testing.T) {
		t.Parallel()

		m := newTestModel(t, &fakeBackend{}, &fakeDevice{})
		m.Update(keyRunes("t"))

		assert.Contains(t, m.status, "Dictation unavailable")
	})

	t.Run("late result for previous take is dropped", func(t *testing.T) {
		t.Parallel()

		m := newTestModel(t, &fakeBackend{}, &fakeDevice{})
		m.take = 2

		m.Update(dictatedMsg{take: 1, text: "old take"}) //nolint:exhaustruct // test
		assert.Empty(t, m.store.Transcription())

		m.Update(dictatedMsg{take: 2, text: "current take"}) //nolint:exhaustruct // test
		assert.Equal(t, "current take", m.store.Transcription())
	})

	t.Run("failure keeps transcription", func(t *testing.T) {
		t.Parallel()

		m := newTestModel(t, &fakeBackend{}, &fakeDevice{})
		m.store.SetTranscription("typed")

		m.Update(dictatedMsg{take: 0, err: errors.New("quota exceeded")}) //nolint:exhaustruct // test
		assert.Equal(t, "typed", m.store.Transcription())
		assert.Contains(t, m.status, "quota exceeded")
	})
}

func TestModel_UploadWithoutRecording(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, &fakeBackend{}, &fakeDevice{})
	m.Update(keyRunes("u"))

	assert.Contains(t, m.status, "Cannot upload")
	assert.Equal(t, recording.Idle, m.session.State())
}

func TestStep(t *testing.T) {
	t.Parallel()

	items := []string{"a", "b", "c"}
	is := func(want string) func(string) bool {
		return func(s string) bool { return s == want }
	}

	tests := []struct {
		name    string
		current string
		delta   int
		want    string
		wantOK  bool
	}{
		{name: "forward", current: "a", delta: 1, want: "b", wantOK: true},
		{name: "backward", current: "c", delta: -1, want: "b", wantOK: true},
		{name: "stops at end", current: "c", delta: 1, want: "", wantOK: false},
		{name: "stops at start", current: "a", delta: -1, want: "", wantOK: false},
		{name: "nothing selected", current: "z", delta: 1, want: "a", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := step(items, is(tt.current), tt.delta)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := step([]string(nil), is("a"), 1)
	assert.False(t, ok)
}
