package cascade_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/alkime/lectio/internal/cascade"
	"github.com/alkime/lectio/internal/catalog"
	"github.com/alkime/lectio/internal/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	mu       sync.Mutex
	books    map[int64][]catalog.Book
	chapters map[int64][]catalog.Chapter
	calls    []string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		books: map[int64][]catalog.Book{
			1: {{ID: 10, DisplayName: "Genesis"}, {ID: 11, DisplayName: "Exodus"}},
			2: {{ID: 20, DisplayName: "Matthew"}},
		},
		chapters: map[int64][]catalog.Chapter{
			10: {{ID: 100, Number: 1, DisplayName: "Genesis 1", VerseCount: 31}},
			11: {{ID: 110, Number: 1, DisplayName: "Exodus 1", VerseCount: 22}},
			20: {{ID: 200, Number: 1, DisplayName: "Matthew 1", VerseCount: 25}},
		},
	}
}

func (f *fakeCatalog) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeCatalog) ListTranslations(_ context.Context) ([]catalog.Translation, error) {
	f.record("translations")
	return []catalog.Translation{
		{ID: 1, Name: "Reina", Language: "Spanish", Version: "RV"},
		{ID: 2, Name: "Louis Segond", Language: "French", Version: "LSG"},
	}, nil
}

func (f *fakeCatalog) ListVersions(_ context.Context) ([]string, error) {
	f.record("versions")
	return []string{"KJV", "WEB"}, nil
}

func (f *fakeCatalog) ListBooks(_ context.Context, translationID int64) ([]catalog.Book, error) {
	f.record(fmt.Sprintf("books:%d", translationID))
	return f.books[translationID], nil
}

func (f *fakeCatalog) ListChapters(_ context.Context, bookID int64) ([]catalog.Chapter, error) {
	f.record(fmt.Sprintf("chapters:%d", bookID))
	return f.chapters[bookID], nil
}

type fakeResolver struct {
	text string
	ok   bool
}

func (f fakeResolver) Resolve(_ context.Context, p catalog.Passage) (string, bool) {
	if !f.ok {
		return "", false
	}

	return fmt.Sprintf("%s %s %d:%d-%d", f.text, p.BookName, p.ChapterNumber, p.VerseStart, p.VerseEnd), true
}

// settle runs fetches and applies their completions until nothing is pending.
func settle(t *testing.T, c *cascade.Controller, fetches []cascade.Fetch) {
	t.Helper()

	for len(fetches) > 0 {
		next := fetches[0]
		fetches = fetches[1:]
		fetches = append(fetches, c.Apply(next(context.Background()))...)
	}
}

func run(fetches []cascade.Fetch) []cascade.Completion {
	out := make([]cascade.Completion, 0, len(fetches))
	for _, f := range fetches {
		out = append(out, f(context.Background()))
	}

	return out
}

func loaded(t *testing.T, resolver cascade.PassageResolver) *cascade.Controller {
	t.Helper()

	c := cascade.New(selection.New(), newFakeCatalog(), resolver, nil)
	settle(t, c, c.Load())

	return c
}

func TestController_LoadAutoSelectsFirstOfEachLevel(t *testing.T) {
	t.Parallel()

	c := loaded(t, fakeResolver{text: "verse", ok: true})
	store := c.Store()

	assert.Equal(t, selection.Selection{
		TranslationID: 1,
		BookID:        10,
		ChapterID:     100,
		VerseStart:    1,
		VerseEnd:      1,
	}, store.Selection())
	assert.Equal(t, "KJV", store.Version())
	assert.Equal(t, "verse Genesis 1:1-1", store.Transcription())
}

func TestController_OutOfOrderChapterCompletion(t *testing.T) {
	t.Parallel()

	c := loaded(t, fakeResolver{text: "verse", ok: true})

	// B1 then B2 quickly; B1's chapters arrive last
	first, err := c.SetBook(11)
	require.NoError(t, err)
	second, err := c.SetBook(10)
	require.NoError(t, err)

	late := run(first)
	fresh := run(second)

	settle(t, c, c.Apply(fresh[0]))
	assert.Nil(t, c.Apply(late[0]))

	store := c.Store()
	require.Len(t, store.Chapters(), 1)
	assert.Equal(t, int64(100), store.Chapters()[0].ID)
	assert.Equal(t, int64(100), store.Selection().ChapterID)
}

func TestController_TranslationChangeClearsChildrenBeforeRequest(t *testing.T) {
	t.Parallel()

	c := loaded(t, fakeResolver{text: "verse", ok: true})

	fetches, err := c.SetTranslation(2)
	require.NoError(t, err)
	require.Len(t, fetches, 1)

	// nothing has run yet; children must already be gone
	sel := c.Store().Selection()
	assert.Equal(t, int64(2), sel.TranslationID)
	assert.Zero(t, sel.BookID)
	assert.Zero(t, sel.ChapterID)
	assert.Zero(t, sel.VerseStart)
	assert.Zero(t, sel.VerseEnd)
	assert.Empty(t, c.Store().Books())
	assert.Empty(t, c.Store().Chapters())

	settle(t, c, fetches)
	assert.Equal(t, int64(20), c.Store().Selection().BookID)
	assert.Equal(t, int64(200), c.Store().Selection().ChapterID)
}

func TestController_StaleBooksAfterTranslationChange(t *testing.T) {
	t.Parallel()

	c := loaded(t, fakeResolver{text: "verse", ok: true})

	toTwo, err := c.SetTranslation(2)
	require.NoError(t, err)
	toOne, err := c.SetTranslation(1)
	require.NoError(t, err)

	stale := run(toTwo)
	assert.Nil(t, c.Apply(stale[0]))
	assert.Empty(t, c.Store().Books())

	settle(t, c, toOne)
	assert.Equal(t, int64(10), c.Store().Selection().BookID)
}

func TestController_StalePassageDiscarded(t *testing.T) {
	t.Parallel()

	c := loaded(t, fakeResolver{text: "verse", ok: true})

	first, err := c.SetVerseRange(1, 3)
	require.NoError(t, err)
	second, err := c.SetVerseRange(4, 6)
	require.NoError(t, err)

	old := run(first)
	current := run(second)

	c.Apply(current[0])
	c.Apply(old[0])

	assert.Equal(t, "verse Genesis 1:4-6", c.Store().Transcription())
}

func TestController_FailedLookupLeavesTranscription(t *testing.T) {
	t.Parallel()

	c := loaded(t, fakeResolver{text: "verse", ok: true})
	c.Store().SetTranscription("typed by hand")

	failing := cascade.New(c.Store(), newFakeCatalog(), fakeResolver{ok: false}, nil)
	fetches, err := failing.SetVerseRange(2, 2)
	require.NoError(t, err)
	settle(t, failing, fetches)

	assert.Equal(t, "typed by hand", c.Store().Transcription())
}

func TestController_VerseRangeClamped(t *testing.T) {
	t.Parallel()

	c := loaded(t, fakeResolver{text: "verse", ok: true})

	fetches, err := c.SetVerseRange(40, 2)
	require.NoError(t, err)
	settle(t, c, fetches)

	sel := c.Store().Selection()
	assert.Equal(t, 31, sel.VerseStart)
	assert.Equal(t, 31, sel.VerseEnd)
}

func TestController_RejectsUnknownValues(t *testing.T) {
	t.Parallel()

	c := loaded(t, fakeResolver{text: "verse", ok: true})
	before := c.Store().Snapshot()

	_, err := c.SetBook(99)
	require.ErrorIs(t, err, selection.ErrInvalidSelection)

	_, err = c.SetVersion("NIV")
	require.ErrorIs(t, err, selection.ErrInvalidSelection)

	assert.Equal(t, before, c.Store().Snapshot())
}

func TestController_ListErrorsAreLoggedNotApplied(t *testing.T) {
	t.Parallel()

	c := cascade.New(selection.New(), newFakeCatalog(), fakeResolver{}, nil)
	fetches := c.Load()
	require.Len(t, fetches, 2)

	// substitute a failed translations response with the same generation
	done, ok := fetches[0](context.Background()).(cascade.TranslationsLoaded)
	require.True(t, ok)
	done.Translations = nil
	done.Err = errors.New("boom")

	assert.Nil(t, c.Apply(done))
	assert.Empty(t, c.Store().Translations())
}

func TestController_ReloadKeepsSelection(t *testing.T) {
	t.Parallel()

	c := loaded(t, fakeResolver{text: "verse", ok: true})
	before := c.Store().Selection()

	settle(t, c, c.Load())

	assert.Equal(t, before, c.Store().Selection())
}
