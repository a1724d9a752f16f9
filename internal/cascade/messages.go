package cascade

import "github.com/alkime/lectio/internal/catalog"

// Completion is the result of a Fetch. Completions are applied back onto the
// controller with Apply on the thread that owns the selection store.
type Completion interface {
	level() level
	generation() uint64
}

// TranslationsLoaded carries the translation list.
type TranslationsLoaded struct {
	Gen          uint64
	Translations []catalog.Translation
	Err          error
}

// VersionsLoaded carries the text version list.
type VersionsLoaded struct {
	Gen      uint64
	Versions []string
	Err      error
}

// BooksLoaded carries the books of the translation that triggered the request.
type BooksLoaded struct {
	Gen           uint64
	TranslationID int64
	Books         []catalog.Book
	Err           error
}

// ChaptersLoaded carries the chapters of the book that triggered the request.
type ChaptersLoaded struct {
	Gen      uint64
	BookID   int64
	Chapters []catalog.Chapter
	Err      error
}

// PassageResolved carries the verse text for the passage that triggered the
// request. OK is false when the lookup failed; the failure itself is not kept.
type PassageResolved struct {
	Gen     uint64
	Passage catalog.Passage
	Text    string
	OK      bool
}

func (m TranslationsLoaded) level() level      { return levelTranslations }
func (m TranslationsLoaded) generation() uint64 { return m.Gen }
func (m VersionsLoaded) level() level          { return levelVersions }
func (m VersionsLoaded) generation() uint64     { return m.Gen }
func (m BooksLoaded) level() level             { return levelBooks }
func (m BooksLoaded) generation() uint64        { return m.Gen }
func (m ChaptersLoaded) level() level          { return levelChapters }
func (m ChaptersLoaded) generation() uint64     { return m.Gen }
func (m PassageResolved) level() level         { return levelPassage }
func (m PassageResolved) generation() uint64    { return m.Gen }
