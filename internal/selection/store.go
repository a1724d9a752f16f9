// Package selection holds the user's current translation, book, chapter and
// verse range choice together with the option lists and metadata caches
// those choices are validated against.
//
// A Store has no I/O and no locking: it is owned by a single logical thread
// (the UI update loop) and every mutation goes through a setter that enforces
// the cascade invariants.
package selection

import (
	"errors"
	"fmt"

	"github.com/alkime/lectio/internal/catalog"
)

// ErrInvalidSelection is returned when a value is not among the currently
// loaded options of its parent level.
var ErrInvalidSelection = errors.New("invalid selection")

// Selection is the chosen translation, book, chapter and verse range.
// Zero ids mean "unset".
type Selection struct {
	TranslationID int64
	BookID        int64
	ChapterID     int64
	VerseStart    int
	VerseEnd      int
}

// BookMeta is cached per book id.
type BookMeta struct {
	DisplayName string
}

// ChapterMeta is cached per chapter id.
type ChapterMeta struct {
	Number      int
	DisplayName string
	VerseCount  int
}

// Store is the selection state holder.
type Store struct {
	sel           Selection
	version       string
	transcription string

	translations []catalog.Translation
	versions     []string
	books        []catalog.Book
	chapters     []catalog.Chapter

	bookMeta    map[int64]BookMeta
	chapterMeta map[int64]ChapterMeta
}

// New creates an empty store.
func New() *Store {
	return &Store{ //nolint:exhaustruct // zero selection is the initial state
		bookMeta:    make(map[int64]BookMeta),
		chapterMeta: make(map[int64]ChapterMeta),
	}
}

// SetTranslations replaces the list of selectable translations.
// The current translation is cleared (with its children) if it is no longer listed.
func (s *Store) SetTranslations(translations []catalog.Translation) {
	s.translations = append([]catalog.Translation(nil), translations...)

	if s.sel.TranslationID != 0 && !s.hasTranslation(s.sel.TranslationID) {
		s.sel = Selection{} //nolint:exhaustruct // reset
		s.books = nil
		s.chapters = nil
	}
}

// SetVersions replaces the list of selectable text versions.
func (s *Store) SetVersions(versions []string) {
	s.versions = append([]string(nil), versions...)

	if s.version != "" && !contains(s.versions, s.version) {
		s.version = ""
	}
}

// SetBooks loads the book options for translationID and caches their metadata.
// It fails if translationID is not the current translation.
func (s *Store) SetBooks(translationID int64, books []catalog.Book) error {
	if translationID == 0 || translationID != s.sel.TranslationID {
		return fmt.Errorf("%w: books for translation %d but %d is selected",
			ErrInvalidSelection, translationID, s.sel.TranslationID)
	}

	s.books = append([]catalog.Book(nil), books...)
	for _, b := range books {
		if _, ok := s.bookMeta[b.ID]; !ok {
			s.bookMeta[b.ID] = BookMeta{DisplayName: b.DisplayName}
		}
	}

	return nil
}

// SetChapters loads the chapter options for bookID and caches their metadata.
// It fails if bookID is not the current book.
func (s *Store) SetChapters(bookID int64, chapters []catalog.Chapter) error {
	if bookID == 0 || bookID != s.sel.BookID {
		return fmt.Errorf("%w: chapters for book %d but %d is selected",
			ErrInvalidSelection, bookID, s.sel.BookID)
	}

	s.chapters = append([]catalog.Chapter(nil), chapters...)
	for _, c := range chapters {
		if _, ok := s.chapterMeta[c.ID]; !ok {
			s.chapterMeta[c.ID] = ChapterMeta{
				Number:      c.Number,
				DisplayName: c.DisplayName,
				VerseCount:  c.VerseCount,
			}
		}
	}

	return nil
}

// SetTranslation selects a translation and clears book, chapter, verse range
// and the book and chapter option lists.
func (s *Store) SetTranslation(id int64) error {
	if !s.hasTranslation(id) {
		return fmt.Errorf("%w: translation %d", ErrInvalidSelection, id)
	}

	s.sel = Selection{TranslationID: id} //nolint:exhaustruct // children cleared
	s.books = nil
	s.chapters = nil

	return nil
}

// SetBook selects a book of the current translation and clears chapter,
// verse range and the chapter option list.
func (s *Store) SetBook(id int64) error {
	if !s.hasBook(id) {
		return fmt.Errorf("%w: book %d", ErrInvalidSelection, id)
	}

	s.sel.BookID = id
	s.sel.ChapterID = 0
	s.sel.VerseStart = 0
	s.sel.VerseEnd = 0
	s.chapters = nil

	return nil
}

// SetChapter selects a chapter of the current book and resets the verse
// range to the first verse.
func (s *Store) SetChapter(id int64) error {
	if !s.hasChapter(id) {
		return fmt.Errorf("%w: chapter %d", ErrInvalidSelection, id)
	}

	s.sel.ChapterID = id
	s.sel.VerseStart = 1
	s.sel.VerseEnd = 1

	return nil
}

// SetVerseRange clamps start and end into [1, verseCount] of the active
// chapter and raises end to start if they cross.
func (s *Store) SetVerseRange(start, end int) error {
	if s.sel.ChapterID == 0 {
		return fmt.Errorf("%w: no chapter selected", ErrInvalidSelection)
	}

	verseCount := s.chapterMeta[s.sel.ChapterID].VerseCount
	if verseCount < 1 {
		verseCount = 1
	}

	start = clamp(start, 1, verseCount)
	end = clamp(end, 1, verseCount)
	if start > end {
		end = start
	}

	s.sel.VerseStart = start
	s.sel.VerseEnd = end

	return nil
}

// SetVersion selects the text version used for verse lookup.
func (s *Store) SetVersion(version string) error {
	if !contains(s.versions, version) {
		return fmt.Errorf("%w: version %q", ErrInvalidSelection, version)
	}

	s.version = version

	return nil
}

// SetTranscription replaces the transcription text.
func (s *Store) SetTranscription(text string) {
	s.transcription = text
}

// Selection returns the current selection.
func (s *Store) Selection() Selection {
	return s.sel
}

// Version returns the selected text version.
func (s *Store) Version() string {
	return s.version
}

// Transcription returns the current transcription text.
func (s *Store) Transcription() string {
	return s.transcription
}

// Translations returns the selectable translations.
func (s *Store) Translations() []catalog.Translation {
	return s.translations
}

// Versions returns the selectable text versions.
func (s *Store) Versions() []string {
	return s.versions
}

// Books returns the book options for the current translation.
func (s *Store) Books() []catalog.Book {
	return s.books
}

// Chapters returns the chapter options for the current book.
func (s *Store) Chapters() []catalog.Chapter {
	return s.chapters
}

// BookMeta returns cached metadata for a book id.
func (s *Store) BookMeta(id int64) (BookMeta, bool) {
	m, ok := s.bookMeta[id]
	return m, ok
}

// ChapterMeta returns cached metadata for a chapter id.
func (s *Store) ChapterMeta(id int64) (ChapterMeta, bool) {
	m, ok := s.chapterMeta[id]
	return m, ok
}

// Passage returns the fully-resolved verse lookup tuple for the current
// selection, or false if any part of it is missing.
func (s *Store) Passage() (catalog.Passage, bool) {
	if s.sel.BookID == 0 || s.sel.ChapterID == 0 || s.version == "" {
		return catalog.Passage{}, false //nolint:exhaustruct // empty
	}

	book, ok := s.bookMeta[s.sel.BookID]
	if !ok || book.DisplayName == "" {
		return catalog.Passage{}, false //nolint:exhaustruct // empty
	}

	chapter, ok := s.chapterMeta[s.sel.ChapterID]
	if !ok || chapter.Number == 0 {
		return catalog.Passage{}, false //nolint:exhaustruct // empty
	}

	return catalog.Passage{
		BookName:      book.DisplayName,
		ChapterNumber: chapter.Number,
		VerseStart:    s.sel.VerseStart,
		VerseEnd:      s.sel.VerseEnd,
		Version:       s.version,
	}, true
}

// Snapshot returns a value copy of the current state for display binding
// and upload.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{ //nolint:exhaustruct // names filled below
		Selection:     s.sel,
		Version:       s.version,
		Transcription: s.transcription,
	}

	for _, t := range s.translations {
		if t.ID == s.sel.TranslationID {
			snap.TranslationName = t.Label()
		}
	}

	if m, ok := s.bookMeta[s.sel.BookID]; ok {
		snap.BookName = m.DisplayName
	}

	if m, ok := s.chapterMeta[s.sel.ChapterID]; ok {
		snap.ChapterNumber = m.Number
		snap.VerseCount = m.VerseCount
	}

	return snap
}

func (s *Store) hasTranslation(id int64) bool {
	for _, t := range s.translations {
		if t.ID == id {
			return true
		}
	}

	return false
}

func (s *Store) hasBook(id int64) bool {
	for _, b := range s.books {
		if b.ID == id {
			return true
		}
	}

	return false
}

func (s *Store) hasChapter(id int64) bool {
	for _, c := range s.chapters {
		if c.ID == id {
			return true
		}
	}

	return false
}

func contains(items []string, v string) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}

	return false
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
