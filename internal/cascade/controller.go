// Package cascade keeps the dependent selection levels (translation → book →
// chapter → verse range) and the transcription text consistent with the
// selection store while requests complete out of order.
//
// The controller never performs I/O itself. Every mutating call returns the
// fetches it wants issued; the caller runs them (on any goroutine) and hands
// each Completion back to Apply on the goroutine that owns the store. Each
// request is tagged with the triggering value and a per-level generation;
// a completion whose tag or generation no longer matches is dropped.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alkime/lectio/internal/catalog"
	"github.com/alkime/lectio/internal/selection"
)

// ErrStaleResult marks a completion superseded by a newer request.
// It is logged, never surfaced.
var ErrStaleResult = errors.New("stale result discarded")

// Catalog is the network collaborator the cascade reads from.
type Catalog interface {
	ListTranslations(ctx context.Context) ([]catalog.Translation, error)
	ListVersions(ctx context.Context) ([]string, error)
	ListBooks(ctx context.Context, translationID int64) ([]catalog.Book, error)
	ListChapters(ctx context.Context, bookID int64) ([]catalog.Chapter, error)
}

// PassageResolver turns a fully-resolved passage into verse text.
type PassageResolver interface {
	Resolve(ctx context.Context, passage catalog.Passage) (string, bool)
}

// Fetch is a deferred request. It must not touch the store.
type Fetch func(ctx context.Context) Completion

type level int

const (
	levelTranslations level = iota
	levelVersions
	levelBooks
	levelChapters
	levelPassage
	levelCount
)

// Controller orchestrates the cascade.
type Controller struct {
	store    *selection.Store
	catalog  Catalog
	resolver PassageResolver
	logger   *slog.Logger

	gens [levelCount]uint64
}

// New creates a controller using store as its working memory.
func New(store *selection.Store, cat Catalog, resolver PassageResolver, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{ //nolint:exhaustruct // generations start at zero
		store:    store,
		catalog:  cat,
		resolver: resolver,
		logger:   logger,
	}
}

// Store returns the selection store the controller mutates.
func (c *Controller) Store() *selection.Store {
	return c.store
}

// Load requests the translation and version lists.
func (c *Controller) Load() []Fetch {
	return []Fetch{c.fetchTranslations(), c.fetchVersions()}
}

// SetTranslation selects a translation. Book, chapter and verse range are
// cleared before the book request is issued.
func (c *Controller) SetTranslation(id int64) ([]Fetch, error) {
	if err := c.store.SetTranslation(id); err != nil {
		return nil, fmt.Errorf("failed to select translation: %w", err)
	}

	// children are gone; anything still in flight for them is stale
	c.bump(levelChapters)
	c.bump(levelPassage)

	return []Fetch{c.fetchBooks(id)}, nil
}

// SetBook selects a book and requests its chapters.
func (c *Controller) SetBook(id int64) ([]Fetch, error) {
	if err := c.store.SetBook(id); err != nil {
		return nil, fmt.Errorf("failed to select book: %w", err)
	}

	c.bump(levelPassage)

	return []Fetch{c.fetchChapters(id)}, nil
}

// SetChapter selects a chapter and requests its transcription text.
func (c *Controller) SetChapter(id int64) ([]Fetch, error) {
	if err := c.store.SetChapter(id); err != nil {
		return nil, fmt.Errorf("failed to select chapter: %w", err)
	}

	return c.resolvePassage(), nil
}

// SetVerseRange clamps and applies a verse range and requests its
// transcription text.
func (c *Controller) SetVerseRange(start, end int) ([]Fetch, error) {
	if err := c.store.SetVerseRange(start, end); err != nil {
		return nil, fmt.Errorf("failed to set verse range: %w", err)
	}

	return c.resolvePassage(), nil
}

// SetVersion selects the text version and requests the transcription text.
func (c *Controller) SetVersion(version string) ([]Fetch, error) {
	if err := c.store.SetVersion(version); err != nil {
		return nil, fmt.Errorf("failed to select version: %w", err)
	}

	return c.resolvePassage(), nil
}

// Apply applies a completion if it is still current and returns follow-up
// fetches. Stale completions are dropped silently.
func (c *Controller) Apply(done Completion) []Fetch {
	if done.generation() != c.gens[done.level()] {
		c.discard(done, "superseded")
		return nil
	}

	switch m := done.(type) {
	case TranslationsLoaded:
		return c.applyTranslations(m)
	case VersionsLoaded:
		return c.applyVersions(m)
	case BooksLoaded:
		return c.applyBooks(m)
	case ChaptersLoaded:
		return c.applyChapters(m)
	case PassageResolved:
		return c.applyPassage(m)
	default:
		c.logger.Warn("unknown cascade completion", "type", fmt.Sprintf("%T", done))
		return nil
	}
}

func (c *Controller) applyTranslations(m TranslationsLoaded) []Fetch {
	if m.Err != nil {
		c.logger.Error("failed to list translations", "error", m.Err)
		return nil
	}

	c.store.SetTranslations(m.Translations)

	if c.store.Selection().TranslationID != 0 || len(m.Translations) == 0 {
		return nil
	}

	fetches, err := c.SetTranslation(m.Translations[0].ID)
	if err != nil {
		c.logger.Error("failed to auto-select translation", "error", err)
		return nil
	}

	return fetches
}

func (c *Controller) applyVersions(m VersionsLoaded) []Fetch {
	if m.Err != nil {
		c.logger.Error("failed to list versions", "error", m.Err)
		return nil
	}

	c.store.SetVersions(m.Versions)

	if c.store.Version() != "" || len(m.Versions) == 0 {
		return nil
	}

	fetches, err := c.SetVersion(m.Versions[0])
	if err != nil {
		c.logger.Error("failed to auto-select version", "error", err)
		return nil
	}

	return fetches
}

func (c *Controller) applyBooks(m BooksLoaded) []Fetch {
	if m.TranslationID != c.store.Selection().TranslationID {
		c.discard(m, "translation changed")
		return nil
	}

	if m.Err != nil {
		c.logger.Error("failed to list books", "translation", m.TranslationID, "error", m.Err)
		return nil
	}

	if err := c.store.SetBooks(m.TranslationID, m.Books); err != nil {
		c.logger.Error("failed to apply books", "error", err)
		return nil
	}

	if len(m.Books) == 0 {
		return nil
	}

	fetches, err := c.SetBook(m.Books[0].ID)
	if err != nil {
		c.logger.Error("failed to auto-select book", "error", err)
		return nil
	}

	return fetches
}

func (c *Controller) applyChapters(m ChaptersLoaded) []Fetch {
	if m.BookID != c.store.Selection().BookID {
		c.discard(m, "book changed")
		return nil
	}

	if m.Err != nil {
		c.logger.Error("failed to list chapters", "book", m.BookID, "error", m.Err)
		return nil
	}

	if err := c.store.SetChapters(m.BookID, m.Chapters); err != nil {
		c.logger.Error("failed to apply chapters", "error", err)
		return nil
	}

	if len(m.Chapters) == 0 {
		return nil
	}

	fetches, err := c.SetChapter(m.Chapters[0].ID)
	if err != nil {
		c.logger.Error("failed to auto-select chapter", "error", err)
		return nil
	}

	return fetches
}

func (c *Controller) applyPassage(m PassageResolved) []Fetch {
	current, ok := c.store.Passage()
	if !ok || current != m.Passage {
		c.discard(m, "passage changed")
		return nil
	}

	// lookup failures leave the field as the user last saw it
	if m.OK {
		c.store.SetTranscription(m.Text)
	}

	return nil
}

func (c *Controller) resolvePassage() []Fetch {
	gen := c.bump(levelPassage)

	passage, ok := c.store.Passage()
	if !ok {
		return nil
	}

	resolver := c.resolver

	return []Fetch{func(ctx context.Context) Completion {
		text, ok := resolver.Resolve(ctx, passage)
		return PassageResolved{Gen: gen, Passage: passage, Text: text, OK: ok}
	}}
}

func (c *Controller) fetchTranslations() Fetch {
	gen := c.bump(levelTranslations)
	cat := c.catalog

	return func(ctx context.Context) Completion {
		translations, err := cat.ListTranslations(ctx)
		return TranslationsLoaded{Gen: gen, Translations: translations, Err: err}
	}
}

func (c *Controller) fetchVersions() Fetch {
	gen := c.bump(levelVersions)
	cat := c.catalog

	return func(ctx context.Context) Completion {
		versions, err := cat.ListVersions(ctx)
		return VersionsLoaded{Gen: gen, Versions: versions, Err: err}
	}
}

func (c *Controller) fetchBooks(translationID int64) Fetch {
	gen := c.bump(levelBooks)
	cat := c.catalog

	return func(ctx context.Context) Completion {
		books, err := cat.ListBooks(ctx, translationID)
		return BooksLoaded{Gen: gen, TranslationID: translationID, Books: books, Err: err}
	}
}

func (c *Controller) fetchChapters(bookID int64) Fetch {
	gen := c.bump(levelChapters)
	cat := c.catalog

	return func(ctx context.Context) Completion {
		chapters, err := cat.ListChapters(ctx, bookID)
		return ChaptersLoaded{Gen: gen, BookID: bookID, Chapters: chapters, Err: err}
	}
}

func (c *Controller) bump(l level) uint64 {
	c.gens[l]++
	return c.gens[l]
}

func (c *Controller) discard(done Completion, reason string) {
	c.logger.Debug("cascade completion dropped",
		"error", ErrStaleResult,
		"type", fmt.Sprintf("%T", done),
		"reason", reason,
		"generation", done.generation(),
	)
}
