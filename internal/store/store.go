// Package store persists the development backend in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SeedBibleID is the translation created by Seed.
const SeedBibleID = 1

// TimestampLayout is how recording dates are stored: UTC without a zone.
const TimestampLayout = "2006-01-02T15:04:05.999999"

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidChapter is returned when a chapter is unknown or belongs to another translation.
	ErrInvalidChapter = errors.New("invalid chapter")
	// ErrInvalidVerseRange is returned when start < 1 or end < start.
	ErrInvalidVerseRange = errors.New("invalid verse range")
	// ErrVerseEndExceedsChapter is returned when end is past the last verse.
	ErrVerseEndExceedsChapter = errors.New("verse end exceeds chapter")
	// ErrEmptyFile is returned when a recording has no audio.
	ErrEmptyFile = errors.New("empty file")
)

const schema = `
CREATE TABLE IF NOT EXISTS bibles (
	bible_id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	language TEXT NOT NULL,
	version TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS canon_books (
	canon_book_name TEXT PRIMARY KEY,
	canonical_order INTEGER NOT NULL,
	testament TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS canon_chapters (
	canon_book_name TEXT NOT NULL REFERENCES canon_books(canon_book_name),
	canon_book_chapter INTEGER NOT NULL,
	verse_count INTEGER NOT NULL,
	PRIMARY KEY (canon_book_name, canon_book_chapter)
);

CREATE TABLE IF NOT EXISTS books (
	book_id INTEGER PRIMARY KEY,
	bible_id INTEGER NOT NULL REFERENCES bibles(bible_id),
	canon_book_name TEXT NOT NULL REFERENCES canon_books(canon_book_name),
	UNIQUE (bible_id, canon_book_name)
);

CREATE TABLE IF NOT EXISTS chapters (
	chapter_id INTEGER PRIMARY KEY,
	book_id INTEGER NOT NULL REFERENCES books(book_id),
	canon_book_name TEXT NOT NULL,
	canon_book_chapter INTEGER NOT NULL,
	UNIQUE (book_id, canon_book_chapter),
	FOREIGN KEY (canon_book_name, canon_book_chapter)
		REFERENCES canon_chapters(canon_book_name, canon_book_chapter)
);

CREATE TABLE IF NOT EXISTS recordings (
	recording_id INTEGER PRIMARY KEY,
	chapter_id INTEGER NOT NULL REFERENCES chapters(chapter_id),
	date_recorded TEXT NOT NULL,
	date_last_accessed TEXT,
	verse_index_start INTEGER NOT NULL,
	verse_index_end INTEGER NOT NULL,
	accessed_count INTEGER NOT NULL DEFAULT 0,
	file BLOB NOT NULL,
	file_mime TEXT,
	duration_seconds REAL,
	transcription_text TEXT
);
`

// Bible is a translation row.
type Bible struct {
	ID       int64
	Name     string
	Language string
	Version  string
}

// Book is a book row joined with its canon entry.
type Book struct {
	ID      int64
	BibleID int64
	Canon   CanonBook
}

// Chapter is a chapter row joined with its canon verse count.
type Chapter struct {
	ID         int64
	BookID     int64
	BookName   string
	Number     int
	VerseCount int
}

// Store provides access to the backend database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Seed creates the sample translation with every book and chapter of the
// scripture. Running it again updates canon data and adds missing rows.
func (s *Store) Seed(ctx context.Context, scripture *Scripture) error {
	version := DefaultVersion
	if versions := scripture.Versions(); len(versions) > 0 {
		version = versions[0]
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO bibles (bible_id, name, language, version)
		VALUES (?, 'Sample Bible', 'English', ?)
		ON CONFLICT (bible_id) DO UPDATE SET version = excluded.version
	`, SeedBibleID, version); err != nil {
		return fmt.Errorf("failed to seed bible: %w", err)
	}

	for _, book := range scripture.Books() {
		if err := seedBook(ctx, tx, scripture, book); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}

	return nil
}

func seedBook(ctx context.Context, tx *sql.Tx, scripture *Scripture, book CanonBook) error {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO canon_books (canon_book_name, canonical_order, testament)
		VALUES (?, ?, ?)
		ON CONFLICT (canon_book_name) DO UPDATE SET
			canonical_order = excluded.canonical_order,
			testament = excluded.testament
	`, book.Name, book.CanonicalOrder, book.Testament); err != nil {
		return fmt.Errorf("failed to seed canon book %s: %w", book.Name, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO books (bible_id, canon_book_name) VALUES (?, ?)
		ON CONFLICT (bible_id, canon_book_name) DO NOTHING
	`, SeedBibleID, book.Name); err != nil {
		return fmt.Errorf("failed to seed book %s: %w", book.Name, err)
	}

	var bookID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT book_id FROM books WHERE bible_id = ? AND canon_book_name = ?`,
		SeedBibleID, book.Name,
	).Scan(&bookID); err != nil {
		return fmt.Errorf("failed to look up book %s: %w", book.Name, err)
	}

	for _, chapter := range scripture.Chapters(book.Name) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO canon_chapters (canon_book_name, canon_book_chapter, verse_count)
			VALUES (?, ?, ?)
			ON CONFLICT (canon_book_name, canon_book_chapter) DO UPDATE SET verse_count = excluded.verse_count
		`, book.Name, chapter, scripture.VerseCount(book.Name, chapter)); err != nil {
			return fmt.Errorf("failed to seed canon chapter %s %d: %w", book.Name, chapter, err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chapters (book_id, canon_book_name, canon_book_chapter) VALUES (?, ?, ?)
			ON CONFLICT (book_id, canon_book_chapter) DO NOTHING
		`, bookID, book.Name, chapter); err != nil {
			return fmt.Errorf("failed to seed chapter %s %d: %w", book.Name, chapter, err)
		}
	}

	return nil
}

// ListBibles returns every translation.
func (s *Store) ListBibles(ctx context.Context) ([]Bible, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT bible_id, name, language, version FROM bibles ORDER BY bible_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bibles: %w", err)
	}
	defer rows.Close()

	bibles := []Bible{}
	for rows.Next() {
		var b Bible
		if err := rows.Scan(&b.ID, &b.Name, &b.Language, &b.Version); err != nil {
			return nil, fmt.Errorf("failed to scan bible: %w", err)
		}
		bibles = append(bibles, b)
	}

	return bibles, rows.Err()
}

// ListBooks returns the books of a translation in canonical order.
func (s *Store) ListBooks(ctx context.Context, bibleID int64) ([]Book, error) {
	if err := s.exists(ctx, `SELECT 1 FROM bibles WHERE bible_id = ?`, bibleID); err != nil {
		return nil, fmt.Errorf("bible %d: %w", bibleID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.book_id, b.bible_id, c.canon_book_name, c.canonical_order, c.testament
		FROM books b
		JOIN canon_books c ON c.canon_book_name = b.canon_book_name
		WHERE b.bible_id = ?
		ORDER BY c.canonical_order
	`, bibleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	books := []Book{}
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.BibleID, &b.Canon.Name, &b.Canon.CanonicalOrder, &b.Canon.Testament); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, b)
	}

	return books, rows.Err()
}

// ListChapters returns the chapters of a book in order.
func (s *Store) ListChapters(ctx context.Context, bookID int64) ([]Chapter, error) {
	if err := s.exists(ctx, `SELECT 1 FROM books WHERE book_id = ?`, bookID); err != nil {
		return nil, fmt.Errorf("book %d: %w", bookID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ch.chapter_id, ch.book_id, ch.canon_book_name, ch.canon_book_chapter, cc.verse_count
		FROM chapters ch
		JOIN canon_chapters cc
			ON cc.canon_book_name = ch.canon_book_name
			AND cc.canon_book_chapter = ch.canon_book_chapter
		WHERE ch.book_id = ?
		ORDER BY ch.canon_book_chapter
	`, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chapters: %w", err)
	}
	defer rows.Close()

	chapters := []Chapter{}
	for rows.Next() {
		var c Chapter
		if err := rows.Scan(&c.ID, &c.BookID, &c.BookName, &c.Number, &c.VerseCount); err != nil {
			return nil, fmt.Errorf("failed to scan chapter: %w", err)
		}
		chapters = append(chapters, c)
	}

	return chapters, rows.Err()
}

func (s *Store) exists(ctx context.Context, query string, args ...any) error {
	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check existence: %w", err)
	}

	return nil
}
