package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alkime/lectio/internal/catalog"
	"github.com/alkime/lectio/pkg/collections"
)

// Recording is a recordings row as listed for a translation.
type Recording struct {
	ID                int64
	BookName          string
	ChapterNumber     int
	VerseStart        int
	VerseEnd          int
	DateRecorded      string
	AccessedCount     int
	DurationSeconds   *float64
	TranscriptionText *string
	WPM               *float64
}

// NewRecording is an uploaded recording. BibleID, when set, must own the chapter.
type NewRecording struct {
	BibleID           int64
	ChapterID         int64
	VerseStart        int
	VerseEnd          int
	DurationSeconds   *float64
	TranscriptionText *string
	File              []byte
	MIME              string
}

// RecordingUpdate edits a recording. Nil fields are left unchanged.
type RecordingUpdate struct {
	VerseStart        *int
	VerseEnd          *int
	TranscriptionText *string
}

// AudioFile is the stored audio of a recording.
type AudioFile struct {
	RecordingID   int64
	BookName      string
	ChapterNumber int
	MIME          string
	Data          []byte
}

// ListRecordings returns the recordings of a translation with their pace.
func (s *Store) ListRecordings(ctx context.Context, bibleID int64) ([]Recording, error) {
	if err := s.exists(ctx, `SELECT 1 FROM bibles WHERE bible_id = ?`, bibleID); err != nil {
		return nil, fmt.Errorf("bible %d: %w", bibleID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.recording_id, ch.canon_book_name, ch.canon_book_chapter,
			r.verse_index_start, r.verse_index_end, r.date_recorded, r.accessed_count,
			r.duration_seconds, r.transcription_text
		FROM recordings r
		JOIN chapters ch ON ch.chapter_id = r.chapter_id
		JOIN books b ON b.book_id = ch.book_id
		WHERE b.bible_id = ?
		ORDER BY r.recording_id
	`, bibleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recordings: %w", err)
	}
	defer rows.Close()

	recordings := []Recording{}
	for rows.Next() {
		var (
			r        Recording
			duration sql.NullFloat64
			text     sql.NullString
		)

		if err := rows.Scan(&r.ID, &r.BookName, &r.ChapterNumber, &r.VerseStart, &r.VerseEnd,
			&r.DateRecorded, &r.AccessedCount, &duration, &text); err != nil {
			return nil, fmt.Errorf("failed to scan recording: %w", err)
		}

		if duration.Valid {
			r.DurationSeconds = &duration.Float64
		}
		if text.Valid {
			r.TranscriptionText = &text.String
		}
		if r.DurationSeconds != nil && r.TranscriptionText != nil {
			r.WPM = catalog.WordsPerMinute(*r.TranscriptionText, *r.DurationSeconds)
		}

		recordings = append(recordings, r)
	}

	return recordings, rows.Err()
}

// WPMValues returns the pace of every recording of a translation that has one.
func (s *Store) WPMValues(ctx context.Context, bibleID int64) ([]float64, error) {
	recordings, err := s.ListRecordings(ctx, bibleID)
	if err != nil {
		return nil, err
	}

	paced := collections.Filter(recordings, func(r Recording) bool { return r.WPM != nil })

	return collections.Apply(paced, func(r Recording) float64 { return *r.WPM }), nil
}

// CreateRecording validates and stores an upload, returning its id.
func (s *Store) CreateRecording(ctx context.Context, rec NewRecording) (int64, error) {
	var (
		bibleID    int64
		verseCount int
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT b.bible_id, cc.verse_count
		FROM chapters ch
		JOIN books b ON b.book_id = ch.book_id
		JOIN canon_chapters cc
			ON cc.canon_book_name = ch.canon_book_name
			AND cc.canon_book_chapter = ch.canon_book_chapter
		WHERE ch.chapter_id = ?
	`, rec.ChapterID).Scan(&bibleID, &verseCount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInvalidChapter
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up chapter: %w", err)
	}

	if rec.BibleID != 0 && rec.BibleID != bibleID {
		return 0, ErrInvalidChapter
	}

	if rec.VerseStart < 1 || rec.VerseEnd < rec.VerseStart {
		return 0, ErrInvalidVerseRange
	}

	if rec.VerseEnd > verseCount {
		return 0, ErrVerseEndExceedsChapter
	}

	if len(rec.File) == 0 {
		return 0, ErrEmptyFile
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO recordings (chapter_id, date_recorded, verse_index_start, verse_index_end,
			file, file_mime, duration_seconds, transcription_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ChapterID, s.timestamp(), rec.VerseStart, rec.VerseEnd,
		rec.File, nullString(rec.MIME), rec.DurationSeconds, rec.TranscriptionText)
	if err != nil {
		return 0, fmt.Errorf("failed to insert recording: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read recording id: %w", err)
	}

	return id, nil
}

// Audio returns the stored audio of a recording and counts the access.
func (s *Store) Audio(ctx context.Context, recordingID int64) (AudioFile, error) {
	file := AudioFile{RecordingID: recordingID} //nolint:exhaustruct // filled below

	var mime sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT ch.canon_book_name, ch.canon_book_chapter, r.file_mime, r.file
		FROM recordings r
		JOIN chapters ch ON ch.chapter_id = r.chapter_id
		WHERE r.recording_id = ?
	`, recordingID).Scan(&file.BookName, &file.ChapterNumber, &mime, &file.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return AudioFile{}, fmt.Errorf("recording %d: %w", recordingID, ErrNotFound) //nolint:exhaustruct // error path
	}
	if err != nil {
		return AudioFile{}, fmt.Errorf("failed to read audio: %w", err) //nolint:exhaustruct // error path
	}

	file.MIME = mimeOrDefault(mime)

	if _, err := s.db.ExecContext(ctx, `
		UPDATE recordings
		SET accessed_count = accessed_count + 1, date_last_accessed = ?
		WHERE recording_id = ?
	`, s.timestamp(), recordingID); err != nil {
		return AudioFile{}, fmt.Errorf("failed to record access: %w", err) //nolint:exhaustruct // error path
	}

	return file, nil
}

// UpdateRecording applies an edit. The resulting range must stay valid.
func (s *Store) UpdateRecording(ctx context.Context, recordingID int64, update RecordingUpdate) error {
	var start, end int

	err := s.db.QueryRowContext(ctx,
		`SELECT verse_index_start, verse_index_end FROM recordings WHERE recording_id = ?`,
		recordingID,
	).Scan(&start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("recording %d: %w", recordingID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read recording: %w", err)
	}

	if update.VerseStart != nil {
		start = *update.VerseStart
	}
	if update.VerseEnd != nil {
		end = *update.VerseEnd
	}

	if start < 1 || end < start {
		return ErrInvalidVerseRange
	}

	if _, err := s.db.ExecContext(ctx, `
		UPDATE recordings
		SET verse_index_start = ?, verse_index_end = ?,
			transcription_text = COALESCE(?, transcription_text)
		WHERE recording_id = ?
	`, start, end, update.TranscriptionText, recordingID); err != nil {
		return fmt.Errorf("failed to update recording: %w", err)
	}

	return nil
}

// DeleteRecording removes a recording.
func (s *Store) DeleteRecording(ctx context.Context, recordingID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recordings WHERE recording_id = ?`, recordingID)
	if err != nil {
		return fmt.Errorf("failed to delete recording: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete recording: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recording %d: %w", recordingID, ErrNotFound)
	}

	return nil
}

// AudioFiles returns the audio of every recording of a translation, oldest first.
func (s *Store) AudioFiles(ctx context.Context, bibleID int64) ([]AudioFile, error) {
	if err := s.exists(ctx, `SELECT 1 FROM bibles WHERE bible_id = ?`, bibleID); err != nil {
		return nil, fmt.Errorf("bible %d: %w", bibleID, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.recording_id, ch.canon_book_name, ch.canon_book_chapter, r.file_mime, r.file
		FROM recordings r
		JOIN chapters ch ON ch.chapter_id = r.chapter_id
		JOIN books b ON b.book_id = ch.book_id
		WHERE b.bible_id = ?
		ORDER BY r.recording_id
	`, bibleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audio: %w", err)
	}
	defer rows.Close()

	var files []AudioFile
	for rows.Next() {
		var (
			f    AudioFile
			mime sql.NullString
		)
		if err := rows.Scan(&f.RecordingID, &f.BookName, &f.ChapterNumber, &mime, &f.Data); err != nil {
			return nil, fmt.Errorf("failed to scan audio: %w", err)
		}
		f.MIME = mimeOrDefault(mime)
		files = append(files, f)
	}

	return files, rows.Err()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(TimestampLayout)
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func mimeOrDefault(mime sql.NullString) string {
	if !mime.Valid || mime.String == "" {
		return "application/octet-stream"
	}
	return mime.String
}
