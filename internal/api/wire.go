package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/alkime/lectio/internal/catalog"
)

// The backend nests joined rows under their table names.

type bibleRow struct {
	BibleID  int64  `json:"bible_id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Version  string `json:"version"`
}

type bookRow struct {
	Books struct {
		BookID        int64  `json:"book_id"`
		BibleID       int64  `json:"bible_id"`
		CanonBookName string `json:"canon_book_name"`
	} `json:"Books"`
	CanonBooks struct {
		CanonBookName  string `json:"canon_book_name"`
		CanonicalOrder int    `json:"canonical_order"`
		Testament      string `json:"testament"`
	} `json:"CanonBooks"`
}

type chapterRow struct {
	Chapters struct {
		ChapterID        int64  `json:"chapter_id"`
		BookID           int64  `json:"book_id"`
		CanonBookName    string `json:"canon_book_name"`
		CanonBookChapter int    `json:"canon_book_chapter"`
	} `json:"Chapters"`
	CanonChapters struct {
		CanonBookName    string `json:"canon_book_name"`
		CanonBookChapter int    `json:"canon_book_chapter"`
		VerseCount       int    `json:"verse_count"`
	} `json:"CanonChapters"`
}

type recordingRow struct {
	RecordingID       int64    `json:"recording_id"`
	BookName          string   `json:"book_name"`
	ChapterNumber     int      `json:"chapter_number"`
	VerseStart        int      `json:"verse_start"`
	VerseEnd          int      `json:"verse_end"`
	DateRecorded      string   `json:"date_recorded"`
	AccessedCount     int      `json:"accessed_count"`
	DurationSeconds   *float64 `json:"duration_seconds"`
	TranscriptionText *string  `json:"transcription_text"`
	ComputedWPM       *float64 `json:"computed_wpm"`
}

type analyticsResponse struct {
	WPMStats catalog.SummaryStats `json:"wpm_stats"`
}

type verseResponse struct {
	Text string `json:"text"`
}

type createdResponse struct {
	RecordingID int64 `json:"recording_id"`
}

// RecordingUpdate edits a stored recording. Nil fields are left unchanged.
type RecordingUpdate struct {
	VerseStart        *int    `json:"verse_index_start,omitempty"`
	VerseEnd          *int    `json:"verse_index_end,omitempty"`
	TranscriptionText *string `json:"transcription_text,omitempty"`
}

func (r bibleRow) translation() catalog.Translation {
	return catalog.Translation{
		ID:       r.BibleID,
		Name:     r.Name,
		Language: r.Language,
		Version:  r.Version,
	}
}

func (r bookRow) book() catalog.Book {
	return catalog.Book{
		ID:          r.Books.BookID,
		DisplayName: r.Books.CanonBookName,
	}
}

func (r chapterRow) chapter() catalog.Chapter {
	return catalog.Chapter{
		ID:          r.Chapters.ChapterID,
		Number:      r.Chapters.CanonBookChapter,
		DisplayName: strconv.Itoa(r.Chapters.CanonBookChapter),
		VerseCount:  r.CanonChapters.VerseCount,
	}
}

func (r recordingRow) recording() (catalog.Recording, error) {
	recorded, err := ParseTimestamp(r.DateRecorded)
	if err != nil {
		return catalog.Recording{}, err //nolint:exhaustruct // error path
	}

	text := ""
	if r.TranscriptionText != nil {
		text = *r.TranscriptionText
	}

	return catalog.Recording{
		ID:                r.RecordingID,
		BookName:          r.BookName,
		ChapterNumber:     r.ChapterNumber,
		VerseStart:        r.VerseStart,
		VerseEnd:          r.VerseEnd,
		DateRecorded:      recorded,
		AccessedCount:     r.AccessedCount,
		DurationSeconds:   r.DurationSeconds,
		TranscriptionText: text,
		WPM:               r.ComputedWPM,
	}, nil
}

// TimestampLayout is the zone-less UTC ISO 8601 form the backend stores.
const TimestampLayout = "2006-01-02T15:04:05.999999"

// ParseTimestamp parses backend timestamps, with or without a zone.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}

	t, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}

	return t, nil
}
