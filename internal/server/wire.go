package server

import "github.com/alkime/lectio/internal/store"

// Response shapes nest joined rows under their table names.

type bibleJSON struct {
	BibleID  int64  `json:"bible_id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Version  string `json:"version"`
}

type bookJSON struct {
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

type chapterJSON struct {
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

type recordingJSON struct {
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

type uploadForm struct {
	BibleID           int64    `form:"bible_id" binding:"required"`
	ChapterID         int64    `form:"chapter_id" binding:"required"`
	VerseStart        *int     `form:"verse_index_start" binding:"required"`
	VerseEnd          *int     `form:"verse_index_end" binding:"required"`
	DurationSeconds   *float64 `form:"duration_seconds"`
	TranscriptionText *string  `form:"transcription_text"`
}

type updateRequest struct {
	VerseStart        *int    `json:"verse_index_start"`
	VerseEnd          *int    `json:"verse_index_end"`
	TranscriptionText *string `json:"transcription_text"`
}

type verseQuery struct {
	Book    string `form:"book" binding:"required"`
	Chapter int    `form:"chapter" binding:"required"`
	Start   *int   `form:"start" binding:"required"`
	End     *int   `form:"end" binding:"required"`
	Version string `form:"version,default=KJV"`
}

func toBibleJSON(b store.Bible) bibleJSON {
	return bibleJSON{
		BibleID:  b.ID,
		Name:     b.Name,
		Language: b.Language,
		Version:  b.Version,
	}
}

func toBookJSON(b store.Book) bookJSON {
	var out bookJSON
	out.Books.BookID = b.ID
	out.Books.BibleID = b.BibleID
	out.Books.CanonBookName = b.Canon.Name
	out.CanonBooks.CanonBookName = b.Canon.Name
	out.CanonBooks.CanonicalOrder = b.Canon.CanonicalOrder
	out.CanonBooks.Testament = b.Canon.Testament

	return out
}

func toChapterJSON(c store.Chapter) chapterJSON {
	var out chapterJSON
	out.Chapters.ChapterID = c.ID
	out.Chapters.BookID = c.BookID
	out.Chapters.CanonBookName = c.BookName
	out.Chapters.CanonBookChapter = c.Number
	out.CanonChapters.CanonBookName = c.BookName
	out.CanonChapters.CanonBookChapter = c.Number
	out.CanonChapters.VerseCount = c.VerseCount

	return out
}

func toRecordingJSON(r store.Recording) recordingJSON {
	return recordingJSON{
		RecordingID:       r.ID,
		BookName:          r.BookName,
		ChapterNumber:     r.ChapterNumber,
		VerseStart:        r.VerseStart,
		VerseEnd:          r.VerseEnd,
		DateRecorded:      r.DateRecorded,
		AccessedCount:     r.AccessedCount,
		DurationSeconds:   r.DurationSeconds,
		TranscriptionText: r.TranscriptionText,
		ComputedWPM:       r.WPM,
	}
}
