// Package catalog defines the value types shared by the client core, the API
// client and the development backend.
package catalog

import "time"

// Translation is a bible translation the user can record against.
type Translation struct {
	ID       int64
	Name     string
	Language string
	Version  string
}

// Label returns the display label used in selection lists, e.g. "Sample Bible (English)".
func (t Translation) Label() string {
	if t.Language == "" {
		return t.Name
	}

	return t.Name + " (" + t.Language + ")"
}

// Book is a book within a translation.
type Book struct {
	ID          int64
	DisplayName string
}

// Chapter is a chapter within a book.
type Chapter struct {
	ID          int64
	Number      int
	DisplayName string
	VerseCount  int
}

// Passage is a fully-resolved verse range used for verse text lookup.
type Passage struct {
	BookName      string
	ChapterNumber int
	VerseStart    int
	VerseEnd      int
	Version       string
}

// HistogramBucket is one bar of a words-per-minute histogram.
type HistogramBucket struct {
	LowerBound float64 `json:"lower_bound"`
	Count      int     `json:"count"`
}

// SummaryStats describes a distribution of words-per-minute measurements.
// A snapshot has no identity beyond the query that produced it.
type SummaryStats struct {
	Count     int               `json:"count"`
	Min       float64           `json:"min"`
	Max       float64           `json:"max"`
	Mean      float64           `json:"mean"`
	Median    float64           `json:"median"`
	Std       float64           `json:"std"`
	Q1        float64           `json:"q1"`
	Q3        float64           `json:"q3"`
	Histogram []HistogramBucket `json:"histogram"`
}

// Recording is a row of the recordings list for a translation.
type Recording struct {
	ID                int64
	BookName          string
	ChapterNumber     int
	VerseStart        int
	VerseEnd          int
	DateRecorded      time.Time
	AccessedCount     int
	DurationSeconds   *float64
	TranscriptionText string
	WPM               *float64
}

// Submission is the payload of a finished recording upload.
type Submission struct {
	TranslationID     int64
	ChapterID         int64
	VerseStart        int
	VerseEnd          int
	DurationSeconds   int
	TranscriptionText string
	Audio             []byte
	AudioMIME         string
}

// WordCount counts whitespace separated words.
func WordCount(text string) int {
	n := 0
	inWord := false

	for _, r := range text {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			inWord = false
		default:
			if !inWord {
				n++
			}
			inWord = true
		}
	}

	return n
}

// WordsPerMinute returns the reading pace for a transcription, or nil when
// the duration is unknown or non-positive or the text is empty.
func WordsPerMinute(text string, durationSeconds float64) *float64 {
	if durationSeconds <= 0 || text == "" {
		return nil
	}

	wpm := float64(WordCount(text)) / durationSeconds * 60

	return &wpm
}

// AudioExtension maps an audio MIME type to a file extension.
func AudioExtension(mime string) string {
	switch mime {
	case "audio/mpeg":
		return ".mp3"
	case "audio/webm":
		return ".webm"
	case "audio/wav":
		return ".wav"
	default:
		return ".bin"
	}
}
