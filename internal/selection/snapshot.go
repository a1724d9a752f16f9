package selection

import "fmt"

// Snapshot is an immutable copy of the selection state.
type Snapshot struct {
	Selection

	Version       string
	Transcription string

	TranslationName string
	BookName        string
	ChapterNumber   int
	VerseCount      int
}

// Complete reports whether translation, book, chapter and a valid verse range
// are all set.
func (s Snapshot) Complete() bool {
	return s.TranslationID != 0 &&
		s.BookID != 0 &&
		s.ChapterID != 0 &&
		s.VerseStart >= 1 &&
		s.VerseEnd >= s.VerseStart
}

// Reference formats the selection as "Genesis 1:1-5".
func (s Snapshot) Reference() string {
	if s.BookName == "" || s.ChapterNumber == 0 {
		return ""
	}

	if s.VerseStart == s.VerseEnd {
		return fmt.Sprintf("%s %d:%d", s.BookName, s.ChapterNumber, s.VerseStart)
	}

	return fmt.Sprintf("%s %d:%d-%d", s.BookName, s.ChapterNumber, s.VerseStart, s.VerseEnd)
}
