package store

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/alkime/lectio/pkg/collections"
)

// DefaultVersion is used for rows without a Version column and when no
// scripture is loaded.
const DefaultVersion = "KJV"

//go:embed data/scripture.csv
var sampleScripture []byte

type chapterKey struct {
	book    string
	chapter int
}

type verseKey struct {
	chapterKey
	version string
	verse   int
}

// Scripture is the verse text the backend serves, keyed by book, chapter,
// version and verse.
type Scripture struct {
	verses     map[verseKey]string
	chapterMax map[chapterKey]int
	books      []CanonBook
	versions   []string
}

// SampleScripture loads the embedded sample scripture.
func SampleScripture() (*Scripture, error) {
	return LoadScripture(bytes.NewReader(sampleScripture))
}

// LoadScriptureFile loads scripture from a CSV file.
func LoadScriptureFile(path string) (*Scripture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scripture %s: %w", path, err)
	}
	defer f.Close()

	return LoadScripture(f)
}

// LoadScripture reads CSV with the columns CanonBookName, CanonBookChapter,
// CanonChapterVerse, Text and an optional Version.
func LoadScripture(r io.Reader) (*Scripture, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read scripture header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	for _, required := range []string{"CanonBookName", "CanonBookChapter", "CanonChapterVerse", "Text"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("scripture is missing column %s", required)
		}
	}

	s := &Scripture{
		verses:     make(map[verseKey]string),
		chapterMax: make(map[chapterKey]int),
		books:      nil,
		versions:   nil,
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	versions := make(map[string]struct{})
	var bookNames []string

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read scripture line %d: %w", line, err)
		}

		book := field(record, "CanonBookName")

		chapter, err := strconv.Atoi(field(record, "CanonBookChapter"))
		if err != nil {
			return nil, fmt.Errorf("invalid chapter on line %d: %w", line, err)
		}

		verse, err := strconv.Atoi(field(record, "CanonChapterVerse"))
		if err != nil {
			return nil, fmt.Errorf("invalid verse on line %d: %w", line, err)
		}

		version := field(record, "Version")
		if version == "" {
			version = DefaultVersion
		}

		ck := chapterKey{book: book, chapter: chapter}
		s.verses[verseKey{chapterKey: ck, version: version, verse: verse}] = field(record, "Text")
		s.chapterMax[ck] = max(s.chapterMax[ck], verse)
		versions[version] = struct{}{}

		if !slices.Contains(bookNames, book) {
			bookNames = append(bookNames, book)
		}
	}

	s.books = collections.Apply(bookNames, canonBook)
	slices.SortStableFunc(s.books, func(a, b CanonBook) int {
		return a.CanonicalOrder - b.CanonicalOrder
	})

	for v := range versions {
		s.versions = append(s.versions, v)
	}
	slices.Sort(s.versions)

	return s, nil
}

// Books returns the books present, in canonical order.
func (s *Scripture) Books() []CanonBook {
	return s.books
}

// Versions returns the text versions present, sorted.
func (s *Scripture) Versions() []string {
	return s.versions
}

// Chapters returns the chapter numbers of a book, ascending.
func (s *Scripture) Chapters(book string) []int {
	var chapters []int
	for k := range s.chapterMax {
		if k.book == book {
			chapters = append(chapters, k.chapter)
		}
	}
	slices.Sort(chapters)

	return chapters
}

// VerseCount returns the highest verse number of a chapter, or 0 if unknown.
func (s *Scripture) VerseCount(book string, chapter int) int {
	return s.chapterMax[chapterKey{book: book, chapter: chapter}]
}

// Passage returns the verses start..end joined as "1 text 2 text".
func (s *Scripture) Passage(book string, chapter, start, end int, version string) (string, error) {
	if start < 1 || end < start {
		return "", ErrInvalidVerseRange
	}

	if last := s.VerseCount(book, chapter); last > 0 && end > last {
		return "", ErrVerseEndExceedsChapter
	}

	ck := chapterKey{book: book, chapter: chapter}
	verses := make([]string, 0, end-start+1)

	for v := start; v <= end; v++ {
		text, ok := s.verses[verseKey{chapterKey: ck, version: version, verse: v}]
		if !ok {
			return "", fmt.Errorf("%s %d:%d %s: %w", book, chapter, v, version, ErrNotFound)
		}
		verses = append(verses, strings.TrimSpace(strconv.Itoa(v)+" "+text))
	}

	return strings.Join(verses, " "), nil
}
