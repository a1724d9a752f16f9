package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/alkime/lectio/internal/catalog"
	"github.com/alkime/lectio/pkg/collections"
)

// ListTranslations lists the translations the user may access.
func (c *Client) ListTranslations(ctx context.Context) ([]catalog.Translation, error) {
	var rows []bibleRow
	if err := c.getJSON(ctx, "/api/bibles", &rows); err != nil {
		return nil, err
	}

	return collections.Apply(rows, bibleRow.translation), nil
}

// ListVersions lists the text versions available for verse lookup.
func (c *Client) ListVersions(ctx context.Context) ([]string, error) {
	var versions []string
	if err := c.getJSON(ctx, "/api/versions", &versions); err != nil {
		return nil, err
	}

	return versions, nil
}

// ListBooks lists the books of a translation in canonical order.
func (c *Client) ListBooks(ctx context.Context, translationID int64) ([]catalog.Book, error) {
	var rows []bookRow
	if err := c.getJSON(ctx, fmt.Sprintf("/api/bibles/%d/books", translationID), &rows); err != nil {
		return nil, err
	}

	return collections.Apply(rows, bookRow.book), nil
}

// ListChapters lists the chapters of a book.
func (c *Client) ListChapters(ctx context.Context, bookID int64) ([]catalog.Chapter, error) {
	var rows []chapterRow
	if err := c.getJSON(ctx, fmt.Sprintf("/api/books/%d/chapters", bookID), &rows); err != nil {
		return nil, err
	}

	return collections.Apply(rows, chapterRow.chapter), nil
}

// FetchVerseText returns the canonical text of a passage.
func (c *Client) FetchVerseText(ctx context.Context, passage catalog.Passage) (string, error) {
	q := url.Values{}
	q.Set("book", passage.BookName)
	q.Set("chapter", strconv.Itoa(passage.ChapterNumber))
	q.Set("start", strconv.Itoa(passage.VerseStart))
	q.Set("end", strconv.Itoa(passage.VerseEnd))
	q.Set("version", passage.Version)

	var resp verseResponse
	if err := c.getJSON(ctx, "/api/verses?"+q.Encode(), &resp); err != nil {
		return "", err
	}

	return resp.Text, nil
}

// FetchSummaryStats returns the words-per-minute distribution of a translation.
func (c *Client) FetchSummaryStats(ctx context.Context, translationID int64) (catalog.SummaryStats, error) {
	var resp analyticsResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/api/bibles/%d/analytics", translationID), &resp); err != nil {
		return catalog.SummaryStats{}, err //nolint:exhaustruct // error path
	}

	return resp.WPMStats, nil
}
