// Package transcription fills the transcription field: from canonical verse
// text via Resolver, or from captured audio via Whisper.
package transcription

import (
	"context"
	"log/slog"
	"strings"

	"github.com/alkime/lectio/internal/catalog"
)

// VerseSource looks up canonical verse text.
type VerseSource interface {
	FetchVerseText(ctx context.Context, passage catalog.Passage) (string, error)
}

// Resolver pre-fills the transcription from canonical verse text.
//
// Pre-fill is a convenience: lookup misses and transport errors are logged
// and reported as ok=false, never returned.
type Resolver struct {
	source VerseSource
	logger *slog.Logger
}

// NewResolver creates a resolver backed by source.
func NewResolver(source VerseSource, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		source: source,
		logger: logger,
	}
}

// Resolve fetches the text for a fully-resolved passage.
func (r *Resolver) Resolve(ctx context.Context, passage catalog.Passage) (string, bool) {
	if passage.BookName == "" || passage.ChapterNumber < 1 || passage.VerseStart < 1 ||
		passage.VerseEnd < passage.VerseStart || passage.Version == "" {
		r.logger.Debug("skipping partial passage", "passage", passage)
		return "", false
	}

	text, err := r.source.FetchVerseText(ctx, passage)
	if err != nil {
		r.logger.Debug("verse text lookup failed", "passage", passage, "error", err)
		return "", false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		r.logger.Debug("verse text lookup returned nothing", "passage", passage)
		return "", false
	}

	return text, true
}
