package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/alkime/lectio/internal/stats"
	"github.com/alkime/lectio/internal/store"
	"github.com/alkime/lectio/pkg/collections"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleListBibles(c *gin.Context) {
	bibles, err := s.store.ListBibles(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, collections.Apply(bibles, toBibleJSON))
}

func (s *Server) handleListVersions(c *gin.Context) {
	versions := s.scripture.Versions()
	if len(versions) == 0 {
		versions = []string{store.DefaultVersion}
	}

	c.JSON(http.StatusOK, versions)
}

func (s *Server) handleListBooks(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	books, err := s.store.ListBooks(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, collections.Apply(books, toBookJSON))
}

func (s *Server) handleListChapters(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	chapters, err := s.store.ListChapters(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, collections.Apply(chapters, toChapterJSON))
}

func (s *Server) handleVerses(c *gin.Context) {
	var q verseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	text, err := s.scripture.Passage(q.Book, q.Chapter, *q.Start, *q.End, q.Version)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Passage not found"})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": text})
}

func (s *Server) handleAnalytics(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	values, err := s.store.WPMValues(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"wpm_stats": stats.Summarize(values, s.config.HistogramBuckets)})
}

// fail maps store errors onto HTTP responses with a detail message.
func (s *Server) fail(c *gin.Context, err error) {
	status, detail := http.StatusInternalServerError, "Internal server error"

	switch {
	case errors.Is(err, store.ErrNotFound):
		status, detail = http.StatusNotFound, "Not found"
	case errors.Is(err, store.ErrInvalidChapter):
		status, detail = http.StatusBadRequest, "Invalid chapter"
	case errors.Is(err, store.ErrInvalidVerseRange):
		status, detail = http.StatusBadRequest, "Invalid verse range"
	case errors.Is(err, store.ErrVerseEndExceedsChapter):
		status, detail = http.StatusBadRequest, "Verse end exceeds chapter"
	case errors.Is(err, store.ErrEmptyFile):
		status, detail = http.StatusBadRequest, "Empty file"
	default:
		s.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}

	c.JSON(status, gin.H{"detail": detail})
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "id must be an integer"})
		return 0, false
	}

	return id, true
}
