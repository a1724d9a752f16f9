package server

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"

	"github.com/alkime/lectio/internal/catalog"
	"github.com/alkime/lectio/internal/store"
	"github.com/alkime/lectio/pkg/collections"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleListRecordings(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	recordings, err := s.store.ListRecordings(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, collections.Apply(recordings, toRecordingJSON))
}

func (s *Server) handleCreateRecording(c *gin.Context) {
	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "file is required"})
		return
	}

	f, err := header.Open()
	if err != nil {
		s.fail(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.fail(c, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	id, err := s.store.CreateRecording(c.Request.Context(), store.NewRecording{
		BibleID:           form.BibleID,
		ChapterID:         form.ChapterID,
		VerseStart:        *form.VerseStart,
		VerseEnd:          *form.VerseEnd,
		DurationSeconds:   form.DurationSeconds,
		TranscriptionText: form.TranscriptionText,
		File:              data,
		MIME:              header.Header.Get("Content-Type"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	s.logger.Info("recording stored", "recording_id", id, "bytes", len(data))
	c.JSON(http.StatusOK, gin.H{"recording_id": id})
}

func (s *Server) handleAudio(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	audio, err := s.store.Audio(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Data(http.StatusOK, audio.MIME, audio.Data)
}

func (s *Server) handleUpdateRecording(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	if err := s.store.UpdateRecording(c.Request.Context(), id, store.RecordingUpdate(req)); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleDeleteRecording(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := s.store.DeleteRecording(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleDownload(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	files, err := s.store.AudioFiles(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", "attachment; filename=bible.zip")
	c.Status(http.StatusOK)

	if err := writeArchive(c.Writer, files); err != nil {
		// Headers are already sent; the truncated zip is the only signal.
		s.logger.Error("failed to write archive", "bible_id", id, "error", err)
	}
}

// writeArchive writes one entry per file as Book/CC.ext, adding _NNN for
// repeated chapters.
func writeArchive(w io.Writer, files []store.AudioFile) error {
	zw := zip.NewWriter(w)
	counter := make(map[string]int)

	for _, f := range files {
		key := fmt.Sprintf("%s/%02d", f.BookName, f.ChapterNumber)
		counter[key]++

		name := key
		if n := counter[key]; n > 1 {
			name += fmt.Sprintf("_%03d", n)
		}

		//nolint:exhaustruct // name and method are all an entry needs
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:   name + catalog.AudioExtension(f.MIME),
			Method: zip.Deflate,
		})
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", name, err)
		}

		if _, err := entry.Write(f.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}

	return nil
}
