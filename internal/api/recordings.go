package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/alkime/lectio/internal/catalog"
	"github.com/alkime/lectio/pkg/collections"
)

// SubmitRecording uploads a finished recording and returns its id.
func (c *Client) SubmitRecording(ctx context.Context, sub catalog.Submission) (int64, error) {
	body, contentType, err := encodeSubmission(sub)
	if err != nil {
		return 0, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/recordings", body.Bytes(), contentType)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var created createdResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, fmt.Errorf("failed to decode upload response: %w", err)
	}

	return created.RecordingID, nil
}

// ListRecordings lists the recordings of a translation.
func (c *Client) ListRecordings(ctx context.Context, translationID int64) ([]catalog.Recording, error) {
	var rows []recordingRow
	if err := c.getJSON(ctx, fmt.Sprintf("/api/bibles/%d/recordings", translationID), &rows); err != nil {
		return nil, err
	}

	recordings, err := collections.TryApply(rows, recordingRow.recording)
	if err != nil {
		return nil, fmt.Errorf("failed to decode recordings: %w", err)
	}

	return recordings, nil
}

// UpdateRecording edits the verse range or transcription of a recording.
func (c *Client) UpdateRecording(ctx context.Context, recordingID int64, update RecordingUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/recordings/%d", recordingID), body, "application/json")
	if err != nil {
		return err
	}

	return resp.Body.Close()
}

// FetchAudio streams the audio of a recording together with its MIME type.
// The caller must close the stream.
func (c *Client) FetchAudio(ctx context.Context, recordingID int64) (io.ReadCloser, string, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/recordings/%d/audio", recordingID), nil, "")
	if err != nil {
		return nil, "", err
	}

	return resp.Body, resp.Header.Get("Content-Type"), nil
}

// DeleteRecording removes a recording.
func (c *Client) DeleteRecording(ctx context.Context, recordingID int64) error {
	resp, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/recordings/%d", recordingID), nil, "")
	if err != nil {
		return err
	}

	return resp.Body.Close()
}

// DownloadArchive streams a zip of every recording of a translation.
// The caller must close the stream.
func (c *Client) DownloadArchive(ctx context.Context, translationID int64) (io.ReadCloser, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/bibles/%d/download", translationID), nil, "")
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

func encodeSubmission(sub catalog.Submission) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := []struct{ name, value string }{
		{"bible_id", strconv.FormatInt(sub.TranslationID, 10)},
		{"chapter_id", strconv.FormatInt(sub.ChapterID, 10)},
		{"verse_index_start", strconv.Itoa(sub.VerseStart)},
		{"verse_index_end", strconv.Itoa(sub.VerseEnd)},
		{"duration_seconds", strconv.Itoa(sub.DurationSeconds)},
		{"transcription_text", sub.TranscriptionText},
	}

	for _, f := range fields {
		if err := writer.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}

	mime := sub.AudioMIME
	if mime == "" {
		mime = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+AudioFilename(mime)+`"`)
	header.Set("Content-Type", mime)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(sub.Audio); err != nil {
		return nil, "", fmt.Errorf("failed to copy audio to form: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

// AudioFilename names an upload by its MIME type.
func AudioFilename(mime string) string {
	return "recording" + catalog.AudioExtension(mime)
}
