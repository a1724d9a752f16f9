package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/alkime/lectio/internal/catalog"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Whisper transcribes captured audio with the OpenAI Whisper API. It is used
// to dictate a transcription when no canonical verse text is available.
type Whisper struct {
	apiKey string
}

// NewWhisper creates a new Whisper transcriber.
func NewWhisper(apiKey string) *Whisper {
	return &Whisper{
		apiKey: apiKey,
	}
}

// TranscribeAudio transcribes an encoded audio stream.
func (w *Whisper) TranscribeAudio(ctx context.Context, audio io.Reader) (string, error) {
	if w.apiKey == "" {
		return "", errors.New("API key required: set OPENAI_API_KEY or run 'lectio config set-key openai <key>'")
	}

	client := openai.NewClient(option.WithAPIKey(w.apiKey))

	params := openai.AudioTranscriptionNewParams{ //nolint:exhaustruct // Only File and Model required
		File:  audio,
		Model: openai.AudioModelWhisper1,
	}

	resp, err := client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription via Whisper API: %w", err)
	}

	return resp.Text, nil
}

// TranscribeRecording transcribes an in-memory recording. The MIME type names
// the upload so the API can detect the container.
func (w *Whisper) TranscribeRecording(ctx context.Context, data []byte, mime string) (string, error) {
	return w.TranscribeAudio(ctx, openai.File(bytes.NewReader(data), "dictation"+catalog.AudioExtension(mime), mime))
}
