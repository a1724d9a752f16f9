package audio

import (
	"bytes"
	"errors"
	"fmt"

	mp3encoder "github.com/braheezy/shine-mp3/pkg/mp3"
)

// MIMEMP3 is the content type of EncodeMP3 output.
const MIMEMP3 = "audio/mpeg"

// ErrNoAudio is returned when there is nothing to encode.
var ErrNoAudio = errors.New("no audio to encode")

// EncoderConfig configures MP3 encoding.
type EncoderConfig struct {
	// SampleRate is the audio sample rate in Hz (default: 16000 for Whisper).
	SampleRate int

	// Channels is the number of audio channels (default: 1 for mono).
	// Note: Internally converted to stereo for shine-mp3 encoder workaround.
	Channels int
}

// Validate returns an error if the config is invalid.
func (c EncoderConfig) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}

	if c.Channels != 1 && c.Channels != 2 {
		return errors.New("only mono or stereo is supported")
	}

	return nil
}

// WithDefaults returns a config with default values applied to zero fields.
func (c EncoderConfig) WithDefaults() EncoderConfig {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}

	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}

	return c
}

// EncodeMP3 concatenates S16LE PCM chunks in order and encodes them as MP3.
func EncodeMP3(config EncoderConfig, chunks [][]byte) ([]byte, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid encoder config: %w", err)
	}

	var pcm bytes.Buffer
	for _, chunk := range chunks {
		pcm.Write(chunk)
	}

	samples := DecodeS16LE(pcm.Bytes())
	if len(samples) == 0 {
		return nil, ErrNoAudio
	}

	// WORKAROUND: shine-mp3 Write() mishandles mono, so duplicate into L=R
	if config.Channels == 1 {
		stereo := make([]int16, len(samples)*2)
		for i, sample := range samples {
			stereo[i*2] = sample
			stereo[i*2+1] = sample
		}
		samples = stereo
	}

	encoder := mp3encoder.NewEncoder(config.SampleRate, 2)

	var out bytes.Buffer
	if err := encoder.Write(&out, samples); err != nil {
		return nil, fmt.Errorf("failed to encode audio to MP3: %w", err)
	}

	return out.Bytes(), nil
}

// Encoder adapts EncodeMP3 to the recording session's encode hook.
type Encoder struct {
	Config EncoderConfig
}

// Encode encodes chunks and reports the MIME type of the result.
func (e Encoder) Encode(chunks [][]byte) ([]byte, string, error) {
	data, err := EncodeMP3(e.Config.WithDefaults(), chunks)
	if err != nil {
		return nil, "", err
	}

	return data, MIMEMP3, nil
}
