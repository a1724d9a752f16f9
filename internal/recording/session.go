// Package recording drives the capture device through a single recording and
// its upload.
//
// A Session is owned by one goroutine (the UI loop). Packets produced by the
// device cross over on the channel returned by Device.Acquire and are pulled
// into the chunk sequence by Drain on that same goroutine.
package recording

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/alkime/lectio/internal/catalog"
	"github.com/alkime/lectio/internal/selection"
)

var (
	// ErrDeviceUnavailable is returned when the capture device cannot be acquired.
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	// ErrAlreadyRecording is returned by Start while recording.
	ErrAlreadyRecording = errors.New("already recording")
	// ErrBusy is returned by Start while an upload is in flight.
	ErrBusy = errors.New("upload in progress")
	// ErrIncompleteRecording is returned when upload lacks audio or a full selection.
	ErrIncompleteRecording = errors.New("incomplete recording")
	// ErrUploadNotAllowed is returned when upload is attempted from a state that
	// has nothing to send.
	ErrUploadNotAllowed = errors.New("upload not allowed")
)

// MIMERawPCM labels unencoded uploads.
const MIMERawPCM = "application/octet-stream"

// Device is the exclusive capture resource.
type Device interface {
	Acquire(ctx context.Context) (<-chan []byte, error)
	Release(ctx context.Context) error
}

// Encoder wraps the concatenated chunk sequence into an audio container.
type Encoder interface {
	Encode(chunks [][]byte) ([]byte, string, error)
}

// Submitter receives finished recordings.
type Submitter interface {
	SubmitRecording(ctx context.Context, sub catalog.Submission) (int64, error)
}

// Config holds optional collaborators. Zero values fall back to wall clock,
// raw PCM payloads and the default logger.
type Config struct {
	Now     func() time.Time
	Encoder Encoder
	Logger  *slog.Logger
}

// Session is the recording state machine.
type Session struct {
	device  Device
	now     func() time.Time
	encoder Encoder
	logger  *slog.Logger

	state     State
	startedAt time.Time
	elapsed   int
	packets   <-chan []byte
	chunks    [][]byte
	payload   *catalog.Submission
	lastErr   error
}

// New creates an idle session for device.
func New(device Device, config Config) *Session {
	if config.Now == nil {
		config.Now = time.Now
	}

	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Session{ //nolint:exhaustruct // idle session has no recording data
		device:  device,
		now:     config.Now,
		encoder: config.Encoder,
		logger:  config.Logger,
		state:   Idle,
	}
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Start acquires the device and begins a new recording, discarding any
// previous audio. If the device cannot be acquired the state is unchanged.
func (s *Session) Start(ctx context.Context) error {
	switch s.state {
	case Recording:
		return ErrAlreadyRecording
	case Uploading:
		return ErrBusy
	case Idle, Stopped, UploadFailed, UploadSucceeded:
	}

	packets, err := s.device.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
	}

	s.packets = packets
	s.chunks = nil
	s.payload = nil
	s.lastErr = nil
	s.elapsed = 0
	s.startedAt = s.now()
	s.state = Recording

	s.logger.Debug("recording started", "at", s.startedAt)

	return nil
}

// Append adds a chunk to the sequence. Chunks outside Recording are dropped.
func (s *Session) Append(chunk []byte) bool {
	if s.state != Recording || len(chunk) == 0 {
		return false
	}

	s.chunks = append(s.chunks, chunk)

	return true
}

// Drain appends every packet already waiting on the device channel without
// blocking and returns them.
func (s *Session) Drain() [][]byte {
	if s.state != Recording {
		return nil
	}

	return s.drain()
}

func (s *Session) drain() [][]byte {
	var drained [][]byte

	for s.packets != nil {
		select {
		case packet, ok := <-s.packets:
			if !ok {
				s.packets = nil
				continue
			}

			if len(packet) > 0 {
				s.chunks = append(s.chunks, packet)
				drained = append(drained, packet)
			}
		default:
			return drained
		}
	}

	return drained
}

// Stop ends the recording, fixes the elapsed time and releases the device.
// Stop outside Recording is a no-op.
func (s *Session) Stop(ctx context.Context) error {
	if s.state != Recording {
		return nil
	}

	s.elapsed = roundSeconds(s.now().Sub(s.startedAt))
	s.state = Stopped

	err := s.device.Release(ctx)

	// packets delivered before the release still belong to this recording
	s.drain()
	s.packets = nil

	s.logger.Debug("recording stopped", "elapsed_seconds", s.elapsed, "chunks", len(s.chunks))

	if err != nil {
		return fmt.Errorf("failed to release capture device: %w", err)
	}

	return nil
}

// ElapsedSeconds is the live elapsed time while recording and the fixed
// duration afterwards.
func (s *Session) ElapsedSeconds() int {
	if s.state == Recording {
		return roundSeconds(s.now().Sub(s.startedAt))
	}

	return s.elapsed
}

// Elapsed is the unrounded live duration while recording.
func (s *Session) Elapsed() time.Duration {
	if s.state == Recording {
		return s.now().Sub(s.startedAt)
	}

	return time.Duration(s.elapsed) * time.Second
}

// ChunkCount returns the number of chunks held.
func (s *Session) ChunkCount() int {
	return len(s.chunks)
}

// Bytes returns the total size of the chunk sequence.
func (s *Session) Bytes() int {
	n := 0
	for _, c := range s.chunks {
		n += len(c)
	}

	return n
}

// Chunks returns a copy of the chunk sequence.
func (s *Session) Chunks() [][]byte {
	return append([][]byte(nil), s.chunks...)
}

// CanUpload reports whether BeginUpload may succeed from the current state.
func (s *Session) CanUpload() bool {
	return (s.state == Stopped && s.Bytes() > 0) || s.state == UploadFailed
}

// LastError returns the failure of the most recent upload attempt.
func (s *Session) LastError() error {
	return s.lastErr
}

// BeginUpload assembles the upload payload and moves to Uploading. From
// UploadFailed the retained payload is reused unchanged and snap is ignored.
func (s *Session) BeginUpload(snap selection.Snapshot) (catalog.Submission, error) {
	switch s.state {
	case UploadFailed:
		s.state = Uploading
		return *s.payload, nil
	case Stopped:
	case Idle, Recording, Uploading, UploadSucceeded:
		return catalog.Submission{}, fmt.Errorf("%w: %s", ErrUploadNotAllowed, s.state) //nolint:exhaustruct // empty
	}

	if s.Bytes() == 0 {
		return catalog.Submission{}, fmt.Errorf("%w: no audio captured", ErrIncompleteRecording) //nolint:exhaustruct // empty
	}

	if !snap.Complete() {
		return catalog.Submission{}, fmt.Errorf("%w: selection not fully resolved", ErrIncompleteRecording) //nolint:exhaustruct // empty
	}

	data, mime, err := s.encode()
	if err != nil {
		return catalog.Submission{}, fmt.Errorf("failed to encode recording: %w", err) //nolint:exhaustruct // empty
	}

	s.payload = &catalog.Submission{
		TranslationID:     snap.TranslationID,
		ChapterID:         snap.ChapterID,
		VerseStart:        snap.VerseStart,
		VerseEnd:          snap.VerseEnd,
		DurationSeconds:   s.elapsed,
		TranscriptionText: snap.Transcription,
		Audio:             data,
		AudioMIME:         mime,
	}
	s.state = Uploading

	return *s.payload, nil
}

// CompleteUpload records the outcome of the upload started by BeginUpload.
func (s *Session) CompleteUpload(err error) {
	if s.state != Uploading {
		return
	}

	if err != nil {
		s.lastErr = err
		s.state = UploadFailed
		s.logger.Warn("upload failed", "error", err)

		return
	}

	s.chunks = nil
	s.payload = nil
	s.lastErr = nil
	s.state = UploadSucceeded
}

// Upload runs BeginUpload, submits the payload and completes the upload.
func (s *Session) Upload(ctx context.Context, submitter Submitter, snap selection.Snapshot) (int64, error) {
	payload, err := s.BeginUpload(snap)
	if err != nil {
		return 0, err
	}

	id, err := submitter.SubmitRecording(ctx, payload)
	s.CompleteUpload(err)

	if err != nil {
		return 0, fmt.Errorf("failed to submit recording: %w", err)
	}

	return id, nil
}

// Close releases the device if a recording is still running.
func (s *Session) Close(ctx context.Context) error {
	return s.Stop(ctx)
}

func (s *Session) encode() ([]byte, string, error) {
	if s.encoder != nil {
		return s.encoder.Encode(s.chunks)
	}

	data := make([]byte, 0, s.Bytes())
	for _, c := range s.chunks {
		data = append(data, c...)
	}

	return data, MIMERawPCM, nil
}

func roundSeconds(d time.Duration) int {
	return int(math.Round(d.Seconds()))
}
