package audio

import (
	"encoding/binary"
	"sync"
)

// SampleRingBuffer keeps the most recent captured samples for the level
// meter. The UI loop writes packets while the meter reads from its own
// redraw ticks.
type SampleRingBuffer struct {
	mu      sync.RWMutex
	samples []int16
	next    int
	filled  int
}

// NewSampleRingBuffer holds up to capacity samples.
func NewSampleRingBuffer(capacity int) *SampleRingBuffer {
	return &SampleRingBuffer{ //nolint:exhaustruct // zero cursor and mutex
		samples: make([]int16, max(capacity, 1)),
	}
}

// WritePCM decodes an S16LE capture packet into the buffer. A trailing odd
// byte is ignored.
func (b *SampleRingBuffer) WritePCM(packet []byte) {
	b.Write(DecodeS16LE(packet))
}

// Write appends samples, overwriting the oldest once full.
func (b *SampleRingBuffer) Write(samples []int16) {
	if len(samples) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	size := len(b.samples)

	// only the tail can survive a write longer than the buffer
	if len(samples) > size {
		samples = samples[len(samples)-size:]
	}

	for _, s := range samples {
		b.samples[b.next] = s
		b.next = (b.next + 1) % size
	}

	b.filled = min(b.filled+len(samples), size)
}

// Last returns up to n of the newest samples, oldest first.
func (b *SampleRingBuffer) Last(n int) []int16 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n = min(n, b.filled)
	if n <= 0 {
		return nil
	}

	size := len(b.samples)
	start := (b.next - n + size) % size
	out := make([]int16, n)

	// at most two contiguous runs
	k := copy(out, b.samples[start:min(start+n, size)])
	copy(out[k:], b.samples[:n-k])

	return out
}

// Len reports how many samples are held.
func (b *SampleRingBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.filled
}

// Reset discards all samples, used when a new take starts.
func (b *SampleRingBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next = 0
	b.filled = 0
}

// DecodeS16LE converts signed 16-bit little-endian PCM to samples.
func DecodeS16LE(pcm []byte) []int16 {
	if len(pcm) < 2 {
		return nil
	}

	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[2*i:]))
	}

	return samples
}

// Meter exposes the newest window of a ring buffer as waveform levels.
type Meter struct {
	buf    *SampleRingBuffer
	window int
}

// NewMeter reads the last window samples of buf.
func NewMeter(buf *SampleRingBuffer, window int) *Meter {
	return &Meter{buf: buf, window: window}
}

// Read implements uictl.Levels.
func (m *Meter) Read() []int16 {
	return m.buf.Last(m.window)
}
