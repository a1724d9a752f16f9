package audio_test

import (
	"sync"
	"testing"

	"github.com/alkime/lectio/internal/audio"
	"github.com/stretchr/testify/require"
)

func TestSampleRingBuffer_Last(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		capacity int
		writes   [][]int16
		n        int
		want     []int16
	}{
		{
			name:     "empty buffer",
			capacity: 4,
			n:        4,
			want:     nil,
		},
		{
			name:     "empty write",
			capacity: 4,
			writes:   [][]int16{{}},
			n:        4,
			want:     nil,
		},
		{
			name:     "fewer than requested",
			capacity: 10,
			writes:   [][]int16{{1, 2, 3}},
			n:        5,
			want:     []int16{1, 2, 3},
		},
		{
			name:     "newest window",
			capacity: 10,
			writes:   [][]int16{{1, 2, 3, 4, 5}},
			n:        2,
			want:     []int16{4, 5},
		},
		{
			name:     "wraps across packets",
			capacity: 5,
			writes:   [][]int16{{1, 2, 3}, {4, 5, 6, 7}},
			n:        5,
			want:     []int16{3, 4, 5, 6, 7},
		},
		{
			name:     "packet longer than buffer keeps tail",
			capacity: 3,
			writes:   [][]int16{{9}, {1, 2, 3, 4, 5, 6}},
			n:        3,
			want:     []int16{4, 5, 6},
		},
		{
			name:     "zero requested",
			capacity: 4,
			writes:   [][]int16{{1, 2}},
			n:        0,
			want:     nil,
		},
		{
			name:     "negative requested",
			capacity: 4,
			writes:   [][]int16{{1, 2}},
			n:        -1,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			buf := audio.NewSampleRingBuffer(tt.capacity)
			for _, w := range tt.writes {
				buf.Write(w)
			}

			require.Equal(t, tt.want, buf.Last(tt.n))
			require.LessOrEqual(t, buf.Len(), tt.capacity)
		})
	}
}

func TestSampleRingBuffer_WritePCM(t *testing.T) {
	t.Parallel()

	buf := audio.NewSampleRingBuffer(8)

	// two packets, the second with a dangling byte
	buf.WritePCM([]byte{0x01, 0x00, 0xFF, 0xFF})
	buf.WritePCM([]byte{0x00, 0x80, 0x07})

	require.Equal(t, 3, buf.Len())
	require.Equal(t, []int16{1, -1, -32768}, buf.Last(8))
}

func TestSampleRingBuffer_ResetBetweenTakes(t *testing.T) {
	t.Parallel()

	buf := audio.NewSampleRingBuffer(4)
	buf.Write([]int16{1, 2, 3})
	buf.Reset()

	require.Zero(t, buf.Len())
	require.Nil(t, buf.Last(4))

	buf.Write([]int16{9})
	require.Equal(t, []int16{9}, buf.Last(4))
}

func TestSampleRingBuffer_ConcurrentMeterReads(t *testing.T) {
	t.Parallel()

	buf := audio.NewSampleRingBuffer(256)
	meter := audio.NewMeter(buf, 64)

	var (
		wg      sync.WaitGroup
		longest int
	)

	wg.Go(func() {
		for i := range 500 {
			buf.Write([]int16{int16(i), int16(-i)})
		}
	})

	wg.Go(func() {
		for range 500 {
			longest = max(longest, len(meter.Read()))
		}
	})

	wg.Wait()
	require.LessOrEqual(t, longest, 64)
	require.Equal(t, 256, buf.Len())
}

func TestDecodeS16LE(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pcm  []byte
		want []int16
	}{
		{name: "empty", pcm: nil, want: nil},
		{name: "single byte", pcm: []byte{0x01}, want: nil},
		{name: "little endian", pcm: []byte{0x00, 0x01}, want: []int16{256}},
		{name: "silence then peaks", pcm: []byte{0x00, 0x00, 0xFF, 0x7F, 0x00, 0x80}, want: []int16{0, 32767, -32768}},
		{name: "odd length", pcm: []byte{0x02, 0x00, 0x09}, want: []int16{2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, audio.DecodeS16LE(tt.pcm))
		})
	}
}

func TestMeter_ReadsWindow(t *testing.T) {
	t.Parallel()

	buf := audio.NewSampleRingBuffer(10)
	buf.WritePCM([]byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00})

	meter := audio.NewMeter(buf, 2)
	require.Equal(t, []int16{2, 3}, meter.Read())
}
