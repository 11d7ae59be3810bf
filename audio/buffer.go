// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"time"
)

// Buffer is a fully decoded block of interleaved float32 PCM.
//
// A Buffer never changes after construction. Any transformation produces a
// new Buffer, so the same *Buffer can be read at the same time by the
// processing worker, the orchestrator and the playback callback.
type Buffer struct {
	samples    []float32
	sampleRate int
	channels   int
}

// NewBuffer copies samples into a new Buffer.
func NewBuffer(samples []float32, sampleRate, channels int) (*Buffer, error) {
	cp := make([]float32, len(samples))
	copy(cp, samples)
	return AdoptBuffer(cp, sampleRate, channels)
}

// AdoptBuffer wraps samples without copying. The caller hands over ownership
// and must not write to samples afterwards.
func AdoptBuffer(samples []float32, sampleRate, channels int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples, %d channels", ErrPartialFrame, len(samples), channels)
	}
	return &Buffer{samples: samples, sampleRate: sampleRate, channels: channels}, nil
}

// Samples returns the interleaved samples. The slice is shared; do not modify it.
func (b *Buffer) Samples() []float32 { return b.samples }
func (b *Buffer) SampleRate() int    { return b.sampleRate }
func (b *Buffer) Channels() int      { return b.channels }

// Len is the number of interleaved samples (all channels).
func (b *Buffer) Len() int { return len(b.samples) }

// Frames is the number of samples per channel.
func (b *Buffer) Frames() int { return len(b.samples) / b.channels }

// Duration of the buffer at its sample rate.
func (b *Buffer) Duration() time.Duration {
	return time.Duration(float64(b.Frames()) / float64(b.sampleRate) * float64(time.Second))
}

// Seconds converts an interleaved sample position to seconds.
func (b *Buffer) Seconds(pos int64) float64 {
	return float64(pos) / float64(b.sampleRate*b.channels)
}

func (b *Buffer) String() string {
	return fmt.Sprintf("%d Hz, %d ch, %.2fs", b.sampleRate, b.channels, b.Duration().Seconds())
}

// Source returns a streaming view of the buffer so it can feed a Resampler
// or a MonoMixer.
func (b *Buffer) Source() Source {
	return &bufferSource{buf: b}
}

type bufferSource struct {
	buf *Buffer
	pos int
}

func (s *bufferSource) SampleRate() int { return s.buf.sampleRate }
func (s *bufferSource) Channels() int   { return s.buf.channels }
func (s *bufferSource) BufSize() int    { return 4096 }
func (s *bufferSource) Close() error    { return nil }
func (s *bufferSource) TotalFrames() int64 {
	return int64(s.buf.Frames())
}

func (s *bufferSource) ReadSamples(dst []float32) (int, error) {
	if s.pos >= len(s.buf.samples) {
		return 0, io.EOF
	}
	// Only hand out whole frames.
	n := len(dst) - len(dst)%s.buf.channels
	n = copy(dst[:n], s.buf.samples[s.pos:])
	s.pos += n
	if s.pos >= len(s.buf.samples) {
		return n, io.EOF
	}
	return n, nil
}
