// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds synthetic sources and buffers shared by tests.
package audiotest

import (
	"io"
	"math"
)

// Waveform returns the sample for frame index i on channel ch.
type Waveform func(i, ch int) float32

// Source generates frames from a Waveform. It satisfies audio.Source and
// audio.Sized without importing the audio package.
type Source struct {
	rate     int
	channels int
	frames   int
	pos      int
	wave     Waveform

	// Fail, when set, is returned once pos reaches FailAt.
	Fail   error
	FailAt int
}

func NewSource(rate, channels, frames int, wave Waveform) *Source {
	return &Source{rate: rate, channels: channels, frames: frames, wave: wave}
}

func NewSilentSource(rate, channels, frames int) *Source {
	return NewSource(rate, channels, frames, func(int, int) float32 { return 0 })
}

func NewSineSource(rate, channels, frames int, freq float64) *Source {
	return NewSource(rate, channels, frames, Sine(rate, freq, 1))
}

func NewConstantSource(rate, channels, frames int, value float32) *Source {
	return NewSource(rate, channels, frames, func(int, int) float32 { return value })
}

// Sine is a Waveform with the same phase on every channel.
func Sine(rate int, freq, amp float64) Waveform {
	return func(i, _ int) float32 {
		return float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
}

func (s *Source) SampleRate() int    { return s.rate }
func (s *Source) Channels() int      { return s.channels }
func (s *Source) BufSize() int       { return 4096 }
func (s *Source) Close() error       { return nil }
func (s *Source) TotalFrames() int64 { return int64(s.frames) }

// Rewind starts generation from frame zero again.
func (s *Source) Rewind() { s.pos = 0 }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if s.Fail != nil && s.pos >= s.FailAt {
		return 0, s.Fail
	}
	if s.pos >= s.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/s.channels, s.frames-s.pos)
	if s.Fail != nil {
		n = min(n, s.FailAt-s.pos)
	}
	for f := range n {
		for ch := range s.channels {
			dst[f*s.channels+ch] = s.wave(s.pos+f, ch)
		}
	}
	s.pos += n

	if s.pos >= s.frames {
		return n * s.channels, io.EOF
	}
	return n * s.channels, nil
}

// Interleave renders frames of wave into a fresh interleaved slice.
func Interleave(channels, frames int, wave Waveform) []float32 {
	out := make([]float32, channels*frames)
	for f := range frames {
		for ch := range channels {
			out[f*channels+ch] = wave(f, ch)
		}
	}
	return out
}

// Ramp returns n samples counting 0, 1, 2, ... as float32. Handy when a test
// needs to know exactly which sample ended up where.
func Ramp(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i)
	}
	return out
}
