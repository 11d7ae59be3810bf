// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
)

// ProgressFunc receives a completion percentage in [0, 100]. It is only
// called when the percentage advances.
type ProgressFunc func(pct int)

// ReadAll drains src into a Buffer.
//
// When src implements Sized and reports a length, onProgress is called as the
// percentage of decoded frames grows. onProgress may be nil.
func ReadAll(src Source, onProgress ProgressFunc) (*Buffer, error) {
	channels := src.Channels()
	if channels <= 0 {
		return nil, ErrInvalidChannels
	}
	if src.SampleRate() <= 0 {
		return nil, ErrInvalidSampleRate
	}

	var total int64
	if sized, ok := src.(Sized); ok {
		total = sized.TotalFrames()
	}

	bufSize := src.BufSize()
	if bufSize < 4096 {
		bufSize = 4096
	}
	bufSize -= bufSize % channels

	estimate := 0
	if total > 0 {
		estimate = int(total) * channels
	}
	out := make([]float32, 0, estimate)
	buf := make([]float32, bufSize)
	lastPct := 0

	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			out = append(out, buf[:n]...)

			if total > 0 && onProgress != nil {
				pct := int(int64(len(out)/channels) * 100 / total)
				if pct > 100 {
					pct = 100
				}
				if pct != lastPct {
					onProgress(pct)
					lastPct = pct
				}
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading samples: %w", err)
		}
		if n == 0 {
			// A decoder that returns nothing without an error has nothing left.
			break
		}
	}

	if len(out) == 0 {
		return nil, ErrEmptyAudio
	}

	// Drop a trailing partial frame.
	out = out[:len(out)-len(out)%channels]

	return AdoptBuffer(out, src.SampleRate(), channels)
}

// ToMono downmixes b by averaging channels. A mono buffer is returned as is.
func ToMono(b *Buffer) *Buffer {
	if b.channels == 1 {
		return b
	}

	mixer := NewMonoMixer(b.Source())
	out := make([]float32, b.Frames())
	n, err := readFull(mixer, out)
	if err != nil {
		// Buffer sources do not fail; keep what was mixed.
		out = out[:n]
	}

	return &Buffer{samples: out, sampleRate: b.sampleRate, channels: 1}
}

// Conform resamples b to rate. A buffer already at rate, or rate <= 0, is
// returned unchanged.
func Conform(b *Buffer, rate int) (*Buffer, error) {
	if rate <= 0 || rate == b.sampleRate {
		return b, nil
	}

	resampled, err := ReadAll(NewResampler(b.Source(), rate), nil)
	if err != nil {
		return nil, fmt.Errorf("resampling to %d Hz: %w", rate, err)
	}
	return resampled, nil
}

func readFull(src Source, dst []float32) (int, error) {
	read := 0
	for read < len(dst) {
		n, err := src.ReadSamples(dst[read:])
		read += n
		if errors.Is(err, io.EOF) {
			return read, nil
		}
		if err != nil {
			return read, err
		}
		if n == 0 {
			return read, nil
		}
	}
	return read, nil
}
