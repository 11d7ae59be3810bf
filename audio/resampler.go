// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ik5/voiceforge/utils"
)

// Resampler converts an interleaved source to another sample rate with
// Catmull-Rom interpolation. The channel layout is preserved. When
// downsampling, frames pass through a one-pole low-pass first.
type Resampler struct {
	src      Source
	rate     int
	step     float64 // source frames advanced per output frame
	channels int

	// win holds the frames at t-1, t, t+1 and t+2 around the read head.
	win    [4][]float32
	pos    float64 // fractional distance past win[1]
	cur    int64   // index of the frame in win[1]
	total  int64   // real frames pulled from src so far
	primed bool
	done   bool
	in     []float32

	lowpass bool
	alpha   float32
	state   []float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	step := float64(src.SampleRate()) / float64(dstRate)

	r := &Resampler{
		src:      src,
		rate:     dstRate,
		step:     step,
		channels: channels,
		in:       make([]float32, channels),
		state:    make([]float32, channels),
		lowpass:  step > 1,
	}
	if r.lowpass {
		cutoff := 0.45 * float64(dstRate)
		r.alpha = float32(1 - math.Exp(-2*math.Pi*cutoff/float64(src.SampleRate())))
	}
	for i := range r.win {
		r.win[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.rate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

// TotalFrames estimates the output length from a sized source.
func (r *Resampler) TotalFrames() int64 {
	sized, ok := r.src.(Sized)
	if !ok {
		return 0
	}
	return int64(float64(sized.TotalFrames()) / r.step)
}

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("closing resampled source: %w", err)
	}
	return nil
}

// pull reads one frame into dst. It reports false once src is exhausted.
func (r *Resampler) pull(dst []float32) (bool, error) {
	if r.done {
		return false, nil
	}

	n, err := r.src.ReadSamples(r.in)
	if errors.Is(err, io.EOF) || (err == nil && n == 0) {
		r.done = true
	} else if err != nil {
		return false, fmt.Errorf("resampler input: %w", err)
	}
	if n < r.channels {
		r.done = true
		return false, nil
	}

	if r.lowpass {
		if r.total == 0 {
			copy(r.state, r.in)
		}
		for c, v := range r.in {
			r.state[c] += r.alpha * (v - r.state[c])
		}
		copy(dst, r.state)
	} else {
		copy(dst, r.in)
	}
	r.total++

	return true, nil
}

func (r *Resampler) prime() error {
	ok, err := r.pull(r.win[1])
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}
	copy(r.win[0], r.win[1])

	for i := 2; i < len(r.win); i++ {
		ok, err := r.pull(r.win[i])
		if err != nil {
			return err
		}
		if !ok {
			copy(r.win[i], r.win[i-1])
		}
	}

	r.primed = true
	return nil
}

func (r *Resampler) advance() error {
	first := r.win[0]
	copy(r.win[:], r.win[1:])
	r.win[3] = first
	r.cur++

	ok, err := r.pull(r.win[3])
	if err != nil {
		return err
	}
	if !ok {
		copy(r.win[3], r.win[2])
	}
	return nil
}

// ReadSamples fills dst with frames at the target rate. len(dst) must be a
// multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	n := 0
	for n < len(dst) {
		for r.pos >= 1 {
			r.pos--
			if err := r.advance(); err != nil {
				return n, err
			}
		}
		if r.done && r.cur >= r.total {
			return n, io.EOF
		}

		x := float32(r.pos)
		for c := range r.channels {
			dst[n+c] = utils.CubicInterpolate(r.win[0][c], r.win[1][c], r.win[2][c], r.win[3][c], x)
		}
		n += r.channels
		r.pos += r.step
	}

	return n, nil
}
