// SPDX-License-Identifier: EPL-2.0

// Package spectrum computes the magnitude spectrum shown under the play head.
//
// An Analyzer owns an FFT plan and a Hann window for one size, so the
// orchestrator can refresh the display every tick without allocating plans.
//
//	a, _ := spectrum.NewAnalyzer(2048)
//	window := spectrum.ExtractWindow(buf, state.Position(), a.Size())
//	bins, _ := a.Compute(window)
package spectrum

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/ik5/voiceforge/audio"
	"github.com/ik5/voiceforge/utils"
)

// Display range of a bin in dB.
const (
	FloorDB   = -80
	CeilingDB = 0
)

var ErrInvalidSize = errors.New("spectrum size must be a power of two >= 2")

type Analyzer struct {
	size   int
	plan   *algofft.Plan[complex128]
	window []float64
	in     []complex128
	out    []complex128
}

func NewAnalyzer(size int) (*Analyzer, error) {
	if size < 2 || bits.OnesCount(uint(size)) != 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("fft plan of %d: %w", size, err)
	}

	return &Analyzer{
		size:   size,
		plan:   plan,
		window: utils.Hann(size),
		in:     make([]complex128, size),
		out:    make([]complex128, size),
	}, nil
}

func (a *Analyzer) Size() int { return a.size }

// Bins is the number of values Compute returns.
func (a *Analyzer) Bins() int { return a.size / 2 }

// Compute windows samples, transforms them and returns Size()/2 magnitudes
// in dB, each clamped to [FloorDB, CeilingDB]. Short input is zero padded,
// extra input is ignored. An Analyzer is not safe for concurrent use.
func (a *Analyzer) Compute(samples []float32) ([]float32, error) {
	for i := range a.in {
		var s float64
		if i < len(samples) {
			s = float64(samples[i]) * a.window[i]
		}
		a.in[i] = complex(s, 0)
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		return nil, fmt.Errorf("forward fft: %w", err)
	}

	norm := math.Sqrt(float64(a.size))
	out := make([]float32, a.Bins())
	for i := range out {
		c := a.out[i]
		mag := math.Hypot(real(c), imag(c)) / norm
		db := 20 * math.Log10(math.Max(mag, 1e-10))
		out[i] = float32(math.Max(FloorDB, math.Min(CeilingDB, db)))
	}
	return out, nil
}

// BinFrequency is the centre frequency of bin i in Hz.
func (a *Analyzer) BinFrequency(i, sampleRate int) float64 {
	return float64(i) * float64(sampleRate) / float64(a.size)
}

// ExtractWindow returns size mono samples starting at the frame that holds
// interleaved position pos. Channels are averaged and the tail past the end of
// buf is zero.
func ExtractWindow(buf *audio.Buffer, pos int64, size int) []float32 {
	out := make([]float32, max(size, 0))
	if buf == nil || size <= 0 {
		return out
	}

	ch := buf.Channels()
	samples := buf.Samples()
	frames := buf.Frames()
	start := int(max(pos, 0)) / ch

	inv := 1 / float32(ch)
	for i := range out {
		f := start + i
		if f >= frames {
			break
		}
		var sum float32
		for c := range ch {
			sum += samples[f*ch+c]
		}
		out[i] = sum * inv
	}
	return out
}
