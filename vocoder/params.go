// SPDX-License-Identifier: EPL-2.0

package vocoder

import (
	"fmt"
	"slices"
)

// MaxSynthesisSamples caps synthesis output at ten minutes of 96 kHz audio.
const MaxSynthesisSamples = 96000 * 60 * 10

// Params is the intermediate representation produced by analysis: one entry
// per frame of pitch, time, spectral envelope and aperiodicity. Envelope and
// aperiodicity rows hold FFTSize/2+1 bins.
type Params struct {
	F0                []float64
	TemporalPositions []float64 // seconds
	Spectrogram       [][]float64
	Aperiodicity      [][]float64
	FFTSize           int
	FramePeriod       float64 // milliseconds
}

// Frames is the number of analysis frames.
func (p *Params) Frames() int { return len(p.F0) }

// Bins is the width of a spectrogram row.
func (p *Params) Bins() int { return p.FFTSize/2 + 1 }

// Clone returns a deep copy.
func (p *Params) Clone() *Params {
	c := &Params{
		F0:                slices.Clone(p.F0),
		TemporalPositions: slices.Clone(p.TemporalPositions),
		Spectrogram:       make([][]float64, len(p.Spectrogram)),
		Aperiodicity:      make([][]float64, len(p.Aperiodicity)),
		FFTSize:           p.FFTSize,
		FramePeriod:       p.FramePeriod,
	}
	for i, row := range p.Spectrogram {
		c.Spectrogram[i] = slices.Clone(row)
	}
	for i, row := range p.Aperiodicity {
		c.Aperiodicity[i] = slices.Clone(row)
	}
	return c
}

// Validate checks that every per-frame slice has the same length and every
// row has FFTSize/2+1 bins.
func (p *Params) Validate() error {
	frames := len(p.F0)
	if frames == 0 {
		return fmt.Errorf("%w: f0 must not be empty", ErrInvalidParams)
	}
	if p.FFTSize <= 0 {
		return fmt.Errorf("%w: fft size must be positive", ErrInvalidParams)
	}
	if p.FramePeriod <= 0 {
		return fmt.Errorf("%w: frame period must be positive", ErrInvalidParams)
	}
	if len(p.TemporalPositions) != frames {
		return fmt.Errorf("%w: temporal positions length (%d) != f0 length (%d)",
			ErrInvalidParams, len(p.TemporalPositions), frames)
	}
	if len(p.Spectrogram) != frames {
		return fmt.Errorf("%w: spectrogram rows (%d) != f0 length (%d)",
			ErrInvalidParams, len(p.Spectrogram), frames)
	}
	if len(p.Aperiodicity) != frames {
		return fmt.Errorf("%w: aperiodicity rows (%d) != f0 length (%d)",
			ErrInvalidParams, len(p.Aperiodicity), frames)
	}

	bins := p.Bins()
	for i, row := range p.Spectrogram {
		if len(row) != bins {
			return fmt.Errorf("%w: spectrogram[%d] width (%d) != fft_size/2+1 (%d)",
				ErrInvalidParams, i, len(row), bins)
		}
	}
	for i, row := range p.Aperiodicity {
		if len(row) != bins {
			return fmt.Errorf("%w: aperiodicity[%d] width (%d) != fft_size/2+1 (%d)",
				ErrInvalidParams, i, len(row), bins)
		}
	}
	return nil
}
