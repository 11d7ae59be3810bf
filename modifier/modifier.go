// SPDX-License-Identifier: EPL-2.0

// Package modifier turns slider positions into edits of vocoder parameters.
package modifier

import (
	"math"

	"github.com/ik5/voiceforge/vocoder"
)

// SliderValues are the user-facing vocoder controls.
type SliderValues struct {
	PitchShift   float64 // semitones
	PitchRange   float64 // scale around the mean voiced pitch, 1 = unchanged
	Speed        float64 // 2 = twice as fast
	Breathiness  float64 // added to aperiodicity
	FormantShift float64 // semitones
	SpectralTilt float64 // dB per octave

	// Bypass plays the analyzed original regardless of the other values.
	Bypass bool
}

// Neutral returns the slider positions that leave the parameters unchanged.
func Neutral() SliderValues {
	return SliderValues{PitchRange: 1, Speed: 1}
}

// IsNeutral reports whether every slider is within eps of its neutral
// position. Bypass is not considered.
func (v SliderValues) IsNeutral(eps float64) bool {
	near := func(x, want float64) bool { return math.Abs(x-want) <= eps }
	return near(v.PitchShift, 0) &&
		near(v.PitchRange, 1) &&
		near(v.Speed, 1) &&
		near(v.Breathiness, 0) &&
		near(v.FormantShift, 0) &&
		near(v.SpectralTilt, 0)
}

// Apply returns a modified copy of p. p is not changed.
func Apply(p *vocoder.Params, v SliderValues) *vocoder.Params {
	out := p.Clone()

	pitchShift(out, v.PitchShift)
	pitchRange(out, v.PitchRange)
	speed(out, v.Speed)
	breathiness(out, v.Breathiness)
	formantShift(out, v.FormantShift)
	spectralTilt(out, v.SpectralTilt)

	return out
}

// pitchShift scales voiced f0 by 2^(semitones/12).
func pitchShift(p *vocoder.Params, semitones float64) {
	if semitones == 0 {
		return
	}
	ratio := math.Pow(2, semitones/12)
	for i, f0 := range p.F0 {
		if f0 > 0 {
			p.F0[i] = f0 * ratio
		}
	}
}

// pitchRange expands or compresses voiced f0 around its mean.
func pitchRange(p *vocoder.Params, scale float64) {
	if scale == 1 {
		return
	}

	var sum float64
	var voiced int
	for _, f0 := range p.F0 {
		if f0 > 0 {
			sum += f0
			voiced++
		}
	}
	if voiced == 0 {
		return
	}
	mean := sum / float64(voiced)

	for i, f0 := range p.F0 {
		if f0 > 0 {
			p.F0[i] = max(0, mean+(f0-mean)*scale)
		}
	}
}

// speed resamples every per-frame track to round(frames/factor) frames.
func speed(p *vocoder.Params, factor float64) {
	if factor == 1 || factor <= 0 {
		return
	}
	oldLen := len(p.F0)
	if oldLen == 0 {
		return
	}
	newLen := max(1, int(math.Round(float64(oldLen)/factor)))

	p.F0 = resample(p.F0, newLen)
	p.TemporalPositions = make([]float64, newLen)
	for i := range newLen {
		p.TemporalPositions[i] = float64(i) * p.FramePeriod / 1000
	}
	p.Spectrogram = resampleRows(p.Spectrogram, newLen)
	p.Aperiodicity = resampleRows(p.Aperiodicity, newLen)
}

// breathiness pushes aperiodicity towards 1.
func breathiness(p *vocoder.Params, amount float64) {
	if amount == 0 {
		return
	}
	for _, row := range p.Aperiodicity {
		for k, v := range row {
			row[k] = math.Max(0, math.Min(1, v+amount))
		}
	}
}

// formantShift warps the envelope frequency axis: destination bin k reads
// source bin k/ratio.
func formantShift(p *vocoder.Params, semitones float64) {
	if semitones == 0 {
		return
	}
	ratio := math.Pow(2, semitones/12)
	width := p.Bins()

	src := make([]float64, width)
	for _, row := range p.Spectrogram {
		n := min(width, len(row))
		copy(src, row[:n])
		for k := range n {
			pos := float64(k) / ratio
			lo := int(math.Floor(pos))
			frac := pos - float64(lo)
			switch {
			case lo+1 < n:
				row[k] = src[lo]*(1-frac) + src[lo+1]*frac
			case lo < n:
				row[k] = src[lo]
			default:
				row[k] = src[n-1]
			}
		}
	}
}

// spectralTilt applies tilt dB per octave relative to bin 1. The envelope is
// a power spectrum, so the linear gain is squared.
func spectralTilt(p *vocoder.Params, dbPerOctave float64) {
	if dbPerOctave == 0 {
		return
	}
	width := p.Bins()
	if width < 2 {
		return
	}

	gains := make([]float64, width)
	for k := 1; k < width; k++ {
		g := math.Pow(10, dbPerOctave*math.Log2(float64(k))/20)
		gains[k] = g * g
	}
	for _, row := range p.Spectrogram {
		for k := 1; k < min(width, len(row)); k++ {
			row[k] *= gains[k]
		}
	}
}

func resample(data []float64, newLen int) []float64 {
	out := make([]float64, newLen)
	if len(data) <= 1 || newLen == 1 {
		first := 0.0
		if len(data) > 0 {
			first = data[0]
		}
		for i := range out {
			out[i] = first
		}
		return out
	}

	oldLen := len(data)
	for i := range out {
		t := float64(i) * float64(oldLen-1) / float64(newLen-1)
		lo := int(t)
		hi := min(lo+1, oldLen-1)
		frac := t - float64(lo)
		out[i] = data[lo]*(1-frac) + data[hi]*frac
	}
	return out
}

func resampleRows(data [][]float64, newLen int) [][]float64 {
	if len(data) == 0 {
		return nil
	}
	out := make([][]float64, newLen)
	oldLen := len(data)

	if oldLen == 1 || newLen == 1 {
		for i := range out {
			out[i] = append([]float64(nil), data[0]...)
		}
		return out
	}

	for i := range out {
		t := float64(i) * float64(oldLen-1) / float64(newLen-1)
		lo := int(t)
		hi := min(lo+1, oldLen-1)
		frac := t - float64(lo)

		row := make([]float64, len(data[lo]))
		for j := range row {
			row[j] = data[lo][j]*(1-frac) + data[hi][j]*frac
		}
		out[i] = row
	}
	return out
}
