// SPDX-License-Identifier: EPL-2.0

// Package effects is the post-vocoder effects chain: low cut, high cut,
// compressor, pitch shift, reverb and a 12-band graphic EQ, in that order.
//
// The chain is pure. It takes mono samples and returns a new slice; the input
// is never written. Output gain is not part of the chain, the playback
// callback applies it live so gain changes need no reprocessing.
package effects

import (
	"math"

	"github.com/ik5/voiceforge/audio"
)

const (
	minLowCut  = 20.0
	maxHighCut = 20000.0
	epsilon    = 1e-6
)

// Bands is the number of graphic EQ bands.
const Bands = 12

// BandFrequencies are the EQ centre frequencies in Hz. The first band is a
// low shelf, the last a high shelf, the rest are peaks.
var BandFrequencies = [Bands]float32{31, 63, 125, 250, 500, 1000, 2000, 3150, 4000, 6300, 10000, 16000}

type Params struct {
	GainDB              float32
	LowCutHz            float32
	HighCutHz           float32
	CompressorThreshDB  float32
	ReverbMix           float32
	PitchShiftSemitones float32
	EQ                  [Bands]float32 // dB per band
}

// Default returns the bypass settings.
func Default() Params {
	return Params{LowCutHz: minLowCut, HighCutHz: maxHighCut}
}

// EQNeutral reports whether every band is at 0 dB.
func (p Params) EQNeutral() bool {
	for _, g := range p.EQ {
		if abs32(g) >= epsilon {
			return false
		}
	}
	return true
}

// IsNeutral reports whether the chain would leave audio untouched. GainDB is
// ignored.
func (p Params) IsNeutral() bool {
	return p.LowCutHz <= minLowCut &&
		p.HighCutHz >= maxHighCut &&
		p.CompressorThreshDB >= 0 &&
		abs32(p.ReverbMix) < epsilon &&
		abs32(p.PitchShiftSemitones) < epsilon &&
		p.EQNeutral()
}

// LinearGain converts GainDB to a multiplier.
func (p Params) LinearGain() float32 {
	return float32(math.Pow(10, float64(p.GainDB)/20))
}

// Chain processes mono samples.
type Chain interface {
	Apply(samples []float32, sampleRate int, p Params) []float32
}

// Standard is the built-in chain.
type Standard struct{}

func (Standard) Apply(samples []float32, sampleRate int, p Params) []float32 {
	out := make([]float32, len(samples))
	copy(out, samples)
	if p.IsNeutral() || len(samples) == 0 || sampleRate <= 0 {
		return out
	}

	if p.LowCutHz > minLowCut {
		newSection(highpass(p.LowCutHz, sampleRate)).process(out)
	}
	if p.HighCutHz < maxHighCut {
		newSection(lowpass(p.HighCutHz, sampleRate)).process(out)
	}
	if p.CompressorThreshDB < 0 {
		compress(out, p.CompressorThreshDB, sampleRate)
	}
	if p.PitchShiftSemitones != 0 {
		out = pitchShift(out, p.PitchShiftSemitones)
	}
	if p.ReverbMix > 0 {
		out = newReverb(sampleRate).mix(out, p.ReverbMix)
	}
	equalize(out, sampleRate, p.EQ)

	return out
}

// ApplyBuffer runs chain over a mono buffer. A neutral p returns buf itself.
func ApplyBuffer(chain Chain, buf *audio.Buffer, p Params) (*audio.Buffer, error) {
	if p.IsNeutral() {
		return buf, nil
	}
	out := chain.Apply(buf.Samples(), buf.SampleRate(), p)
	return audio.AdoptBuffer(out, buf.SampleRate(), buf.Channels())
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
