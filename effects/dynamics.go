// SPDX-License-Identifier: EPL-2.0

package effects

import "math"

const (
	compressorRatio   = 4.0
	compressorAttack  = 0.005 // s
	compressorRelease = 0.050 // s
)

// compress runs a peak-envelope compressor in place. Makeup gain makes up
// half the threshold in dB and applies to every sample, above threshold or
// not.
func compress(buf []float32, thresholdDB float32, sampleRate int) {
	threshold := math.Pow(10, float64(thresholdDB)/20)
	attack := math.Exp(-1 / (compressorAttack * float64(sampleRate)))
	release := math.Exp(-1 / (compressorRelease * float64(sampleRate)))
	makeup := math.Pow(10, -float64(thresholdDB)/40)

	var env float64
	for i, s := range buf {
		level := math.Abs(float64(s))
		coeff := release
		if level > env {
			coeff = attack
		}
		env = coeff*env + (1-coeff)*level

		g := makeup
		if env > threshold {
			g *= math.Pow(threshold/env, 1-1/compressorRatio)
		}
		buf[i] = float32(float64(s) * g)
	}
}

// pitchShift resamples by 2^(semitones/12) with linear interpolation. The
// result is shorter when shifting up and longer when shifting down.
func pitchShift(in []float32, semitones float32) []float32 {
	ratio := math.Pow(2, float64(semitones)/12)
	n := max(1, int(math.Round(float64(len(in))/ratio)))

	out := make([]float32, n)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		frac := float32(pos - float64(idx))
		switch {
		case idx+1 < len(in):
			out[i] = in[idx]*(1-frac) + in[idx+1]*frac
		case idx < len(in):
			out[i] = in[idx]
		}
	}
	return out
}
