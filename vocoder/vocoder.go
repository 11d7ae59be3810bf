// SPDX-License-Identifier: EPL-2.0

// Package vocoder defines the analysis/resynthesis boundary used by the
// processing worker and ships Frame, a small source-filter vocoder built on
// algo-fft.
//
// Analysis turns mono samples into Params (pitch track, spectral envelope,
// aperiodicity); synthesis turns Params back into samples. Both calls block
// and are deterministic.
package vocoder

import (
	"fmt"

	"github.com/ik5/voiceforge/audio"
)

// Vocoder analyzes mono audio into Params and synthesizes it back.
type Vocoder interface {
	// Analyze fails with ErrEmptyInput or ErrInvalidSampleRate. progress may
	// be nil.
	Analyze(mono []float64, sampleRate int, progress audio.ProgressFunc) (*Params, error)
	// Synthesize fails with ErrInvalidParams or ErrAllocationTooLarge.
	Synthesize(p *Params, sampleRate int) ([]float64, error)
}

// AnalyzeBuffer downmixes buf, analyzes it and returns the parameters along
// with the mono buffer that was analyzed.
func AnalyzeBuffer(v Vocoder, buf *audio.Buffer, progress audio.ProgressFunc) (*Params, *audio.Buffer, error) {
	mono := audio.ToMono(buf)

	samples := make([]float64, mono.Len())
	for i, s := range mono.Samples() {
		samples[i] = float64(s)
	}

	params, err := v.Analyze(samples, mono.SampleRate(), progress)
	if err != nil {
		return nil, nil, err
	}
	return params, mono, nil
}

// SynthesizeBuffer runs v.Synthesize and wraps the result in a mono buffer.
func SynthesizeBuffer(v Vocoder, p *Params, sampleRate int) (*audio.Buffer, error) {
	out, err := v.Synthesize(p, sampleRate)
	if err != nil {
		return nil, err
	}

	samples := make([]float32, len(out))
	for i, s := range out {
		samples[i] = float32(s)
	}

	buf, err := audio.AdoptBuffer(samples, sampleRate, 1)
	if err != nil {
		return nil, fmt.Errorf("wrapping synthesis output: %w", err)
	}
	return buf, nil
}
