// SPDX-License-Identifier: EPL-2.0

package vocoder

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/ik5/voiceforge/audio"
	"github.com/ik5/voiceforge/utils"
)

const (
	DefaultFramePeriod = 5.0 // ms
	DefaultF0Floor     = 71.0
	DefaultF0Ceil      = 800.0

	defaultVoicing = 0.45
	unvoicedF0     = 500.0 // envelope smoothing width for unvoiced frames
	powerFloor     = 1e-12
	apMin, apMax   = 0.001, 0.999
)

// Frame is a frame-based source-filter vocoder.
//
// Each frame is Hann windowed and transformed once. Pitch comes from the
// window-corrected autocorrelation, the envelope from the power spectrum
// smoothed over one harmonic spacing, and aperiodicity from the voicing
// strength. Synthesis shapes pulse and noise excitation with the envelope and
// overlap-adds the frames.
type Frame struct {
	FramePeriod      float64 // ms between frames
	F0Floor, F0Ceil  float64 // Hz
	VoicingThreshold float64 // normalized autocorrelation needed to call a frame voiced
	Seed             uint64  // noise excitation seed
}

func NewFrame() *Frame {
	return &Frame{
		FramePeriod:      DefaultFramePeriod,
		F0Floor:          DefaultF0Floor,
		F0Ceil:           DefaultF0Ceil,
		VoicingThreshold: defaultVoicing,
		Seed:             1,
	}
}

// FFTSizeFor returns the analysis FFT size: the power of two above three
// periods of the lowest pitch. 2048 at 44.1 kHz.
func FFTSizeFor(sampleRate int, f0Floor float64) int {
	return 1 << (1 + int(math.Floor(math.Log2(3*float64(sampleRate)/f0Floor))))
}

// FramesFor returns how many frames cover n samples.
func FramesFor(n, sampleRate int, framePeriod float64) int {
	return int(1000*float64(n)/float64(sampleRate)/framePeriod) + 1
}

func (f *Frame) Analyze(x []float64, sampleRate int, progress audio.ProgressFunc) (*Params, error) {
	if len(x) == 0 {
		return nil, ErrEmptyInput
	}
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	report := func(pct int) {
		if progress != nil {
			progress(pct)
		}
	}

	frames := FramesFor(len(x), sampleRate, f.FramePeriod)
	n := FFTSizeFor(sampleRate, f.F0Floor)
	bins := n/2 + 1

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("vocoder: fft plan: %w", err)
	}

	win := utils.Hann(n)
	winAC, err := autocorrelation(plan, win)
	if err != nil {
		return nil, err
	}

	p := &Params{
		F0:                make([]float64, frames),
		TemporalPositions: make([]float64, frames),
		Spectrogram:       make([][]float64, frames),
		Aperiodicity:      make([][]float64, frames),
		FFTSize:           n,
		FramePeriod:       f.FramePeriod,
	}

	minLag := max(2, int(math.Floor(float64(sampleRate)/f.F0Ceil)))
	maxLag := min(n/2-2, int(math.Ceil(float64(sampleRate)/f.F0Floor)))

	power := make([][]float64, frames)
	strength := make([]float64, frames)
	buf := make([]complex128, n)
	spec := make([]complex128, n)

	// Stage 1: power spectra and raw pitch.
	for i := range frames {
		t := float64(i) * f.FramePeriod / 1000
		p.TemporalPositions[i] = t

		start := int(math.Round(t*float64(sampleRate))) - n/2
		for j := range n {
			idx := start + j
			if idx < 0 || idx >= len(x) {
				buf[j] = 0
				continue
			}
			buf[j] = complex(x[idx]*win[j], 0)
		}
		if err := plan.Forward(spec, buf); err != nil {
			return nil, fmt.Errorf("vocoder: forward fft: %w", err)
		}

		row := make([]float64, bins)
		for k := range bins {
			row[k] = max(sqAbs(spec[k]), powerFloor)
		}
		power[i] = row

		for k := range spec {
			spec[k] = complex(sqAbs(spec[k]), 0)
		}
		if err := plan.Inverse(buf, spec); err != nil {
			return nil, fmt.Errorf("vocoder: inverse fft: %w", err)
		}
		p.F0[i], strength[i] = f.pickPitch(buf, winAC, minLag, maxLag, sampleRate)
	}
	report(25)

	// Stage 2: drop single-frame voicing decisions.
	refinePitch(p.F0)
	report(50)

	// Stage 3: spectral envelope.
	for i := range frames {
		p.Spectrogram[i] = envelope(power[i], p.F0[i], sampleRate, n)
	}
	report(75)

	// Stage 4: aperiodicity.
	nyquist := float64(sampleRate) / 2
	for i := range frames {
		row := make([]float64, bins)
		if p.F0[i] == 0 {
			for k := range row {
				row[k] = apMax
			}
		} else {
			base := clamp(1-strength[i], apMin, apMax)
			for k := range row {
				freq := float64(k) * float64(sampleRate) / float64(n)
				r := freq / nyquist
				row[k] = clamp(base+(1-base)*r*r, apMin, apMax)
			}
		}
		p.Aperiodicity[i] = row
	}
	report(100)

	return p, nil
}

func (f *Frame) Synthesize(p *Params, sampleRate int) ([]float64, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	frames := p.Frames()
	yLen := int(float64(frames-1)*p.FramePeriod/1000*float64(sampleRate)) + 1
	if yLen > MaxSynthesisSamples {
		return nil, fmt.Errorf("%w: %d samples (max %d)", ErrAllocationTooLarge, yLen, MaxSynthesisSamples)
	}

	n := p.FFTSize
	bins := p.Bins()
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("%w: fft size %d: %v", ErrInvalidParams, n, err)
	}

	win := utils.Hann(n)
	// Undo the window energy so a frame comes out at the analyzed level.
	gain := 1 / math.Sqrt(3.0/8.0)

	// Pulses stay phase locked across frames and sum in amplitude. Noise is
	// drawn fresh per frame and sums in power.
	voicedOut := make([]float64, yLen)
	noiseOut := make([]float64, yLen)
	voicedAcc := make([]float64, yLen)
	noiseAcc := make([]float64, yLen)
	rng := rand.New(rand.NewPCG(f.Seed, 0x766f636f))

	impulses := make([]complex128, n)
	white := make([]complex128, n)
	pulse := make([]complex128, n)
	noise := make([]complex128, n)
	voicedSpec := make([]complex128, n)
	noiseSpec := make([]complex128, n)
	voicedFrame := make([]complex128, n)
	noiseFrame := make([]complex128, n)

	var phase, prevF0 float64 // phase in cycles at the frame centre
	for i := range frames {
		f0 := p.F0[i]
		if i > 0 && f0 > 0 {
			hop := p.TemporalPositions[i] - p.TemporalPositions[i-1]
			if prevF0 > 0 {
				phase += hop * (f0 + prevF0) / 2
			} else {
				phase += hop * f0
			}
		}
		prevF0 = f0

		for k := range white {
			white[k] = complex(rng.NormFloat64(), 0)
		}
		if err := plan.Forward(noise, white); err != nil {
			return nil, fmt.Errorf("vocoder: forward fft: %w", err)
		}

		voiced := f0 > 0
		pulseNorm := 1.0
		if voiced {
			count := pulseTrain(impulses, float64(sampleRate)/f0, phase)
			if err := plan.Forward(pulse, impulses); err != nil {
				return nil, fmt.Errorf("vocoder: forward fft: %w", err)
			}
			pulseNorm = 1 / math.Sqrt(float64(max(count, 1)))
		}

		for k := range bins {
			ap := clamp(p.Aperiodicity[i][k], 0, 1)
			amp := math.Sqrt(max(p.Spectrogram[i][k], 0))
			noiseSpec[k] = unit(noise[k]) * complex(math.Sqrt(ap)*amp, 0)
			if voiced {
				voicedSpec[k] = pulse[k] * complex(pulseNorm*math.Sqrt(1-ap)*amp, 0)
			}
		}
		mirror(noiseSpec, bins)
		if err := plan.Inverse(noiseFrame, noiseSpec); err != nil {
			return nil, fmt.Errorf("vocoder: inverse fft: %w", err)
		}
		if voiced {
			mirror(voicedSpec, bins)
			if err := plan.Inverse(voicedFrame, voicedSpec); err != nil {
				return nil, fmt.Errorf("vocoder: inverse fft: %w", err)
			}
		}

		start := int(math.Round(p.TemporalPositions[i]*float64(sampleRate))) - n/2
		for j := range n {
			idx := start + j
			if idx < 0 || idx >= yLen {
				continue
			}
			if voiced {
				voicedOut[idx] += real(voicedFrame[j]) * win[j] * gain
			}
			noiseOut[idx] += real(noiseFrame[j]) * win[j] * gain
			voicedAcc[idx] += win[j]
			noiseAcc[idx] += win[j] * win[j]
		}
	}

	y := make([]float64, yLen)
	for j := range y {
		if voicedAcc[j] > 1e-9 {
			y[j] += voicedOut[j] / voicedAcc[j]
		}
		if noiseAcc[j] > 1e-9 {
			y[j] += noiseOut[j] / math.Sqrt(noiseAcc[j])
		}
	}
	return y, nil
}

// pulseTrain writes unit impulses one period apart into dst, placed so the
// centre of dst sits at the given phase (in cycles). It returns the number
// of impulses written.
func pulseTrain(dst []complex128, period, phase float64) int {
	clear(dst)
	n := len(dst)
	t := float64(n)/2 - (phase-math.Floor(phase))*period
	t -= math.Floor(t/period) * period

	count := 0
	for ; t < float64(n); t += period {
		if k := int(math.Round(t)); k < n {
			dst[k] = 1
			count++
		}
	}
	return count
}

// mirror fills the upper half of spec with conjugates of the lower bins so
// the inverse transform is real.
func mirror(spec []complex128, bins int) {
	n := len(spec)
	spec[0] = complex(real(spec[0]), 0)
	spec[n/2] = complex(real(spec[n/2]), 0)
	for k := bins; k < n; k++ {
		spec[k] = cmplx.Conj(spec[n-k])
	}
}

// pickPitch finds the strongest autocorrelation peak in [minLag, maxLag]
// after dividing out the window's own autocorrelation.
func (f *Frame) pickPitch(ac []complex128, winAC []float64, minLag, maxLag, sampleRate int) (float64, float64) {
	r0 := real(ac[0])
	if r0 < 1e-10 {
		return 0, 0
	}

	norm := func(lag int) float64 {
		if winAC[lag] <= 1e-9 {
			return 0
		}
		return real(ac[lag]) / r0 / winAC[lag]
	}

	type peak struct {
		lag int
		v   float64
	}
	var peaks []peak
	best := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		v := norm(lag)
		if v > 0 && v >= norm(lag-1) && v >= norm(lag+1) {
			peaks = append(peaks, peak{lag, v})
			best = max(best, v)
		}
	}
	if best < f.VoicingThreshold {
		return 0, clamp(best, 0, 1)
	}

	// Multiples of the period peak almost as high; take the shortest lag
	// that is close to the best one.
	bestLag := 0
	for _, pk := range peaks {
		if pk.v >= 0.9*best {
			bestLag, best = pk.lag, pk.v
			break
		}
	}

	// Parabolic interpolation around the peak.
	a, b, c := norm(bestLag-1), best, norm(bestLag+1)
	lag := float64(bestLag)
	if den := a - 2*b + c; den != 0 {
		lag += 0.5 * (a - c) / den
	}
	return float64(sampleRate) / lag, clamp(best, 0, 1)
}

// autocorrelation returns the normalized autocorrelation of w (1 at lag 0).
func autocorrelation(plan *algofft.Plan[complex128], w []float64) ([]float64, error) {
	n := len(w)
	buf := make([]complex128, n)
	freq := make([]complex128, n)
	for i, v := range w {
		buf[i] = complex(v, 0)
	}
	if err := plan.Forward(freq, buf); err != nil {
		return nil, fmt.Errorf("vocoder: forward fft: %w", err)
	}
	for i := range freq {
		freq[i] = complex(sqAbs(freq[i]), 0)
	}
	if err := plan.Inverse(buf, freq); err != nil {
		return nil, fmt.Errorf("vocoder: inverse fft: %w", err)
	}

	out := make([]float64, n)
	r0 := real(buf[0])
	for i := range out {
		out[i] = real(buf[i]) / r0
	}
	return out, nil
}

func refinePitch(f0 []float64) {
	for i := 1; i+1 < len(f0); i++ {
		if f0[i] > 0 && f0[i-1] == 0 && f0[i+1] == 0 {
			f0[i] = 0
		}
	}
}

// envelope smooths a power spectrum over one harmonic spacing so the
// harmonics of f0 disappear and only the formant shape remains.
func envelope(power []float64, f0 float64, sampleRate, n int) []float64 {
	if f0 <= 0 {
		f0 = unvoicedF0
	}
	half := max(1, int(math.Round(f0*float64(n)/float64(sampleRate)/2)))

	prefix := make([]float64, len(power)+1)
	for k, v := range power {
		prefix[k+1] = prefix[k] + v
	}

	out := make([]float64, len(power))
	for k := range out {
		lo := max(0, k-half)
		hi := min(len(power), k+half+1)
		out[k] = max((prefix[hi]-prefix[lo])/float64(hi-lo), powerFloor)
	}
	return out
}

func sqAbs(c complex128) float64 {
	return real(c)*real(c) + imag(c)*imag(c)
}

func unit(c complex128) complex128 {
	m := cmplx.Abs(c)
	if m < 1e-12 {
		return 0
	}
	return c / complex(m, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
