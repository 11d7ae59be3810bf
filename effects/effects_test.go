// SPDX-License-Identifier: EPL-2.0

package effects

import (
	"math"
	"slices"
	"testing"

	"github.com/ik5/voiceforge/audio"
)

func tone(rate, n int, freq, amp float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func rms(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(x)))
}

func TestParams_IsNeutral(t *testing.T) {
	t.Parallel()

	eq := Default()
	eq.EQ[5] = 3

	tests := []struct {
		name string
		p    Params
		want bool
	}{
		{name: "default", p: Default(), want: true},
		{name: "gain only", p: Params{GainDB: 6, LowCutHz: 20, HighCutHz: 20000}, want: true},
		{name: "low cut", p: Params{LowCutHz: 100, HighCutHz: 20000}, want: false},
		{name: "high cut", p: Params{LowCutHz: 20, HighCutHz: 8000}, want: false},
		{name: "compressor", p: Params{LowCutHz: 20, HighCutHz: 20000, CompressorThreshDB: -10}, want: false},
		{name: "reverb", p: Params{LowCutHz: 20, HighCutHz: 20000, ReverbMix: 0.3}, want: false},
		{name: "pitch", p: Params{LowCutHz: 20, HighCutHz: 20000, PitchShiftSemitones: -2}, want: false},
		{name: "eq", p: eq, want: false},
	}
	for _, tt := range tests {
		if got := tt.p.IsNeutral(); got != tt.want {
			t.Errorf("%s: IsNeutral() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParams_LinearGain(t *testing.T) {
	t.Parallel()

	if g := (Params{}).LinearGain(); g != 1 {
		t.Errorf("0 dB = %v, want 1", g)
	}
	if g := (Params{GainDB: -20}).LinearGain(); math.Abs(float64(g)-0.1) > 1e-6 {
		t.Errorf("-20 dB = %v, want 0.1", g)
	}
}

func TestStandard_NeutralCopies(t *testing.T) {
	t.Parallel()

	in := []float32{0.1, -0.2, 0.3}
	out := Standard{}.Apply(in, 44100, Default())
	if !slices.Equal(in, out) {
		t.Fatalf("neutral chain changed samples: %v", out)
	}
	out[0] = 9
	if in[0] != 0.1 {
		t.Error("output aliases input")
	}
}

func TestStandard_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := tone(44100, 4410, 440, 0.5)
	orig := slices.Clone(in)
	p := Default()
	p.LowCutHz = 200
	p.ReverbMix = 0.5
	p.EQ[0] = 6

	Standard{}.Apply(in, 44100, p)
	if !slices.Equal(in, orig) {
		t.Error("Apply wrote to its input")
	}
}

func TestStandard_LowCut(t *testing.T) {
	t.Parallel()

	const rate = 44100
	p := Default()
	p.LowCutHz = 1000

	low := Standard{}.Apply(tone(rate, rate, 50, 0.5), rate, p)
	high := Standard{}.Apply(tone(rate, rate, 8000, 0.5), rate, p)

	// Skip the filter transient.
	if r := rms(low[rate/2:]); r > 0.01 {
		t.Errorf("50 Hz through 1 kHz highpass rms = %v, want attenuated", r)
	}
	if r := rms(high[rate/2:]); math.Abs(r-0.5/math.Sqrt2) > 0.02 {
		t.Errorf("8 kHz through 1 kHz highpass rms = %v, want about %v", r, 0.5/math.Sqrt2)
	}
}

func TestStandard_HighCut(t *testing.T) {
	t.Parallel()

	const rate = 44100
	p := Default()
	p.HighCutHz = 500

	out := Standard{}.Apply(tone(rate, rate, 10000, 0.5), rate, p)
	if r := rms(out[rate/2:]); r > 0.01 {
		t.Errorf("10 kHz through 500 Hz lowpass rms = %v, want attenuated", r)
	}
}

func TestStandard_HighCutAboveNyquist(t *testing.T) {
	t.Parallel()

	p := Default()
	p.HighCutHz = 15000
	out := Standard{}.Apply(tone(8000, 8000, 100, 0.5), 8000, p)
	for i, s := range out {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			t.Fatalf("sample %d = %v", i, s)
		}
	}
}

func TestStandard_Compressor(t *testing.T) {
	t.Parallel()

	const rate = 44100
	p := Default()
	p.CompressorThreshDB = -20

	loud := Standard{}.Apply(tone(rate, rate, 200, 0.9), rate, p)
	quiet := Standard{}.Apply(tone(rate, rate, 200, 0.01), rate, p)

	// Quiet signal gets the full makeup gain of 10 dB.
	if r := rms(quiet[rate/2:]) / rms(tone(rate, rate, 200, 0.01)[rate/2:]); math.Abs(r-math.Sqrt(10)) > 0.05 {
		t.Errorf("quiet gain = %v, want about %v", r, math.Sqrt(10))
	}
	if r := rms(loud[rate/2:]) / rms(tone(rate, rate, 200, 0.9)[rate/2:]); r > 1 {
		t.Errorf("loud gain = %v, want reduction", r)
	}
}

func TestStandard_PitchShiftLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		semitones float32
		want      int
	}{
		{semitones: 12, want: 500},
		{semitones: -12, want: 2000},
		{semitones: 0.5, want: int(math.Round(1000 / math.Pow(2, 0.5/12)))},
	}
	for _, tt := range tests {
		p := Default()
		p.PitchShiftSemitones = tt.semitones
		if got := len(Standard{}.Apply(make([]float32, 1000), 44100, p)); got != tt.want {
			t.Errorf("shift %v: len = %d, want %d", tt.semitones, got, tt.want)
		}
	}
}

func TestPitchShift_OctaveUp(t *testing.T) {
	t.Parallel()

	got := pitchShift([]float32{0, 1, 2, 3, 4, 5, 6, 7}, 12)
	if !slices.Equal(got, []float32{0, 2, 4, 6}) {
		t.Errorf("pitchShift(+12) = %v, want [0 2 4 6]", got)
	}
}

func TestStandard_ReverbTail(t *testing.T) {
	t.Parallel()

	const rate = 44100
	in := make([]float32, rate)
	in[0] = 1

	p := Default()
	p.ReverbMix = 1
	out := Standard{}.Apply(in, rate, p)

	if out[0] != 0 {
		t.Errorf("fully wet impulse at t=0 = %v, want 0", out[0])
	}
	if r := rms(out[2000:20000]); r == 0 {
		t.Error("no reverb tail")
	}
}

func TestStandard_EQBoost(t *testing.T) {
	t.Parallel()

	const rate = 44100
	in := tone(rate, rate, 1000, 0.1)
	p := Default()
	p.EQ[5] = 6

	out := Standard{}.Apply(in, rate, p)
	gain := 20 * math.Log10(rms(out[rate/2:])/rms(in[rate/2:]))
	if math.Abs(gain-6) > 0.5 {
		t.Errorf("1 kHz band +6 dB gave %.2f dB", gain)
	}
}

func TestStandard_EQShelves(t *testing.T) {
	t.Parallel()

	const rate = 44100
	p := Default()
	p.EQ[0] = -12
	p.EQ[11] = 12

	low := tone(rate, rate, 20, 0.1)
	out := Standard{}.Apply(low, rate, p)
	if gain := 20 * math.Log10(rms(out[rate/2:])/rms(low[rate/2:])); gain > -6 {
		t.Errorf("20 Hz through -12 dB low shelf gave %.2f dB", gain)
	}
}

func TestApplyBuffer(t *testing.T) {
	t.Parallel()

	buf, err := audio.NewBuffer(tone(8000, 800, 100, 0.5), 8000, 1)
	if err != nil {
		t.Fatal(err)
	}

	same, err := ApplyBuffer(Standard{}, buf, Default())
	if err != nil || same != buf {
		t.Errorf("neutral ApplyBuffer = %p, %v; want the input buffer", same, err)
	}

	p := Default()
	p.PitchShiftSemitones = 12
	out, err := ApplyBuffer(Standard{}, buf, p)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 400 || out.SampleRate() != 8000 || out.Channels() != 1 {
		t.Errorf("got %d samples %d Hz %d ch, want 400/8000/1", out.Len(), out.SampleRate(), out.Channels())
	}
}
