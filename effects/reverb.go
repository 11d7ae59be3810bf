// SPDX-License-Identifier: EPL-2.0

package effects

// Schroeder reverb: four parallel combs into two series allpasses. Delay
// lengths are tuned for 44.1 kHz and scaled to the actual rate.
var (
	combTuning = [4]struct {
		delay    float32
		feedback float32
	}{
		{1557, 0.84},
		{1617, 0.82},
		{1491, 0.80},
		{1422, 0.78},
	}
	allpassTuning = [2]float32{225, 556}
)

const allpassGain = 0.5

type comb struct {
	feedback float32
	buffer   []float32
	index    int
}

func (c *comb) process(x float32) float32 {
	out := c.buffer[c.index]
	c.buffer[c.index] = x + c.feedback*out
	c.index++
	if c.index >= len(c.buffer) {
		c.index = 0
	}
	return out
}

type allpass struct {
	gain   float32
	buffer []float32
	index  int
}

func (a *allpass) process(x float32) float32 {
	delayed := a.buffer[a.index]
	v := x + a.gain*delayed
	a.buffer[a.index] = v
	a.index++
	if a.index >= len(a.buffer) {
		a.index = 0
	}
	return delayed - a.gain*v
}

type reverb struct {
	combs     [4]comb
	allpasses [2]allpass
}

func newReverb(sampleRate int) *reverb {
	scale := float32(sampleRate) / 44100
	size := func(d float32) int { return max(1, int(d*scale)) }

	r := &reverb{}
	for i, t := range combTuning {
		r.combs[i] = comb{feedback: t.feedback, buffer: make([]float32, size(t.delay))}
	}
	for i, d := range allpassTuning {
		r.allpasses[i] = allpass{gain: allpassGain, buffer: make([]float32, size(d))}
	}
	return r
}

func (r *reverb) processSample(x float32) float32 {
	var wet float32
	for i := range r.combs {
		wet += r.combs[i].process(x)
	}
	wet *= 0.25
	for i := range r.allpasses {
		wet = r.allpasses[i].process(wet)
	}
	return wet
}

// mix returns (1-amount)*dry + amount*wet.
func (r *reverb) mix(in []float32, amount float32) []float32 {
	out := make([]float32, len(in))
	for i, x := range in {
		out[i] = (1-amount)*x + amount*r.processSample(x)
	}
	return out
}
