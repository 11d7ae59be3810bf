// SPDX-License-Identifier: EPL-2.0

package effects

import "math"

// coefficients of a normalized second-order section (a0 = 1).
type coefficients struct {
	b0, b1, b2 float32
	a1, a2     float32
}

// section is a biquad in direct form I.
type section struct {
	coefficients
	x1, x2, y1, y2 float32
}

func newSection(c coefficients) *section {
	return &section{coefficients: c}
}

func (s *section) processSample(x float32) float32 {
	y := s.b0*x + s.b1*s.x1 + s.b2*s.x2 - s.a1*s.y1 - s.a2*s.y2
	s.x2, s.x1 = s.x1, x
	s.y2, s.y1 = s.y1, y
	return y
}

func (s *section) process(buf []float32) {
	for i, x := range buf {
		buf[i] = s.processSample(x)
	}
}

// omega clamps freq below 0.95 Nyquist and returns cos and sin of the
// normalized angular frequency.
func omega(freq float32, sampleRate int) (float64, float64) {
	nyquist := float64(sampleRate) / 2
	f := math.Max(1, math.Min(float64(freq), nyquist*0.95))
	w0 := 2 * math.Pi * f / float64(sampleRate)
	return math.Cos(w0), math.Sin(w0)
}

func normalize(b0, b1, b2, a0, a1, a2 float64) coefficients {
	return coefficients{
		b0: float32(b0 / a0),
		b1: float32(b1 / a0),
		b2: float32(b2 / a0),
		a1: float32(a1 / a0),
		a2: float32(a2 / a0),
	}
}

func highpass(freq float32, sampleRate int) coefficients {
	cw, sw := omega(freq, sampleRate)
	alpha := sw / (2 * math.Sqrt2 / 2)
	return normalize((1+cw)/2, -(1 + cw), (1+cw)/2, 1+alpha, -2*cw, 1-alpha)
}

func lowpass(freq float32, sampleRate int) coefficients {
	cw, sw := omega(freq, sampleRate)
	alpha := sw / (2 * math.Sqrt2 / 2)
	return normalize((1-cw)/2, 1-cw, (1-cw)/2, 1+alpha, -2*cw, 1-alpha)
}

func peaking(freq, gainDB, q float32, sampleRate int) coefficients {
	cw, sw := omega(freq, sampleRate)
	alpha := sw / (2 * float64(q))
	a := math.Pow(10, float64(gainDB)/40)
	return normalize(1+alpha*a, -2*cw, 1-alpha*a, 1+alpha/a, -2*cw, 1-alpha/a)
}

func lowShelf(freq, gainDB float32, sampleRate int) coefficients {
	cw, sw := omega(freq, sampleRate)
	a := math.Pow(10, float64(gainDB)/40)
	// Shelf slope 1.
	alpha := sw / 2 * math.Sqrt2
	k := 2 * math.Sqrt(a) * alpha
	return normalize(
		a*((a+1)-(a-1)*cw+k),
		2*a*((a-1)-(a+1)*cw),
		a*((a+1)-(a-1)*cw-k),
		(a+1)+(a-1)*cw+k,
		-2*((a-1)+(a+1)*cw),
		(a+1)+(a-1)*cw-k,
	)
}

func highShelf(freq, gainDB float32, sampleRate int) coefficients {
	cw, sw := omega(freq, sampleRate)
	a := math.Pow(10, float64(gainDB)/40)
	alpha := sw / 2 * math.Sqrt2
	k := 2 * math.Sqrt(a) * alpha
	return normalize(
		a*((a+1)+(a-1)*cw+k),
		-2*a*((a-1)+(a+1)*cw),
		a*((a+1)+(a-1)*cw-k),
		(a+1)-(a-1)*cw+k,
		2*((a-1)-(a+1)*cw),
		(a+1)-(a-1)*cw-k,
	)
}
