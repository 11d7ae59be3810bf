// SPDX-License-Identifier: EPL-2.0

package effects

// Peaking bands use Q 1.41, about one octave wide.
const eqQ = 1.41

// equalize applies each non-zero band in place, lowest band first.
func equalize(buf []float32, sampleRate int, gains [Bands]float32) {
	if len(buf) == 0 || sampleRate <= 0 {
		return
	}

	for i, gain := range gains {
		if abs32(gain) < epsilon {
			continue
		}

		freq := BandFrequencies[i]
		var c coefficients
		switch i {
		case 0:
			c = lowShelf(freq, gain, sampleRate)
		case Bands - 1:
			c = highShelf(freq, gain, sampleRate)
		default:
			c = peaking(freq, gain, eqQ, sampleRate)
		}
		newSection(c).process(buf)
	}
}
