// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

// Hann returns a symmetric Hann window of length n.
func Hann(n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{1}
	}

	w := make([]float64, n)
	den := float64(n - 1)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/den))
	}
	return w
}
