// SPDX-License-Identifier: EPL-2.0

package orchestrator

import "math"

// RemapChannels converts an interleaved position between channel layouts,
// keeping the frame. The result never exceeds newLen.
func RemapChannels(pos int64, oldCh, newCh int, newLen int64) int64 {
	if oldCh <= 0 || newCh <= 0 || pos <= 0 {
		return 0
	}
	return min((pos/int64(oldCh))*int64(newCh), newLen)
}

// RescaleAB keeps the relative play position when switching between two
// buffers of different length. The result is clamped to [0, newLen].
func RescaleAB(pos, oldLen, newLen int64) int64 {
	if oldLen <= 0 || newLen <= 0 || pos <= 0 {
		return 0
	}
	scaled := int64(math.Round(float64(pos) / float64(oldLen) * float64(newLen)))
	return min(max(scaled, 0), newLen)
}

// alignFrame rounds pos down to a frame boundary.
func alignFrame(pos int64, channels int) int64 {
	if channels <= 1 {
		return pos
	}
	return pos - pos%int64(channels)
}
