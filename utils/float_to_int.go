// SPDX-License-Identifier: EPL-2.0

package utils

// Clamp limits x to [-1, 1]. NaN maps to 0.
func Clamp(x float32) float32 {
	switch {
	case x > 1:
		return 1
	case x < -1:
		return -1
	case x != x:
		return 0
	}
	return x
}

// Float32ToInt16 converts a normalized sample to signed 16-bit PCM.
// The scale is symmetric (±32767), so -1.0 never reaches math.MinInt16.
func Float32ToInt16(x float32) int16 {
	return int16(Clamp(x) * 32767.0)
}

// Float32ToUint8 converts a normalized sample to unsigned 8-bit PCM, where
// 128 is silence.
func Float32ToUint8(x float32) uint8 {
	return uint8(int(Clamp(x)*127.0) + 128)
}
