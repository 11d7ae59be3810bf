// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize    = errors.New("dst size must be multiple of channels")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrInvalidChannels   = errors.New("channel count must be positive")
	ErrEmptyAudio        = errors.New("no audio samples decoded")
	ErrPartialFrame      = errors.New("sample count is not a whole number of frames")
)
