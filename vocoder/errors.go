// SPDX-License-Identifier: EPL-2.0

package vocoder

import "errors"

var (
	ErrEmptyInput         = errors.New("audio is empty")
	ErrInvalidSampleRate  = errors.New("sample rate must be positive")
	ErrInvalidParams      = errors.New("invalid vocoder params")
	ErrAllocationTooLarge = errors.New("synthesis output too large")
)
