// SPDX-License-Identifier: EPL-2.0

package playback

import "errors"

var (
	ErrUnsupportedFormat = errors.New("unsupported output sample format")
	ErrSampleRateLocked  = errors.New("output device already opened with a different configuration")
	ErrInvalidDevice     = errors.New("output device needs a positive sample rate and channel count")
	ErrNoBuffer          = errors.New("no audio buffer to play")
	ErrEngineClosed      = errors.New("playback engine closed")
)
