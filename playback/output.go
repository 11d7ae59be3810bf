// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"fmt"
	"io"
	"strings"
)

// SampleFormat is the native encoding written to the device.
type SampleFormat int

const (
	FormatFloat32 SampleFormat = iota // little endian
	FormatInt16                       // little endian
	FormatUint8
)

// ParseFormat accepts "f32", "s16" and "u8".
func ParseFormat(s string) (SampleFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f32", "float32":
		return FormatFloat32, nil
	case "s16", "int16":
		return FormatInt16, nil
	case "u8", "uint8":
		return FormatUint8, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// BytesPerSample returns 0 for an unknown format.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatFloat32:
		return 4
	case FormatInt16:
		return 2
	case FormatUint8:
		return 1
	}
	return 0
}

func (f SampleFormat) String() string {
	switch f {
	case FormatFloat32:
		return "f32"
	case FormatInt16:
		return "s16"
	case FormatUint8:
		return "u8"
	}
	return fmt.Sprintf("SampleFormat(%d)", int(f))
}

// DeviceConfig describes the output stream.
type DeviceConfig struct {
	SampleRate int
	Channels   int
	Format     SampleFormat
}

func (c DeviceConfig) validate() error {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return fmt.Errorf("%w: %d Hz, %d ch", ErrInvalidDevice, c.SampleRate, c.Channels)
	}
	if c.Format.BytesPerSample() == 0 {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, c.Format)
	}
	return nil
}

// Output opens native streams that pull PCM from r on their own goroutine.
type Output interface {
	Open(cfg DeviceConfig, r io.Reader) (Stream, error)
}

// Stream is a running native stream. It must stay open for sound to
// continue. Err reports an asynchronous device failure.
type Stream interface {
	Err() error
	Close() error
}
