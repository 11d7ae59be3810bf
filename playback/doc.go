// SPDX-License-Identifier: EPL-2.0

// Package playback is the audio output side of voiceforge.
//
// A State holds everything the real-time callback needs: play/pause, the
// read position, live gain and looping as atomics, plus the current buffer
// behind a read/write lock. The callback only try-locks that lock and plays
// silence when it is contended, so it never waits on the rest of the
// program.
//
// An Engine owns the native stream. New audio is either hot-swapped into the
// running stream or, when no stream runs, a new stream is built around the
// same State so position, gain and looping survive:
//
//	engine := playback.NewEngine(playback.NewOtoOutput(), dev, logger)
//	pos := int64(0)
//	err := engine.Apply(buf, &pos)
//
// Output abstracts the device. OtoOutput plays through oto; tests use an
// in-memory Output and pull from the callback directly.
package playback
