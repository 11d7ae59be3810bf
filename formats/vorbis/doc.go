// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis audio using github.com/jfreymuth/oggvorbis.
//
// The decoder already produces float32 samples, so they are copied into the
// caller's buffer without conversion. Reads are always a whole number of
// frames.
//
//	f, _ := os.Open("voice.ogg")
//	src, err := vorbis.Decoder{}.Decode(f)
//	mono := audio.NewMonoMixer(src)
package vorbis
