// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III audio using
// github.com/hajimehoshi/go-mp3.
//
// go-mp3 always produces 16-bit stereo, so the source reports two channels
// even for mono files; downmix with audio.ToMono when needed. The total
// length comes from the decoder when the input can seek (os.File does) and
// is 0 otherwise.
//
//	f, _ := os.Open("voice.mp3")
//	src, err := mp3.Decoder{}.Decode(f)
//	buf, err := audio.ReadAll(src, nil)
package mp3
