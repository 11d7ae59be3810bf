// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF audio using github.com/go-audio/aiff.
//
// Signed PCM at 8, 16, 24 and 32 bits is supported, with any channel count.
// AIFF stores samples big-endian and the sample rate as an 80-bit float; both
// are handled by go-audio. The decoder reports its length from the COMM
// chunk so audio.ReadAll can publish progress.
//
//	f, _ := os.Open("take.aif")
//	src, err := aiff.Decoder{}.Decode(f)
//	if errors.Is(err, aiff.ErrNotAiffFile) {
//	    // try another format
//	}
package aiff
