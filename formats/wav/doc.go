// SPDX-License-Identifier: EPL-2.0

// Package wav decodes and exports WAV audio on top of github.com/go-audio/wav.
//
// # Decoding
//
// Decoder accepts integer PCM at 8, 16, 24 and 32 bits with any channel count
// and sample rate. The returned source also reports its length, so
// audio.ReadAll can publish progress while decoding:
//
//	f, _ := os.Open("voice.wav")
//	src, err := wav.Decoder{}.Decode(f)
//	buf, err := audio.ReadAll(src, func(pct int) { fmt.Println(pct) })
//
// A reader that cannot seek is read into memory first, go-audio walks the
// RIFF chunks with Seek.
//
// # Exporting
//
// Export and ExportFile write an audio.Buffer as 16-bit PCM, clamping samples
// to [-1, 1] and scaling by 32767. NextExportPath proposes a file name that
// does not exist yet:
//
//	path := wav.NextExportPath("takes/voice.mp3") // takes/voice_processed.wav
//	err := wav.ExportFile(path, processed)
package wav
