// SPDX-License-Identifier: EPL-2.0

// Package audio provides the sample containers and streaming primitives the
// rest of voiceforge is built on.
//
// # Buffers
//
// A Buffer holds fully decoded interleaved float32 PCM together with its
// sample rate and channel count. Buffers are immutable: every transformation
// (downmix, resample, effects, resynthesis) produces a new Buffer, which is
// what allows one buffer to be shared between the processing worker, the
// orchestrator and the real-time playback callback without locks on the
// sample data itself.
//
//	buf, err := audio.NewBuffer(samples, 44100, 2)
//	mono := audio.ToMono(buf)
//	conformed, err := audio.Conform(buf, 48000)
//
// # Source Interface
//
// Decoders produce a Source that is read incrementally:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    BufSize() int
//	    Close() error
//	}
//
// ReadAll drains a Source into a Buffer and reports percentage progress when
// the source knows its length (see Sized).
//
// # Resampling and Mixing
//
// Resampler changes the sample rate with cubic interpolation, MonoMixer
// averages channels. Both are Sources themselves and can be chained:
//
//	mono := audio.NewMonoMixer(audio.NewResampler(src, 16000))
//
// # Format Registry
//
// Registry maps format keys to decoders:
//
//	registry := audio.NewRegistry()
//	registry.Register("wav", wav.Decoder{})
//	decoder, _ := registry.Get("wav")
//
// # Sample Format
//
// Samples are float32 in [-1.0, 1.0]. Conversion to integer encodings happens
// only at the edges (export, device output).
package audio
