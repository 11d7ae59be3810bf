// SPDX-License-Identifier: EPL-2.0

// Package voiceforge is an interactive voice transformation tool: load a
// recording, analyze it with a source-filter vocoder, reshape pitch, speed,
// breathiness and formants, run the result through an effects chain and
// listen to it while you edit.
//
// # Layout
//
// The work is split between three actors that never block each other:
//
//   - processing runs a single background worker that decodes, analyzes,
//     resynthesizes and exports. Bursts of slider edits are coalesced so
//     only the newest settings are synthesized.
//   - playback owns the audio device. Its real-time callback reads the
//     active buffer through a try-lock and plays silence rather than wait.
//   - orchestrator is the control loop. It debounces edits, folds worker
//     results into its state and swaps buffers into playback while keeping
//     the play head in place.
//
// The remaining packages are the building blocks those three share:
//
//   - audio holds immutable sample buffers, mixing and resampling.
//   - formats decodes WAV, MP3, Ogg Vorbis and AIFF, and writes WAV.
//   - vocoder turns mono audio into F0, spectral envelope and
//     aperiodicity frames and back.
//   - modifier maps the user's sliders onto vocoder parameters.
//   - effects is the post-vocoder chain (filters, compressor, pitch
//     shift, reverb and a 12 band EQ).
//   - spectrum computes the dB magnitude display.
//   - fsutil completes file paths for the loader.
//   - config reads VOICEFORGE_* environment settings and builds the logger.
//
// # Quick Start
//
//	go run ./cmd/voiceforge voice.wav
//
// then type "pitch 4", "reverb 0.3" and "ab" at the prompt. "help" lists
// every command.
package voiceforge
