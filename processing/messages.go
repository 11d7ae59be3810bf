// SPDX-License-Identifier: EPL-2.0

package processing

import (
	"github.com/ik5/voiceforge/audio"
	"github.com/ik5/voiceforge/effects"
	"github.com/ik5/voiceforge/fsutil"
	"github.com/ik5/voiceforge/modifier"
)

// Command is a request to the worker. The set is closed: only the types in
// this file implement it.
type Command interface {
	command()
}

// Load decodes Path and, on success, analyzes it.
type Load struct{ Path string }

// Analyze runs vocoder analysis on Buffer and replaces the cached
// parameters.
type Analyze struct{ Buffer *audio.Buffer }

// Resynthesize applies the sliders to the cached parameters, resynthesizes
// and runs the effects chain.
type Resynthesize struct {
	Sliders modifier.SliderValues
	Effects effects.Params
}

// ReapplyEffects reruns only the effects chain on the last resynthesis.
type ReapplyEffects struct{ Effects effects.Params }

// ScanDirectory lists completion candidates for a partially typed path.
type ScanDirectory struct{ Prefix string }

// PrecheckAudio sniffs the format of Path from its first bytes.
type PrecheckAudio struct{ Path string }

// Export writes Buffer to Path as 16-bit PCM WAV.
type Export struct {
	Buffer *audio.Buffer
	Path   string
}

// Shutdown stops the worker. Commands queued behind it are dropped.
type Shutdown struct{}

func (Load) command()           {}
func (Analyze) command()        {}
func (Resynthesize) command()   {}
func (ReapplyEffects) command() {}
func (ScanDirectory) command()  {}
func (PrecheckAudio) command()  {}
func (Export) command()         {}
func (Shutdown) command()       {}

// Result is a message from the worker, delivered in production order.
type Result interface {
	result()
}

// AudioReady carries a freshly decoded file.
type AudioReady struct {
	Buffer *audio.Buffer
	Path   string
}

// AnalysisDone carries the mono baseline the parameters were taken from.
type AnalysisDone struct{ Mono *audio.Buffer }

// SynthesisDone carries processed audio ready for playback.
type SynthesisDone struct{ Buffer *audio.Buffer }

// Status is progress or an error line for the status bar.
type Status struct {
	Text string
	Err  bool
}

type DirectoryListing struct {
	Prefix  string
	Entries []fsutil.Entry
	Err     error
}

type PrecheckOutcome struct {
	Path   string
	Format string
	Err    error
}

type ExportDone struct{ Path string }

func (AudioReady) result()       {}
func (AnalysisDone) result()     {}
func (SynthesisDone) result()    {}
func (Status) result()           {}
func (DirectoryListing) result() {}
func (PrecheckOutcome) result()  {}
func (ExportDone) result()       {}
