// SPDX-License-Identifier: EPL-2.0

package orchestrator

import (
	"time"

	"github.com/ik5/voiceforge/effects"
	"github.com/ik5/voiceforge/formats/wav"
	"github.com/ik5/voiceforge/modifier"
	"github.com/ik5/voiceforge/processing"
)

// Action is a user intent handed to Tick.
type Action interface {
	apply(o *Orchestrator, now time.Time)
}

type LoadFile struct{ Path string }

// SetVocoder replaces the slider values and schedules a resynthesis.
type SetVocoder struct{ Values modifier.SliderValues }

// SetEffects replaces the effects settings. A change of gain alone is
// applied live without reprocessing.
type SetEffects struct{ Params effects.Params }

// SetGain changes the live output gain in dB.
type SetGain struct{ DB float32 }

type TogglePlay struct{}

// Seek moves the play head by Seconds, negative to rewind.
type Seek struct{ Seconds float64 }

type ToggleLoop struct{}

// ToggleAB switches between the analyzed original and the processed audio.
type ToggleAB struct{}

// Export saves the processed audio. An empty Path picks the next free
// "<name>_processed.wav" next to the loaded file.
type Export struct{ Path string }

type ScanDirectory struct{ Prefix string }

type Precheck struct{ Path string }

// Quit asks the worker to shut down and marks the orchestrator done.
type Quit struct{}

func (a LoadFile) apply(o *Orchestrator, _ time.Time) {
	o.debounce.Cancel()
	o.setStatus("Loading "+a.Path, false)
	o.send(processing.Load{Path: a.Path})
}

func (a SetVocoder) apply(o *Orchestrator, now time.Time) {
	o.sliders = a.Values
	if o.original != nil {
		o.debounce.ArmResynth(now)
	}
}

func (a SetEffects) apply(o *Orchestrator, now time.Time) {
	prev := o.fx
	o.fx = a.Params
	o.engine.State().SetGainDB(a.Params.GainDB)

	prev.GainDB = a.Params.GainDB
	if prev == a.Params || o.original == nil {
		return
	}
	o.debounce.ArmEffects(now)
}

func (a SetGain) apply(o *Orchestrator, _ time.Time) {
	o.fx.GainDB = a.DB
	o.engine.State().SetGainDB(a.DB)
}

func (TogglePlay) apply(o *Orchestrator, _ time.Time) {
	state := o.engine.State()
	playing := state.TogglePlaying()
	if playing && o.active != nil && !state.Loop() && state.Position() >= int64(o.active.Len()) {
		state.SetPosition(0)
	}
}

func (a Seek) apply(o *Orchestrator, _ time.Time) {
	if o.active == nil {
		return
	}
	o.engine.State().SeekBySeconds(a.Seconds, o.active.SampleRate(), o.active.Channels(), int64(o.active.Len()))
}

func (ToggleLoop) apply(o *Orchestrator, _ time.Time) {
	o.engine.State().ToggleLoop()
}

func (ToggleAB) apply(o *Orchestrator, _ time.Time) {
	if o.original == nil || o.processed == nil || o.active == nil {
		o.setStatus("Nothing to compare yet", false)
		return
	}

	showA := !o.showA
	target := o.processed
	if showA {
		target = o.original
	}
	if target == o.active {
		o.showA = showA
		return
	}

	pos := RescaleAB(o.engine.State().Position(), int64(o.active.Len()), int64(target.Len()))
	if o.apply(target, pos) {
		o.showA = showA
	}
}

func (a Export) apply(o *Orchestrator, _ time.Time) {
	buf := o.processed
	if buf == nil {
		buf = o.original
	}
	if buf == nil {
		o.setStatus("Nothing to export", true)
		return
	}

	path := a.Path
	if path == "" {
		path = wav.NextExportPath(o.file.Path)
	}
	o.send(processing.Export{Buffer: buf, Path: path})
}

func (a ScanDirectory) apply(o *Orchestrator, _ time.Time) {
	o.send(processing.ScanDirectory{Prefix: a.Prefix})
}

func (a Precheck) apply(o *Orchestrator, _ time.Time) {
	o.send(processing.PrecheckAudio{Path: a.Path})
}

func (Quit) apply(o *Orchestrator, _ time.Time) {
	o.debounce.Cancel()
	o.send(processing.Shutdown{})
	o.quit = true
}
