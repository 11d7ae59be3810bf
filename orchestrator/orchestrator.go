// SPDX-License-Identifier: EPL-2.0

// Package orchestrator is the UI-side loop of voiceforge.
//
// On every Tick it folds worker results into playback, fires matured
// debounce deadlines and runs the user's actions. It never waits on the
// worker or on the audio callback: results are polled, commands are queued
// and buffers reach the callback through playback.Engine.
//
//	o := orchestrator.New(handle, engine, orchestrator.DefaultConfig(), logger)
//	for now := range ticker.C {
//	    o.Tick(now, actions...)
//	    render(o.Snapshot())
//	}
package orchestrator

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ik5/voiceforge/audio"
	"github.com/ik5/voiceforge/effects"
	"github.com/ik5/voiceforge/fsutil"
	"github.com/ik5/voiceforge/modifier"
	"github.com/ik5/voiceforge/playback"
	"github.com/ik5/voiceforge/processing"
	"github.com/ik5/voiceforge/spectrum"
)

// Processor is the worker as seen from here. *processing.Handle implements
// it.
type Processor interface {
	Send(cmd processing.Command) bool
	TryReceive() (processing.Result, bool)
}

type Config struct {
	ResynthDebounce time.Duration
	EffectsDebounce time.Duration
	SpectrumSize    int // 0 disables the spectrum
}

func DefaultConfig() Config {
	return Config{
		ResynthDebounce: 150 * time.Millisecond,
		EffectsDebounce: 80 * time.Millisecond,
		SpectrumSize:    2048,
	}
}

// FileInfo describes the loaded file after decoding.
type FileInfo struct {
	Path       string
	SampleRate int
	Channels   int
	Duration   time.Duration
}

type Orchestrator struct {
	proc     Processor
	engine   *playback.Engine
	cfg      Config
	logger   *log.Logger
	debounce *Debouncer
	analyzer *spectrum.Analyzer

	file      FileInfo
	loaded    bool
	original  *audio.Buffer // mono baseline, the A side
	processed *audio.Buffer // latest resynthesis, the B side
	active    *audio.Buffer // what the engine plays
	showA     bool

	sliders modifier.SliderValues
	fx      effects.Params

	status    string
	statusErr bool

	listing    processing.DirectoryListing
	precheck   processing.PrecheckOutcome
	listingSeq int
	checkSeq   int
	lastExport string
	spectrum   []float32

	sent map[string]int
	quit bool
}

func New(proc Processor, engine *playback.Engine, cfg Config, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}

	o := &Orchestrator{
		proc:     proc,
		engine:   engine,
		cfg:      cfg,
		logger:   logger,
		debounce: NewDebouncer(cfg.ResynthDebounce, cfg.EffectsDebounce),
		sliders:  modifier.Neutral(),
		fx:       effects.Default(),
		status:   "Open a file to begin",
		sent:     make(map[string]int),
	}

	if cfg.SpectrumSize > 0 {
		a, err := spectrum.NewAnalyzer(cfg.SpectrumSize)
		if err != nil {
			logger.Warn("Orchestrator: spectrum disabled", "error", err)
		} else {
			o.analyzer = a
		}
	}
	return o
}

// Tick runs one iteration of the UI loop at now.
func (o *Orchestrator) Tick(now time.Time, actions ...Action) {
	o.checkDevice()

	for {
		r, ok := o.proc.TryReceive()
		if !ok {
			break
		}
		o.fold(r)
	}

	resynth, fx := o.debounce.Fire(now)
	if resynth {
		o.send(processing.Resynthesize{Sliders: o.sliders, Effects: o.fx})
	}
	if fx {
		o.send(processing.ReapplyEffects{Effects: o.fx})
	}

	for _, a := range actions {
		a.apply(o, now)
	}

	o.refreshSpectrum()
}

// Done reports whether Quit was requested.
func (o *Orchestrator) Done() bool { return o.quit }

func (o *Orchestrator) send(cmd processing.Command) {
	if !o.proc.Send(cmd) {
		o.logger.Warn("Orchestrator: worker is closed", "command", fmt.Sprintf("%T", cmd))
		return
	}
	o.sent[fmt.Sprintf("%T", cmd)]++
}

func (o *Orchestrator) setStatus(text string, isErr bool) {
	o.status = text
	o.statusErr = isErr
}

func (o *Orchestrator) fold(r processing.Result) {
	switch r := r.(type) {
	case processing.AudioReady:
		o.audioReady(r)
	case processing.AnalysisDone:
		o.original = r.Mono
		if o.showA || o.processed == nil {
			o.swapTo(r.Mono)
		}
		o.setStatus("Ready", false)
		if !o.sliders.IsNeutral(0) || !o.fx.IsNeutral() {
			// Settings were moved before the analysis finished.
			o.send(processing.Resynthesize{Sliders: o.sliders, Effects: o.fx})
		}
	case processing.SynthesisDone:
		o.processed = r.Buffer
		if !o.showA {
			o.swapTo(r.Buffer)
		}
		o.setStatus("Ready", false)
	case processing.Status:
		o.setStatus(r.Text, r.Err)
		if r.Err {
			o.logger.Warn("Orchestrator: worker reported an error", "status", r.Text)
		}
	case processing.DirectoryListing:
		o.listing = r
		o.listingSeq++
	case processing.PrecheckOutcome:
		o.precheck = r
		o.checkSeq++
	case processing.ExportDone:
		o.lastExport = r.Path
		o.setStatus("Exported to "+r.Path, false)
	}
}

func (o *Orchestrator) audioReady(r processing.AudioReady) {
	buf := r.Buffer
	o.file = FileInfo{
		Path:       r.Path,
		SampleRate: buf.SampleRate(),
		Channels:   buf.Channels(),
		Duration:   buf.Duration(),
	}
	o.loaded = true
	o.original = nil
	o.processed = nil
	o.showA = false
	o.debounce.Cancel()

	zero := int64(0)
	if err := o.engine.Apply(buf, &zero); err != nil {
		o.logger.Error("Orchestrator: playback failed", "error", err)
		o.setStatus(fmt.Sprintf("Playback error: %v", err), true)
		return
	}
	o.active = buf
	o.setStatus("Loaded "+filepath.Base(r.Path), false)
}

// swapTo makes buf audible, carrying the frame position across a change of
// channel layout.
func (o *Orchestrator) swapTo(buf *audio.Buffer) {
	state := o.engine.State()
	pos := state.Position()
	if o.active != nil && o.active.Channels() != buf.Channels() {
		pos = RemapChannels(pos, o.active.Channels(), buf.Channels(), int64(buf.Len()))
	}
	o.apply(buf, pos)
}

// apply plays buf from pos and reports whether playback took it.
func (o *Orchestrator) apply(buf *audio.Buffer, pos int64) bool {
	pos = alignFrame(pos, buf.Channels())
	if err := o.engine.Apply(buf, &pos); err != nil {
		o.logger.Error("Orchestrator: playback failed", "error", err)
		o.setStatus(fmt.Sprintf("Playback error: %v", err), true)
		return false
	}
	o.active = buf
	return true
}

// checkDevice rebuilds the stream after a device failure.
func (o *Orchestrator) checkDevice() {
	err := o.engine.CheckStream()
	if err == nil {
		return
	}
	o.setStatus(fmt.Sprintf("Audio device error: %v", err), true)
	if o.active != nil {
		o.apply(o.active, o.engine.State().Position())
	}
}

func (o *Orchestrator) refreshSpectrum() {
	if o.analyzer == nil || o.active == nil {
		o.spectrum = nil
		return
	}
	window := spectrum.ExtractWindow(o.active, o.engine.State().Position(), o.analyzer.Size())
	bins, err := o.analyzer.Compute(window)
	if err != nil {
		o.logger.Debug("Orchestrator: spectrum", "error", err)
		return
	}
	o.spectrum = bins
}

// Snapshot is a copy of everything a presentation layer shows.
type Snapshot struct {
	File   FileInfo
	Loaded bool

	Status    string
	StatusErr bool

	Position time.Duration
	Duration time.Duration
	Playing  bool
	Loop     bool
	GainDB   float32

	ShowingOriginal bool
	HasProcessed    bool

	Sliders modifier.SliderValues
	Effects effects.Params

	// ListingSeq and PrecheckSeq count arrivals so a caller can tell a new
	// answer from a repeated one.
	ListingSeq    int
	ListingPrefix string
	Listing       []fsutil.Entry
	ListingErr    error

	PrecheckSeq int
	Precheck    processing.PrecheckOutcome

	LastExport string
	Spectrum   []float32

	PendingResynth bool
	PendingEffects bool

	DeviceRunning bool
	Sent          map[string]int // commands queued to the worker, by type
}

func (o *Orchestrator) Snapshot() Snapshot {
	state := o.engine.State()
	s := Snapshot{
		File:            o.file,
		Loaded:          o.loaded,
		Status:          o.status,
		StatusErr:       o.statusErr,
		Playing:         state.Playing(),
		Loop:            state.Loop(),
		GainDB:          o.fx.GainDB,
		ShowingOriginal: o.showA,
		HasProcessed:    o.processed != nil,
		Sliders:         o.sliders,
		Effects:         o.fx,
		ListingSeq:      o.listingSeq,
		ListingPrefix:   o.listing.Prefix,
		Listing:         append([]fsutil.Entry(nil), o.listing.Entries...),
		ListingErr:      o.listing.Err,
		PrecheckSeq:     o.checkSeq,
		Precheck:        o.precheck,
		LastExport:      o.lastExport,
		Spectrum:        append([]float32(nil), o.spectrum...),
		DeviceRunning:   o.engine.Running(),
		Sent:            o.Sent(),
	}
	s.PendingResynth, s.PendingEffects = o.debounce.Pending()

	if o.active != nil {
		secs := state.CurrentTime(o.active.SampleRate(), o.active.Channels())
		s.Position = time.Duration(secs * float64(time.Second))
		s.Duration = o.active.Duration()
	}
	return s
}

// Sent returns how many commands of each type were queued, keyed by type
// name such as "processing.Resynthesize".
func (o *Orchestrator) Sent() map[string]int {
	out := make(map[string]int, len(o.sent))
	for k, v := range o.sent {
		out[k] = v
	}
	return out
}
