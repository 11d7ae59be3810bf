// SPDX-License-Identifier: EPL-2.0

// Package processing runs the expensive audio jobs on one background
// goroutine.
//
// The caller talks to it through a Handle: Send queues a Command and
// TryReceive polls for Results. Neither blocks, so a UI loop can use both on
// every tick. Commands run strictly one after another. Bursts of
// Resynthesize and ReapplyEffects are coalesced so only the latest settings
// are computed, and a panic inside a job becomes a Status result instead of
// killing the worker.
package processing

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ik5/voiceforge/audio"
	"github.com/ik5/voiceforge/effects"
	"github.com/ik5/voiceforge/formats"
	"github.com/ik5/voiceforge/formats/wav"
	"github.com/ik5/voiceforge/fsutil"
	"github.com/ik5/voiceforge/vocoder"
)

// DefaultScanLimit caps a directory listing.
const DefaultScanLimit = 50

// Options configure the worker. Zero fields get the package defaults.
type Options struct {
	Decode   func(path string, onProgress audio.ProgressFunc) (*audio.Buffer, error)
	Vocoder  vocoder.Vocoder
	Effects  effects.Chain
	Scan     func(prefix string, limit int) ([]fsutil.Entry, error)
	Precheck func(path string) (string, error)
	Export   func(path string, buf *audio.Buffer) error

	ScanLimit int

	// TargetSampleRate, when positive, is the rate every loaded file is
	// resampled to before analysis.
	TargetSampleRate int

	// NeutralEpsilon is the slider tolerance under which resynthesis reuses
	// the mono baseline instead of running the vocoder.
	NeutralEpsilon float64

	Logger *log.Logger
}

func (o Options) withDefaults() Options {
	if o.Decode == nil {
		o.Decode = formats.DecodeFile
	}
	if o.Vocoder == nil {
		o.Vocoder = vocoder.NewFrame()
	}
	if o.Effects == nil {
		o.Effects = effects.Standard{}
	}
	if o.Scan == nil {
		o.Scan = fsutil.ScanPrefix
	}
	if o.Precheck == nil {
		o.Precheck = formats.Precheck
	}
	if o.Export == nil {
		o.Export = wav.ExportFile
	}
	if o.ScanLimit <= 0 {
		o.ScanLimit = DefaultScanLimit
	}
	if o.NeutralEpsilon <= 0 {
		o.NeutralEpsilon = 1e-9
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

// Handle is the caller's side of a running worker.
type Handle struct {
	cmds    *queue[Command]
	results *queue[Result]
	done    chan struct{}
}

// Spawn starts the worker goroutine.
func Spawn(opts Options) *Handle {
	h := &Handle{
		cmds:    newQueue[Command](),
		results: newQueue[Result](),
		done:    make(chan struct{}),
	}
	w := &worker{
		opts:    opts.withDefaults(),
		cmds:    h.cmds,
		results: h.results,
	}
	w.logger = w.opts.Logger

	go func() {
		defer close(h.done)
		w.run()
	}()

	return h
}

// Send queues cmd. It reports false once the handle is closed.
func (h *Handle) Send(cmd Command) bool { return h.cmds.push(cmd) }

// TryReceive returns the oldest unread result, if any.
func (h *Handle) TryReceive() (Result, bool) { return h.results.tryPop() }

// Pending is the number of commands not yet picked up by the worker.
func (h *Handle) Pending() int { return h.cmds.len() }

// Close stops accepting commands and returns at once. The worker finishes
// what is queued and exits; use Shutdown to stop it sooner.
func (h *Handle) Close() { h.cmds.close() }

// Done is closed when the worker goroutine has returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the worker exits or timeout passes, reporting whether
// it exited.
func (h *Handle) Wait(timeout time.Duration) bool {
	select {
	case <-h.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// cache is owned by the worker goroutine alone.
type cache struct {
	params     *vocoder.Params
	mono       *audio.Buffer // analysis input, the "A" signal
	postVocode *audio.Buffer // last resynthesis before effects
	sampleRate int
}

type worker struct {
	opts    Options
	logger  *log.Logger
	cmds    *queue[Command]
	results *queue[Result]
	cache   cache
}

// pending holds the newest coalesced request of each class.
type pending struct {
	resynth *Resynthesize
	effects *ReapplyEffects
}

func (p *pending) add(cmd Command) {
	switch c := cmd.(type) {
	case Resynthesize:
		p.resynth = &c
		p.effects = nil
	case ReapplyEffects:
		if p.resynth != nil {
			p.resynth.Effects = c.Effects
			return
		}
		p.effects = &c
	}
}

func (w *worker) run() {
	w.logger.Debug("Worker: started")
	defer w.logger.Debug("Worker: stopped")

	var next Command
	for {
		cmd := next
		next = nil
		if cmd == nil {
			var ok bool
			if cmd, ok = w.cmds.pop(); !ok {
				return
			}
		}

		var exit bool
		w.safely(func() {
			next, exit = w.handle(cmd)
		})
		if exit {
			return
		}
	}
}

// safely runs fn and turns a panic into one error Status and an empty cache.
func (w *worker) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Worker: recovered panic", "panic", r, "stack", string(debug.Stack()))
			w.cache = cache{}
			w.emit(Status{Text: fmt.Sprintf("Internal error: %v", r), Err: true})
		}
	}()
	fn()
}

// handle executes cmd. It returns a command to run next when a batch was cut
// short by a Load, and exit when the worker must stop.
func (w *worker) handle(cmd Command) (next Command, exit bool) {
	switch c := cmd.(type) {
	case Shutdown:
		return nil, true
	case Resynthesize, ReapplyEffects:
		return w.coalesce(c)
	default:
		w.dispatch(c)
	}
	return nil, false
}

// coalesce drains the queue without blocking, keeping only the newest
// request per class, then runs what is left. Cheap commands found on the way
// run inline; a Load drops the batch and is returned to run next.
func (w *worker) coalesce(first Command) (Command, bool) {
	var p pending
	p.add(first)
	merged := 0

	for {
		cmd, ok := w.cmds.tryPop()
		if !ok {
			break
		}
		switch c := cmd.(type) {
		case Resynthesize, ReapplyEffects:
			p.add(c)
			merged++
		case Shutdown:
			return nil, true
		case Load:
			w.logger.Debug("Worker: load supersedes pending batch", "path", c.Path)
			return c, false
		default:
			w.dispatch(c)
		}
	}

	if merged > 0 {
		w.logger.Debug("Worker: coalesced requests", "merged", merged)
	}

	switch {
	case p.resynth != nil:
		w.resynthesize(*p.resynth)
	case p.effects != nil:
		w.reapplyEffects(p.effects.Effects)
	}
	return nil, false
}

func (w *worker) dispatch(cmd Command) {
	switch c := cmd.(type) {
	case Load:
		w.load(c.Path)
	case Analyze:
		w.analyze(c.Buffer)
	case Resynthesize:
		w.resynthesize(c)
	case ReapplyEffects:
		w.reapplyEffects(c.Effects)
	case ScanDirectory:
		entries, err := w.opts.Scan(c.Prefix, w.opts.ScanLimit)
		w.emit(DirectoryListing{Prefix: c.Prefix, Entries: entries, Err: err})
	case PrecheckAudio:
		format, err := w.opts.Precheck(c.Path)
		w.emit(PrecheckOutcome{Path: c.Path, Format: format, Err: err})
	case Export:
		w.export(c)
	default:
		w.logger.Warn("Worker: unknown command", "type", fmt.Sprintf("%T", cmd))
	}
}

func (w *worker) emit(r Result) {
	w.results.push(r)
}

func (w *worker) status(text string) {
	w.emit(Status{Text: text})
}

func (w *worker) fail(format string, err error) {
	w.emit(Status{Text: fmt.Sprintf(format, err), Err: true})
}
