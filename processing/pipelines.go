// SPDX-License-Identifier: EPL-2.0

package processing

import (
	"fmt"

	"github.com/ik5/voiceforge/audio"
	"github.com/ik5/voiceforge/effects"
	"github.com/ik5/voiceforge/modifier"
	"github.com/ik5/voiceforge/vocoder"
)

func (w *worker) load(path string) {
	w.status("Decoding...")
	w.logger.Info("Worker: loading", "path", path)

	buf, err := w.opts.Decode(path, func(pct int) {
		w.status(fmt.Sprintf("Decoding... %d%%", pct))
	})
	if err != nil {
		w.logger.Error("Worker: load failed", "path", path, "error", err)
		w.fail("Load error: %v", err)
		return
	}

	if buf, err = audio.Conform(buf, w.opts.TargetSampleRate); err != nil {
		w.logger.Error("Worker: resample failed", "path", path, "error", err)
		w.fail("Load error: %v", err)
		return
	}

	w.cache = cache{}
	w.emit(AudioReady{Buffer: buf, Path: path})
	w.analyze(buf)
}

func (w *worker) analyze(buf *audio.Buffer) {
	if buf == nil {
		w.fail("Analysis error: %v", audio.ErrEmptyAudio)
		return
	}
	w.logger.Info("Worker: analyzing", "buffer", buf.String())

	params, mono, err := vocoder.AnalyzeBuffer(w.opts.Vocoder, buf, func(pct int) {
		w.status(fmt.Sprintf("Analyzing... %d%%", pct))
	})
	if err != nil {
		w.logger.Error("Worker: analysis failed", "error", err)
		w.fail("Analysis error: %v", err)
		return
	}

	w.cache = cache{
		params:     params,
		mono:       mono,
		postVocode: mono,
		sampleRate: mono.SampleRate(),
	}
	w.logger.Info("Worker: analysis done", "frames", params.Frames(), "fft", params.FFTSize)
	w.emit(AnalysisDone{Mono: mono})
}

func (w *worker) resynthesize(c Resynthesize) {
	if w.cache.params == nil || w.cache.mono == nil {
		w.logger.Debug("Worker: resynthesize skipped, nothing analyzed")
		return
	}

	voiced := w.cache.mono
	if !c.Sliders.Bypass && !c.Sliders.IsNeutral(w.opts.NeutralEpsilon) {
		w.status("Modifying parameters... (1/3)")
		modified := modifier.Apply(w.cache.params, c.Sliders)

		w.status("Synthesizing voice... (2/3)")
		out, err := vocoder.SynthesizeBuffer(w.opts.Vocoder, modified, w.cache.sampleRate)
		if err != nil {
			w.logger.Error("Worker: synthesis failed", "error", err)
			w.fail("Synthesis error: %v", err)
			return
		}
		voiced = out
	}

	w.status("Applying effects... (3/3)")
	w.cache.postVocode = voiced
	w.applyEffects(voiced, c.Effects)
}

func (w *worker) reapplyEffects(p effects.Params) {
	if w.cache.postVocode == nil {
		w.logger.Debug("Worker: effects skipped, nothing synthesized")
		return
	}
	w.status("Applying effects... (3/3)")
	w.applyEffects(w.cache.postVocode, p)
}

func (w *worker) applyEffects(buf *audio.Buffer, p effects.Params) {
	out, err := effects.ApplyBuffer(w.opts.Effects, buf, p)
	if err != nil {
		w.logger.Error("Worker: effects failed", "error", err)
		w.fail("Effects error: %v", err)
		return
	}
	w.logger.Debug("Worker: synthesis done", "buffer", out.String())
	w.emit(SynthesisDone{Buffer: out})
}

func (w *worker) export(c Export) {
	if c.Buffer == nil {
		w.fail("Export error: %v", audio.ErrEmptyAudio)
		return
	}
	w.status("Exporting...")
	if err := w.opts.Export(c.Path, c.Buffer); err != nil {
		w.logger.Error("Worker: export failed", "path", c.Path, "error", err)
		w.fail("Export error: %v", err)
		return
	}
	w.logger.Info("Worker: exported", "path", c.Path)
	w.emit(ExportDone{Path: c.Path})
}
