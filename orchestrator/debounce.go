// SPDX-License-Identifier: EPL-2.0

package orchestrator

import "time"

// Debouncer delays reprocessing until the user stops moving a control.
//
// There are two classes. A vocoder change arms the resynthesis deadline and
// cancels a pending effects deadline, since a resynthesis carries the latest
// effects anyway. An effects change arms its own deadline unless a
// resynthesis is already pending. Re-arming pushes the deadline out; only a
// matured deadline fires, once.
type Debouncer struct {
	resynthWindow time.Duration
	effectsWindow time.Duration

	resynthAt time.Time
	effectsAt time.Time
}

func NewDebouncer(resynth, effects time.Duration) *Debouncer {
	return &Debouncer{resynthWindow: resynth, effectsWindow: effects}
}

func (d *Debouncer) ArmResynth(now time.Time) {
	d.resynthAt = now.Add(d.resynthWindow)
	d.effectsAt = time.Time{}
}

func (d *Debouncer) ArmEffects(now time.Time) {
	if !d.resynthAt.IsZero() {
		return
	}
	d.effectsAt = now.Add(d.effectsWindow)
}

// Fire reports which deadlines have matured at now and disarms them.
func (d *Debouncer) Fire(now time.Time) (resynth, effects bool) {
	if !d.resynthAt.IsZero() && !now.Before(d.resynthAt) {
		resynth = true
		d.resynthAt = time.Time{}
	}
	if !d.effectsAt.IsZero() && !now.Before(d.effectsAt) {
		effects = true
		d.effectsAt = time.Time{}
	}
	return resynth, effects
}

// Pending reports the armed deadlines.
func (d *Debouncer) Pending() (resynth, effects bool) {
	return !d.resynthAt.IsZero(), !d.effectsAt.IsZero()
}

func (d *Debouncer) Cancel() {
	d.resynthAt = time.Time{}
	d.effectsAt = time.Time{}
}
