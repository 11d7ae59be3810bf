// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/ik5/voiceforge/audio"
)

// State is shared between the real-time callback and everyone else. The
// scalar fields are atomics the callback reads without locking; the buffer
// slot is guarded by mu and the callback only ever try-locks it.
//
// position counts interleaved samples of the current buffer.
type State struct {
	playing  atomic.Bool
	loop     atomic.Bool
	position atomic.Int64
	gain     atomic.Uint32 // float32 bits, linear

	mu  sync.RWMutex
	buf *audio.Buffer
}

// NewState returns a paused state holding buf at position 0 with unity gain.
func NewState(buf *audio.Buffer) *State {
	s := &State{buf: buf}
	s.gain.Store(math.Float32bits(1))
	return s
}

func (s *State) Playing() bool          { return s.playing.Load() }
func (s *State) SetPlaying(on bool)     { s.playing.Store(on) }
func (s *State) Loop() bool             { return s.loop.Load() }
func (s *State) SetLoop(on bool)        { s.loop.Store(on) }
func (s *State) Position() int64        { return s.position.Load() }
func (s *State) Gain() float32          { return math.Float32frombits(s.gain.Load()) }
func (s *State) SetGain(linear float32) { s.gain.Store(math.Float32bits(max(linear, 0))) }

// SetGainDB sets the live gain from decibels.
func (s *State) SetGainDB(db float32) {
	s.SetGain(float32(math.Pow(10, float64(db)/20)))
}

// TogglePlaying flips play/pause and returns the new value.
func (s *State) TogglePlaying() bool {
	for {
		old := s.playing.Load()
		if s.playing.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// ToggleLoop flips looping and returns the new value.
func (s *State) ToggleLoop() bool {
	for {
		old := s.loop.Load()
		if s.loop.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Buffer returns the current buffer, nil before the first load.
func (s *State) Buffer() *audio.Buffer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buf
}

// SetPosition stores pos clamped to [0, Len] of the current buffer.
func (s *State) SetPosition(pos int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.position.Store(clampPosition(pos, s.buf))
}

// Swap replaces the buffer. When pos is non-nil it becomes the new position,
// otherwise the current position is kept. Either way the stored position is
// clamped against the new buffer inside the same critical section.
func (s *State) Swap(buf *audio.Buffer, pos *int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.position.Load()
	if pos != nil {
		next = *pos
	}
	s.buf = buf
	s.position.Store(clampPosition(next, buf))
}

// SeekBySamples moves the position by offset interleaved samples, clamped to
// [0, limit]. It returns the new position.
func (s *State) SeekBySamples(offset, limit int64) int64 {
	for {
		old := s.position.Load()
		next := min(max(old+offset, 0), max(limit, 0))
		if s.position.CompareAndSwap(old, next) {
			return next
		}
	}
}

// SeekBySeconds moves the position by secs, rounded to whole frames.
func (s *State) SeekBySeconds(secs float64, sampleRate, channels int, limit int64) int64 {
	if sampleRate <= 0 || channels <= 0 {
		return s.position.Load()
	}
	frames := int64(math.Round(secs * float64(sampleRate)))
	return s.SeekBySamples(frames*int64(channels), limit)
}

// CurrentTime is the position in seconds.
func (s *State) CurrentTime(sampleRate, channels int) float64 {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	return float64(s.position.Load()/int64(channels)) / float64(sampleRate)
}

func clampPosition(pos int64, buf *audio.Buffer) int64 {
	if buf == nil || pos < 0 {
		return 0
	}
	return min(pos, int64(buf.Len()))
}
