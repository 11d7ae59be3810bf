// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ik5/voiceforge/audio"
)

// Start creates a State for buf, opens a stream on out and starts playing.
// The returned Stream must be kept open for sound to continue.
func Start(out Output, buf *audio.Buffer, dev DeviceConfig) (Stream, *State, error) {
	state := NewState(buf)
	stream, err := Rebuild(out, buf, state, dev)
	if err != nil {
		return nil, nil, err
	}
	state.SetPlaying(true)
	return stream, state, nil
}

// Rebuild opens a new stream bound to an existing state. Position, gain,
// loop and play state carry over; the position is clamped into buf.
func Rebuild(out Output, buf *audio.Buffer, state *State, dev DeviceConfig) (Stream, error) {
	if err := dev.validate(); err != nil {
		return nil, err
	}
	state.Swap(buf, nil)

	stream, err := out.Open(dev, newRenderer(state, dev))
	if err != nil {
		return nil, fmt.Errorf("opening output stream: %w", err)
	}
	return stream, nil
}

// Engine keeps at most one stream alive and decides between a rebuild and a
// hot swap when new audio arrives. Its methods are safe for concurrent use;
// the render callback never touches Engine.
type Engine struct {
	out    Output
	dev    DeviceConfig
	logger *log.Logger
	state  *State

	mu      sync.Mutex
	stream  Stream
	started bool
	closed  bool
}

func NewEngine(out Output, dev DeviceConfig, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		out:    out,
		dev:    dev,
		logger: logger,
		state:  NewState(nil),
	}
}

// State is shared with the render callback and lives as long as the engine.
func (e *Engine) State() *State { return e.state }

func (e *Engine) Device() DeviceConfig { return e.dev }

// Running reports whether a stream is open.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stream != nil
}

// Apply makes buf the audible buffer. pos, when non-nil, is the new position
// and is written in the same critical section as the swap.
//
// With a stream running this is a hot swap. Otherwise a stream is rebuilt
// around the existing state; the very first stream also starts playback.
func (e *Engine) Apply(buf *audio.Buffer, pos *int64) error {
	if buf == nil {
		return ErrNoBuffer
	}
	if buf.SampleRate() != e.dev.SampleRate {
		return fmt.Errorf("%w: buffer is %d Hz, device is %d Hz",
			ErrSampleRateLocked, buf.SampleRate(), e.dev.SampleRate)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}

	e.state.Swap(buf, pos)
	if e.stream != nil {
		e.logger.Debug("Playback: hot swap", "buffer", buf.String(), "position", e.state.Position())
		return nil
	}

	stream, err := Rebuild(e.out, buf, e.state, e.dev)
	if err != nil {
		return err
	}
	e.stream = stream
	if !e.started {
		e.started = true
		e.state.SetPlaying(true)
	}
	e.logger.Info("Playback: stream opened",
		"rate", e.dev.SampleRate, "channels", e.dev.Channels, "format", e.dev.Format.String())

	return nil
}

// CheckStream drops a stream that reported a device error so the next Apply
// rebuilds it. The device error is returned.
func (e *Engine) CheckStream() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stream == nil {
		return nil
	}
	err := e.stream.Err()
	if err == nil {
		return nil
	}

	e.logger.Warn("Playback: stream failed, will rebuild", "error", err)
	if cerr := e.stream.Close(); cerr != nil {
		e.logger.Debug("Playback: closing failed stream", "error", cerr)
	}
	e.stream = nil

	return fmt.Errorf("output stream: %w", err)
}

// Close stops output. Later Apply calls fail with ErrEngineClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.state.SetPlaying(false)

	if e.stream == nil {
		return nil
	}
	err := e.stream.Close()
	e.stream = nil
	if err != nil {
		return fmt.Errorf("closing output stream: %w", err)
	}
	return nil
}
