// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"encoding/binary"
	"math"

	"github.com/ik5/voiceforge/utils"
)

// renderer is the real-time callback. Read never blocks, never allocates and
// never returns an error: anything it cannot serve becomes silence.
type renderer struct {
	state    *State
	channels int
	format   SampleFormat
	width    int
}

func newRenderer(state *State, cfg DeviceConfig) *renderer {
	return &renderer{
		state:    state,
		channels: cfg.Channels,
		format:   cfg.Format,
		width:    cfg.Format.BytesPerSample(),
	}
}

func (r *renderer) Read(p []byte) (int, error) {
	frameBytes := r.channels * r.width
	n := len(p) - len(p)%frameBytes
	if n == 0 {
		r.silence(p)
		return len(p), nil
	}
	out := p[:n]

	if !r.state.playing.Load() {
		r.silence(out)
		return n, nil
	}
	if !r.state.mu.TryRLock() {
		r.silence(out)
		return n, nil
	}
	defer r.state.mu.RUnlock()

	buf := r.state.buf
	if buf == nil || buf.Channels() <= 0 || buf.Len() < buf.Channels() {
		r.silence(out)
		return n, nil
	}

	samples := buf.Samples()
	srcCh := int64(buf.Channels())
	length := int64(len(samples)) - int64(len(samples))%srcCh
	gain := math.Float32frombits(r.state.gain.Load())
	loop := r.state.loop.Load()
	start := r.state.position.Load()
	pos := start - start%srcCh

	for off := 0; off < n; off += frameBytes {
		if pos >= length {
			if !loop {
				r.silence(out[off:])
				pos = length
				break
			}
			pos = 0
		}
		for ch := range r.channels {
			s := samples[pos+int64(ch)%srcCh]
			r.encodeSample(out[off+ch*r.width:], s*gain)
		}
		pos += srcCh
	}

	// A seek that landed meanwhile wins.
	r.state.position.CompareAndSwap(start, pos)
	return n, nil
}

// encodeSample clips s to [-1, 1] and writes it in the device format.
func (r *renderer) encodeSample(dst []byte, s float32) {
	switch r.format {
	case FormatFloat32:
		binary.LittleEndian.PutUint32(dst, math.Float32bits(utils.Clamp(s)))
	case FormatInt16:
		binary.LittleEndian.PutUint16(dst, uint16(utils.Float32ToInt16(s)))
	case FormatUint8:
		dst[0] = utils.Float32ToUint8(s)
	}
}

func (r *renderer) silence(p []byte) {
	switch r.format {
	case FormatUint8:
		for i := range p {
			p[i] = 128
		}
	default:
		clear(p)
	}
}
