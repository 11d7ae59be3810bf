// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/ik5/voiceforge/audio"
)

// fakeOutput records opened streams and hands the callback back to the test.
type fakeOutput struct {
	mu      sync.Mutex
	opens   int
	readers []io.Reader
	streams []*fakeStream
	failure error
}

func (o *fakeOutput) Open(_ DeviceConfig, r io.Reader) (Stream, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failure != nil {
		return nil, o.failure
	}
	o.opens++
	s := &fakeStream{}
	o.readers = append(o.readers, r)
	o.streams = append(o.streams, s)
	return s, nil
}

type fakeStream struct {
	err    error
	closed bool
}

func (s *fakeStream) Err() error { return s.err }

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

func mustBuffer(t *testing.T, samples []float32, rate, ch int) *audio.Buffer {
	t.Helper()
	b, err := audio.NewBuffer(samples, rate, ch)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func floats(p []byte) []float32 {
	out := make([]float32, len(p)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
	}
	return out
}

func equalFloats(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1e-6 {
			return false
		}
	}
	return true
}

func playingState(buf *audio.Buffer) *State {
	s := NewState(buf)
	s.SetPlaying(true)
	return s
}

var monoF32 = DeviceConfig{SampleRate: 8000, Channels: 1, Format: FormatFloat32}

func TestState_SwapClampsPosition(t *testing.T) {
	t.Parallel()

	s := NewState(mustBuffer(t, make([]float32, 1000), 8000, 1))
	s.SetPosition(900)
	if s.Position() != 900 {
		t.Fatalf("position = %d, want 900", s.Position())
	}

	s.Swap(mustBuffer(t, make([]float32, 500), 8000, 1), nil)
	if s.Position() != 500 {
		t.Errorf("kept position after shrink = %d, want 500", s.Position())
	}

	pos := int64(10_000)
	s.Swap(mustBuffer(t, make([]float32, 200), 8000, 1), &pos)
	if s.Position() != 200 {
		t.Errorf("explicit position = %d, want 200", s.Position())
	}

	neg := int64(-3)
	s.Swap(mustBuffer(t, make([]float32, 200), 8000, 1), &neg)
	if s.Position() != 0 {
		t.Errorf("negative position = %d, want 0", s.Position())
	}

	s.Swap(nil, nil)
	if s.Position() != 0 || s.Buffer() != nil {
		t.Errorf("nil swap: position=%d buffer=%v", s.Position(), s.Buffer())
	}
}

func TestState_Seek(t *testing.T) {
	t.Parallel()

	s := NewState(mustBuffer(t, make([]float32, 88200), 44100, 2))

	if got := s.SeekBySeconds(0.5, 44100, 2, 88200); got != 44100 {
		t.Errorf("seek +0.5s = %d, want 44100", got)
	}
	if got := s.CurrentTime(44100, 2); got != 0.5 {
		t.Errorf("CurrentTime = %v, want 0.5", got)
	}
	if got := s.SeekBySeconds(5, 44100, 2, 88200); got != 88200 {
		t.Errorf("seek past end = %d, want 88200", got)
	}
	if got := s.SeekBySamples(-1_000_000, 88200); got != 0 {
		t.Errorf("seek before start = %d, want 0", got)
	}
	if got := s.SeekBySeconds(1, 0, 2, 88200); got != 0 {
		t.Errorf("seek with rate 0 = %d, want unchanged 0", got)
	}
}

func TestState_Toggles(t *testing.T) {
	t.Parallel()

	s := NewState(nil)
	if s.Playing() || s.Loop() {
		t.Fatal("new state is playing or looping")
	}
	if !s.TogglePlaying() || !s.Playing() {
		t.Error("TogglePlaying did not start playback")
	}
	if s.TogglePlaying() {
		t.Error("second TogglePlaying did not pause")
	}
	if !s.ToggleLoop() || !s.Loop() {
		t.Error("ToggleLoop did not enable looping")
	}

	if s.Gain() != 1 {
		t.Errorf("default gain = %v, want 1", s.Gain())
	}
	s.SetGainDB(-6)
	if math.Abs(float64(s.Gain())-0.501187) > 1e-5 {
		t.Errorf("gain after -6 dB = %v", s.Gain())
	}
	s.SetGain(-1)
	if s.Gain() != 0 {
		t.Errorf("negative gain stored as %v, want 0", s.Gain())
	}
}

func TestRenderer_PausedIsSilent(t *testing.T) {
	t.Parallel()

	s := NewState(mustBuffer(t, []float32{0.5, 0.5}, 8000, 1))
	r := newRenderer(s, monoF32)

	p := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	n, err := r.Read(p)
	if n != 8 || err != nil {
		t.Fatalf("Read = %d, %v", n, err)
	}
	if !equalFloats(floats(p), []float32{0, 0}) || s.Position() != 0 {
		t.Errorf("paused output %v at position %d", floats(p), s.Position())
	}
}

func TestRenderer_StopsAtEnd(t *testing.T) {
	t.Parallel()

	s := playingState(mustBuffer(t, []float32{0.1, 0.2, 0.3}, 8000, 1))
	r := newRenderer(s, monoF32)

	p := make([]byte, 5*4)
	if _, err := r.Read(p); err != nil {
		t.Fatal(err)
	}
	if got := floats(p); !equalFloats(got, []float32{0.1, 0.2, 0.3, 0, 0}) {
		t.Errorf("output = %v", got)
	}
	if s.Position() != 3 {
		t.Errorf("position = %d, want pinned at 3", s.Position())
	}

	if _, err := r.Read(p); err != nil {
		t.Fatal(err)
	}
	if got := floats(p); !equalFloats(got, make([]float32, 5)) || s.Position() != 3 {
		t.Errorf("after end: output %v position %d", got, s.Position())
	}
}

func TestRenderer_UnalignedPositionAtTail(t *testing.T) {
	t.Parallel()

	stereo := DeviceConfig{SampleRate: 8000, Channels: 2, Format: FormatFloat32}
	s := playingState(mustBuffer(t, []float32{0.1, 0.2, 0.3, 0.4}, 8000, 2))
	s.SetPosition(3)
	r := newRenderer(s, stereo)

	p := make([]byte, 4*2*4)
	if _, err := r.Read(p); err != nil {
		t.Fatal(err)
	}
	if got := floats(p); !equalFloats(got, []float32{0.3, 0.4, 0, 0, 0, 0, 0, 0}) {
		t.Errorf("output = %v", got)
	}
	if s.Position() != 4 {
		t.Errorf("position = %d, want pinned at 4", s.Position())
	}
}

func TestRenderer_Loops(t *testing.T) {
	t.Parallel()

	s := playingState(mustBuffer(t, []float32{0.1, 0.2, 0.3}, 8000, 1))
	s.SetLoop(true)
	r := newRenderer(s, monoF32)

	p := make([]byte, 7*4)
	if _, err := r.Read(p); err != nil {
		t.Fatal(err)
	}
	want := []float32{0.1, 0.2, 0.3, 0.1, 0.2, 0.3, 0.1}
	if got := floats(p); !equalFloats(got, want) {
		t.Errorf("output = %v, want %v", got, want)
	}
	if s.Position() != 1 {
		t.Errorf("position = %d, want 1", s.Position())
	}
}

func TestRenderer_LoopFromEnd(t *testing.T) {
	t.Parallel()

	s := playingState(mustBuffer(t, []float32{0.1, 0.2}, 8000, 1))
	s.SetPosition(2)
	s.SetLoop(true)
	r := newRenderer(s, monoF32)

	p := make([]byte, 4)
	if _, err := r.Read(p); err != nil {
		t.Fatal(err)
	}
	if got := floats(p); !equalFloats(got, []float32{0.1}) {
		t.Errorf("output at wrap = %v, want [0.1]", got)
	}
}

func TestRenderer_ChannelFanOut(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    []float32
		srcCh  int
		outCh  int
		frames int
		want   []float32
	}{
		{
			name: "mono to stereo", src: []float32{0.1, 0.2}, srcCh: 1, outCh: 2, frames: 2,
			want: []float32{0.1, 0.1, 0.2, 0.2},
		},
		{
			name: "stereo to mono", src: []float32{0.1, 0.9, 0.2, 0.8}, srcCh: 2, outCh: 1, frames: 2,
			want: []float32{0.1, 0.2},
		},
		{
			name: "stereo to quad", src: []float32{0.1, 0.9}, srcCh: 2, outCh: 4, frames: 1,
			want: []float32{0.1, 0.9, 0.1, 0.9},
		},
	}
	for _, tt := range tests {
		s := playingState(mustBuffer(t, tt.src, 8000, tt.srcCh))
		r := newRenderer(s, DeviceConfig{SampleRate: 8000, Channels: tt.outCh, Format: FormatFloat32})
		p := make([]byte, tt.frames*tt.outCh*4)
		if _, err := r.Read(p); err != nil {
			t.Fatal(err)
		}
		if got := floats(p); !equalFloats(got, tt.want) {
			t.Errorf("%s: output = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRenderer_GainAndFormats(t *testing.T) {
	t.Parallel()

	buf := mustBuffer(t, []float32{0.5, -0.5, 1}, 8000, 1)

	s16 := playingState(buf)
	s16.SetGain(2)
	p := make([]byte, 6)
	if _, err := newRenderer(s16, DeviceConfig{SampleRate: 8000, Channels: 1, Format: FormatInt16}).Read(p); err != nil {
		t.Fatal(err)
	}
	for i, want := range []int16{32767, -32767, 32767} {
		if got := int16(binary.LittleEndian.Uint16(p[i*2:])); got != want {
			t.Errorf("s16 sample %d = %d, want %d", i, got, want)
		}
	}

	u8 := playingState(buf)
	p = make([]byte, 3)
	if _, err := newRenderer(u8, DeviceConfig{SampleRate: 8000, Channels: 1, Format: FormatUint8}).Read(p); err != nil {
		t.Fatal(err)
	}
	if p[0] <= 128 || p[1] >= 128 || p[2] != 255 {
		t.Errorf("u8 output = %v", p)
	}

	f32 := playingState(buf)
	f32.SetGain(0.5)
	p = make([]byte, 12)
	if _, err := newRenderer(f32, monoF32).Read(p); err != nil {
		t.Fatal(err)
	}
	if got := floats(p); !equalFloats(got, []float32{0.25, -0.25, 0.5}) {
		t.Errorf("f32 output = %v", got)
	}
}

func TestRenderer_ContentionIsSilent(t *testing.T) {
	t.Parallel()

	s := playingState(mustBuffer(t, []float32{0.5, 0.5}, 8000, 1))
	r := newRenderer(s, monoF32)

	s.mu.Lock()
	p := []byte{9, 9, 9, 9}
	n, err := r.Read(p)
	s.mu.Unlock()

	if n != 4 || err != nil {
		t.Fatalf("Read = %d, %v", n, err)
	}
	if !equalFloats(floats(p), []float32{0}) || s.Position() != 0 {
		t.Errorf("contended output %v at position %d", floats(p), s.Position())
	}
}

func TestRenderer_SilenceU8(t *testing.T) {
	t.Parallel()

	r := newRenderer(NewState(nil), DeviceConfig{SampleRate: 8000, Channels: 2, Format: FormatUint8})
	p := make([]byte, 4)
	if _, err := r.Read(p); err != nil {
		t.Fatal(err)
	}
	for _, b := range p {
		if b != 128 {
			t.Fatalf("u8 silence = %v, want midpoint 128", p)
		}
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want SampleFormat
	}{
		{in: "f32", want: FormatFloat32},
		{in: "S16", want: FormatInt16},
		{in: " u8 ", want: FormatUint8},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseFormat("s24"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ParseFormat(s24) error = %v, want %v", err, ErrUnsupportedFormat)
	}
}

func TestStart(t *testing.T) {
	t.Parallel()

	out := &fakeOutput{}
	buf := mustBuffer(t, []float32{0.1, 0.2}, 8000, 1)
	stream, state, err := Start(out, buf, monoF32)
	if err != nil {
		t.Fatal(err)
	}
	if stream == nil || !state.Playing() || state.Buffer() != buf || out.opens != 1 {
		t.Errorf("stream=%v playing=%v opens=%d", stream, state.Playing(), out.opens)
	}

	if _, _, err := Start(out, buf, DeviceConfig{SampleRate: 8000, Channels: 0}); !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("zero channels: error = %v, want %v", err, ErrInvalidDevice)
	}
}

func TestEngine_RebuildThenSwap(t *testing.T) {
	t.Parallel()

	out := &fakeOutput{}
	e := NewEngine(out, monoF32, log.New(io.Discard))

	a := mustBuffer(t, make([]float32, 100), 8000, 1)
	zero := int64(0)
	if err := e.Apply(a, &zero); err != nil {
		t.Fatal(err)
	}
	if out.opens != 1 || !e.State().Playing() || !e.Running() {
		t.Fatalf("first apply: opens=%d playing=%v", out.opens, e.State().Playing())
	}

	e.State().SetPosition(80)
	e.State().SetGain(0.5)
	b := mustBuffer(t, make([]float32, 50), 8000, 1)
	if err := e.Apply(b, nil); err != nil {
		t.Fatal(err)
	}
	if out.opens != 1 {
		t.Errorf("second apply opened a stream, want hot swap")
	}
	if e.State().Buffer() != b || e.State().Position() != 50 {
		t.Errorf("after swap: position %d", e.State().Position())
	}
	if e.State().Gain() != 0.5 {
		t.Errorf("gain reset to %v by swap", e.State().Gain())
	}
}

func TestEngine_CheckStreamRebuildKeepsState(t *testing.T) {
	t.Parallel()

	out := &fakeOutput{}
	e := NewEngine(out, monoF32, log.New(io.Discard))
	buf := mustBuffer(t, make([]float32, 100), 8000, 1)
	if err := e.Apply(buf, nil); err != nil {
		t.Fatal(err)
	}
	if err := e.CheckStream(); err != nil {
		t.Fatalf("healthy stream: %v", err)
	}

	e.State().SetPosition(40)
	e.State().SetLoop(true)
	e.State().SetPlaying(false)

	deviceErr := errors.New("device unplugged")
	out.streams[0].err = deviceErr
	if err := e.CheckStream(); !errors.Is(err, deviceErr) {
		t.Fatalf("CheckStream error = %v, want %v", err, deviceErr)
	}
	if !out.streams[0].closed || e.Running() {
		t.Fatal("failed stream not dropped")
	}

	if err := e.Apply(buf, nil); err != nil {
		t.Fatal(err)
	}
	if out.opens != 2 {
		t.Errorf("opens = %d, want rebuild", out.opens)
	}
	st := e.State()
	if st.Position() != 40 || !st.Loop() || st.Playing() {
		t.Errorf("rebuild reset state: position=%d loop=%v playing=%v", st.Position(), st.Loop(), st.Playing())
	}
}

func TestEngine_Errors(t *testing.T) {
	t.Parallel()

	out := &fakeOutput{}
	e := NewEngine(out, monoF32, log.New(io.Discard))

	if err := e.Apply(nil, nil); !errors.Is(err, ErrNoBuffer) {
		t.Errorf("nil buffer: %v", err)
	}
	if err := e.Apply(mustBuffer(t, []float32{0}, 44100, 1), nil); !errors.Is(err, ErrSampleRateLocked) {
		t.Errorf("rate mismatch: %v", err)
	}

	out.failure = errors.New("no device")
	if err := e.Apply(mustBuffer(t, []float32{0}, 8000, 1), nil); !errors.Is(err, out.failure) {
		t.Errorf("open failure: %v", err)
	}
	out.failure = nil

	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if err := e.Apply(mustBuffer(t, []float32{0}, 8000, 1), nil); !errors.Is(err, ErrEngineClosed) {
		t.Errorf("after close: %v", err)
	}
}
