// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ik5/voiceforge/audio"
)

// mockOgg returns interleaved values like oggvorbis.Reader: the count is in
// values, not frames.
type mockOgg struct {
	data     []float32
	pos      int
	channels int
	err      error
}

func (m *mockOgg) SampleRate() int { return 48000 }
func (m *mockOgg) Channels() int   { return m.channels }
func (m *mockOgg) Length() int64   { return int64(len(m.data) / m.channels) }

func (m *mockOgg) Read(p []float32) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += n
	return n, nil
}

func TestSource_ReadsWholeFrames(t *testing.T) {
	t.Parallel()

	src := &source{dec: &mockOgg{data: []float32{1, 2, 3, 4, 5, 6}, channels: 2}}

	// Room for 2.5 frames: only two are requested.
	dst := make([]float32, 5)
	n, err := src.ReadSamples(dst)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 4 {
		t.Fatalf("ReadSamples() n = %d, want 4", n)
	}
	if dst[3] != 4 {
		t.Errorf("dst[3] = %v, want 4", dst[3])
	}
}

func TestSource_ReadAll(t *testing.T) {
	t.Parallel()

	var progress []int
	src := &source{dec: &mockOgg{data: make([]float32, 3000), channels: 3}}

	buf, err := audio.ReadAll(src, func(p int) { progress = append(progress, p) })
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if buf.Frames() != 1000 || buf.Channels() != 3 {
		t.Errorf("got %v", buf)
	}
	if len(progress) == 0 || progress[len(progress)-1] != 100 {
		t.Errorf("progress = %v, want to end at 100", progress)
	}
}

func TestSource_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("corrupt page")
	src := &source{dec: &mockOgg{channels: 1, err: boom}}
	if _, err := src.ReadSamples(make([]float32, 4)); !errors.Is(err, boom) {
		t.Errorf("ReadSamples() error = %v, want %v", err, boom)
	}
}

func TestDecoder_RejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := (Decoder{}).Decode(bytes.NewReader([]byte("OggS but not really"))); err == nil {
		t.Error("Decode() accepted garbage input")
	}
}
