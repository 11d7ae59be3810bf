// SPDX-License-Identifier: EPL-2.0

package spectrum

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ik5/voiceforge/audio"
	"github.com/ik5/voiceforge/internal/audiotest"
)

func TestNewAnalyzer_Size(t *testing.T) {
	t.Parallel()

	for _, size := range []int{0, 1, 3, 1000} {
		if _, err := NewAnalyzer(size); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("NewAnalyzer(%d) error = %v, want %v", size, err, ErrInvalidSize)
		}
	}

	a, err := NewAnalyzer(1024)
	if err != nil {
		t.Fatal(err)
	}
	if a.Size() != 1024 || a.Bins() != 512 {
		t.Errorf("size=%d bins=%d, want 1024/512", a.Size(), a.Bins())
	}
}

func TestAnalyzer_Silence(t *testing.T) {
	t.Parallel()

	a, err := NewAnalyzer(256)
	if err != nil {
		t.Fatal(err)
	}
	bins, err := a.Compute(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(bins) != 128 {
		t.Fatalf("len = %d, want 128", len(bins))
	}
	for i, b := range bins {
		if b != FloorDB {
			t.Fatalf("bin %d = %v, want %v", i, b, FloorDB)
		}
	}
}

func TestAnalyzer_TonePeak(t *testing.T) {
	t.Parallel()

	const (
		rate = 8000
		size = 1024
	)
	a, err := NewAnalyzer(size)
	if err != nil {
		t.Fatal(err)
	}

	// Bin 64 sits exactly on 500 Hz. The level keeps the peak under the
	// ceiling so neighbouring bins do not clip and tie with it.
	samples := audiotest.Interleave(1, size, audiotest.Sine(rate, 500, 0.05))
	bins, err := a.Compute(samples)
	if err != nil {
		t.Fatal(err)
	}

	peak := 0
	for i, b := range bins {
		if b > bins[peak] {
			peak = i
		}
		if b < FloorDB || b > CeilingDB {
			t.Fatalf("bin %d = %v outside the display range", i, b)
		}
	}
	if peak != 64 {
		t.Errorf("peak bin = %d (%.0f Hz), want 64", peak, a.BinFrequency(peak, rate))
	}
	if bins[peak] < -20 || bins[peak] >= CeilingDB {
		t.Errorf("peak = %v dB, want a strong unclipped peak", bins[peak])
	}
	if bins[63] >= bins[64] || bins[65] >= bins[64] {
		t.Errorf("neighbours %v, %v dB not below the peak %v dB", bins[63], bins[65], bins[64])
	}
	if bins[300] > bins[peak]-40 {
		t.Errorf("far bin %v dB is close to the peak %v dB", bins[300], bins[peak])
	}
}

func TestExtractWindow(t *testing.T) {
	t.Parallel()

	buf, err := audio.NewBuffer([]float32{1, 3, 2, 4, 5, 7}, 44100, 2)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		pos  int64
		size int
		want []float32
	}{
		{name: "from start", pos: 0, size: 3, want: []float32{2, 3, 6}},
		{name: "mid frame position", pos: 3, size: 2, want: []float32{3, 6}},
		{name: "zero padded", pos: 4, size: 3, want: []float32{6, 0, 0}},
		{name: "past end", pos: 100, size: 2, want: []float32{0, 0}},
		{name: "negative", pos: -5, size: 1, want: []float32{2}},
	}
	for _, tt := range tests {
		got := ExtractWindow(buf, tt.pos, tt.size)
		if len(got) != len(tt.want) {
			t.Errorf("%s: len = %d, want %d", tt.name, len(got), len(tt.want))
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
				break
			}
		}
	}

	if got := ExtractWindow(nil, 0, 4); len(got) != 4 {
		t.Errorf("nil buffer: len = %d, want 4", len(got))
	}
}

func ExampleAnalyzer_BinFrequency() {
	a, _ := NewAnalyzer(2048)
	fmt.Printf("%d bins, top bin at %.0f Hz\n", a.Bins(), a.BinFrequency(a.Bins()-1, 44100))
	// Output: 1024 bins, top bin at 22028 Hz
}
