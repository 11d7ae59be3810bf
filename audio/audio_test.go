// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"slices"
	"testing"
)

type nopDecoder struct{ name string }

func (nopDecoder) Decode(io.Reader) (Source, error) { return nil, nil }

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register("wav", nopDecoder{name: "first"})
	r.Register("mp3", nopDecoder{})
	r.Register("wav", nopDecoder{name: "second"})

	d, ok := r.Get("wav")
	if !ok {
		t.Fatal("Get(wav) not found")
	}
	if d.(nopDecoder).name != "second" {
		t.Error("Register did not replace the earlier decoder")
	}
	if _, ok := r.Get("flac"); ok {
		t.Error("Get(flac) found a decoder that was never registered")
	}

	keys := r.Formats()
	slices.Sort(keys)
	if !slices.Equal(keys, []string{"mp3", "wav"}) {
		t.Errorf("Formats() = %v", keys)
	}
}
