// SPDX-License-Identifier: EPL-2.0

// Package formats picks a decoder for a file by its leading bytes and decodes
// it into an audio.Buffer.
package formats

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ik5/voiceforge/audio"
	"github.com/ik5/voiceforge/formats/aiff"
	"github.com/ik5/voiceforge/formats/mp3"
	"github.com/ik5/voiceforge/formats/vorbis"
	"github.com/ik5/voiceforge/formats/wav"
)

// Format keys used in the registry.
const (
	WAV    = "wav"
	MP3    = "mp3"
	Vorbis = "ogg"
	AIFF   = "aiff"
)

const sniffLen = 12

var ErrUnknownFormat = errors.New("unrecognized audio format")

// DefaultRegistry returns a registry with every bundled decoder.
func DefaultRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register(WAV, wav.Decoder{})
	r.Register(MP3, mp3.Decoder{})
	r.Register(Vorbis, vorbis.Decoder{})
	r.Register(AIFF, aiff.Decoder{})
	return r
}

// Sniff returns the format key matching the magic bytes at the start of a
// file.
func Sniff(header []byte) (string, bool) {
	switch {
	case len(header) >= 12 && bytes.Equal(header[:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return WAV, true
	case len(header) >= 12 && bytes.Equal(header[:4], []byte("FORM")) &&
		(bytes.Equal(header[8:12], []byte("AIFF")) || bytes.Equal(header[8:12], []byte("AIFC"))):
		return AIFF, true
	case len(header) >= 4 && bytes.Equal(header[:4], []byte("OggS")):
		return Vorbis, true
	case len(header) >= 3 && bytes.Equal(header[:3], []byte("ID3")):
		return MP3, true
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		// MPEG frame sync without an ID3 tag.
		return MP3, true
	}
	return "", false
}

// Precheck opens path and reports which decoder would handle it, without
// decoding any audio.
func Precheck(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("precheck: %w", err)
	}
	defer f.Close()

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("precheck %s: %w", path, err)
	}

	format, ok := Sniff(header[:n])
	if !ok {
		return "", fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	return format, nil
}

// DecodeFile decodes the whole file at path with the default registry.
func DecodeFile(path string, onProgress audio.ProgressFunc) (*audio.Buffer, error) {
	return Decode(DefaultRegistry(), path, onProgress)
}

// Decode sniffs path, looks up the decoder in registry and reads the file to
// the end. onProgress may be nil.
func Decode(registry *audio.Registry, path string, onProgress audio.ProgressFunc) (*audio.Buffer, error) {
	format, err := Precheck(path)
	if err != nil {
		return nil, err
	}

	dec, ok := registry.Get(format)
	if !ok {
		return nil, fmt.Errorf("%s: no decoder for %q: %w", path, format, ErrUnknownFormat)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	src, err := dec.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	defer src.Close()

	buf, err := audio.ReadAll(src, onProgress)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return buf, nil
}
