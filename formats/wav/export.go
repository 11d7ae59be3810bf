// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"

	"github.com/ik5/voiceforge/audio"
	"github.com/ik5/voiceforge/utils"
)

const (
	exportBitDepth = 16
	exportChunk    = 8192
	maxExportIndex = 9999
)

// Export writes buf to w as 16-bit PCM WAV. Samples are clamped to [-1, 1]
// and scaled by 32767.
func Export(w io.WriteSeeker, buf *audio.Buffer) error {
	if buf == nil || buf.Len() == 0 {
		return ErrNothingToExport
	}

	enc := gowav.NewEncoder(w, buf.SampleRate(), exportBitDepth, buf.Channels(), pcmFormat)
	format := &goaudio.Format{NumChannels: buf.Channels(), SampleRate: buf.SampleRate()}

	samples := buf.Samples()
	chunk := &goaudio.IntBuffer{
		Format:         format,
		SourceBitDepth: exportBitDepth,
		Data:           make([]int, 0, min(len(samples), exportChunk)),
	}

	for start := 0; start < len(samples); start += exportChunk {
		end := min(start+exportChunk, len(samples))
		chunk.Data = chunk.Data[:0]
		for _, s := range samples[start:end] {
			chunk.Data = append(chunk.Data, int(utils.Float32ToInt16(s)))
		}
		if err := enc.Write(chunk); err != nil {
			return fmt.Errorf("writing wav samples: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return nil
}

// ExportFile creates path and writes buf into it.
func ExportFile(path string, buf *audio.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create file: %w", err)
	}

	if err := Export(f, buf); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// NextExportPath picks an unused file name next to src:
// "<stem>_processed.wav", then "<stem>_processed_2.wav" and so on. If every
// candidate up to _9999 exists the first name is returned.
func NextExportPath(src string) string {
	dir := filepath.Dir(src)
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "output"
	}

	first := filepath.Join(dir, stem+"_processed.wav")
	for n := 1; n <= maxExportIndex; n++ {
		candidate := first
		if n > 1 {
			candidate = filepath.Join(dir, fmt.Sprintf("%s_processed_%d.wav", stem, n))
		}
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
	return first
}
