// SPDX-License-Identifier: EPL-2.0

package wav_test

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ik5/voiceforge/audio"
	"github.com/ik5/voiceforge/formats/wav"
)

// Example_exportAndDecode writes a buffer to disk and reads it back.
func Example_exportAndDecode() {
	dir, _ := os.MkdirTemp("", "wav-example")
	defer os.RemoveAll(dir)

	buf, _ := audio.NewBuffer(make([]float32, 1600), 16000, 1)
	path := wav.NextExportPath(filepath.Join(dir, "voice.ogg"))
	if err := wav.ExportFile(path, buf); err != nil {
		fmt.Println("export:", err)
		return
	}

	f, _ := os.Open(path)
	defer f.Close()

	src, err := wav.Decoder{}.Decode(f)
	if err != nil {
		fmt.Println("decode:", err)
		return
	}
	decoded, _ := audio.ReadAll(src, nil)

	fmt.Println(filepath.Base(path))
	fmt.Println(decoded)
	// Output:
	// voice_processed.wav
	// 16000 Hz, 1 ch, 0.10s
}
