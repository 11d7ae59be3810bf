// SPDX-License-Identifier: EPL-2.0

package config

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

// Tests that touch the environment use t.Setenv and so cannot run in
// parallel.

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"SAMPLE_RATE", "TICK_MS", "OUTPUT_FORMAT", "NEUTRAL_EPSILON", "LOG_FILE"} {
		t.Setenv(envPrefix+k, "")
	}

	c := Load()
	if c.SampleRate != 44100 || c.OutputChannels != 2 || c.OutputFormat != "f32" {
		t.Errorf("device defaults = %d/%d/%s", c.SampleRate, c.OutputChannels, c.OutputFormat)
	}
	if c.Tick != 33*time.Millisecond || c.ResynthDebounce != 150*time.Millisecond || c.EffectsDebounce != 80*time.Millisecond {
		t.Errorf("timing defaults = %v/%v/%v", c.Tick, c.ResynthDebounce, c.EffectsDebounce)
	}
	if c.NeutralEpsilon != 1e-9 || c.SeekSeconds != 5 || c.SpectrumSize != 2048 {
		t.Errorf("misc defaults = %v/%v/%v", c.NeutralEpsilon, c.SeekSeconds, c.SpectrumSize)
	}
	if c.LogLevel != "info" || c.LogFile != "voiceforge.log" {
		t.Errorf("log defaults = %q/%q", c.LogLevel, c.LogFile)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("VOICEFORGE_SAMPLE_RATE", "48000")
	t.Setenv("VOICEFORGE_OUTPUT_FORMAT", "s16")
	t.Setenv("VOICEFORGE_RESYNTH_DEBOUNCE_MS", "300")
	t.Setenv("VOICEFORGE_SEEK_SECONDS", "2.5")
	t.Setenv("VOICEFORGE_TICK_MS", "not a number")

	c := Load()
	if c.SampleRate != 48000 || c.OutputFormat != "s16" {
		t.Errorf("got %d/%s", c.SampleRate, c.OutputFormat)
	}
	if c.ResynthDebounce != 300*time.Millisecond || c.SeekSeconds != 2.5 {
		t.Errorf("got %v/%v", c.ResynthDebounce, c.SeekSeconds)
	}
	if c.Tick != 33*time.Millisecond {
		t.Errorf("unparsable tick = %v, want default", c.Tick)
	}
}

func TestConfig_NewLogger(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	logger := Config{LogLevel: "warn"}.NewLogger(&out)
	logger.Info("hidden")
	logger.Warn("shown", "key", 1)

	got := out.String()
	if strings.Contains(got, "hidden") || !strings.Contains(got, "shown") || !strings.Contains(got, "key=1") {
		t.Errorf("log output = %q", got)
	}

	out.Reset()
	Config{LogLevel: "bogus"}.NewLogger(&out).Info("fallback")
	if !strings.Contains(out.String(), "fallback") {
		t.Errorf("unknown level did not fall back to info: %q", out.String())
	}
}
