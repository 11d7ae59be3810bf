// SPDX-License-Identifier: EPL-2.0

// Package config loads runtime settings from VOICEFORGE_* environment
// variables. Unset or unparsable values fall back to the defaults.
package config

import (
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
)

const envPrefix = "VOICEFORGE_"

// Config holds all runtime configuration.
type Config struct {
	// Output device
	SampleRate     int // decoded audio is resampled to this rate
	OutputChannels int
	OutputFormat   string // f32, s16 or u8

	// Orchestrator timing
	Tick            time.Duration
	ResynthDebounce time.Duration
	EffectsDebounce time.Duration
	SeekSeconds     float64

	NeutralEpsilon float64 // slider tolerance for skipping the modifier
	SpectrumSize   int

	LogLevel string
	LogFile  string // empty logs to stderr
}

// Load reads configuration from the environment.
func Load() Config {
	return Config{
		SampleRate:     envInt("SAMPLE_RATE", 44100),
		OutputChannels: envInt("OUTPUT_CHANNELS", 2),
		OutputFormat:   envStr("OUTPUT_FORMAT", "f32"),

		Tick:            envMillis("TICK_MS", 33),
		ResynthDebounce: envMillis("RESYNTH_DEBOUNCE_MS", 150),
		EffectsDebounce: envMillis("EFFECTS_DEBOUNCE_MS", 80),
		SeekSeconds:     envFloat("SEEK_SECONDS", 5),

		NeutralEpsilon: envFloat("NEUTRAL_EPSILON", 1e-9),
		SpectrumSize:   envInt("SPECTRUM_SIZE", 2048),

		LogLevel: envStr("LOG_LEVEL", "info"),
		LogFile:  envStr("LOG_FILE", "voiceforge.log"),
	}
}

// NewLogger builds the application logger writing to w. An unknown level
// falls back to info.
func (c Config) NewLogger(w io.Writer) *log.Logger {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "voiceforge",
	})
}

func envStr(key, fallback string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(envPrefix + key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(envPrefix + key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
