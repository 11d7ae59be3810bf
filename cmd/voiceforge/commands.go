// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/ik5/voiceforge/effects"
	"github.com/ik5/voiceforge/formats"
	"github.com/ik5/voiceforge/fsutil"
	"github.com/ik5/voiceforge/modifier"
	"github.com/ik5/voiceforge/orchestrator"
)

var (
	errUnknownCommand = errors.New("unknown command")
	errMissingArg     = errors.New("missing argument")
)

const usage = `commands:
  open <path>         load an audio file
  ls [prefix]         list matching directories and audio files
  check <path>        detect the format of a file
  play                toggle play/pause
  loop                toggle looping
  ab                  toggle original/processed
  seek <seconds>      move the play head, negative rewinds
  ff | rw             seek forward/back by the configured step
  pitch <semitones>   vocoder pitch shift
  range <factor>      pitch range around the mean
  speed <factor>      playback speed
  breath <0..1>       breathiness
  formant <semitones> formant shift
  tilt <dB/oct>       spectral tilt
  bypass              toggle vocoder bypass
  reset               neutral vocoder and effects
  gain <dB>           live output gain
  lowcut <Hz>         high-pass corner, 20 disables
  highcut <Hz>        low-pass corner, 20000 disables
  comp <dB>           compressor threshold, 0 disables
  reverb <0..1>       reverb mix
  shift <semitones>   effects pitch shift
  eq <band 1-12> <dB> graphic EQ band
  export [path]       save processed audio as WAV
  formats             list the audio formats that can be opened
  status              print the current state
  help                this text
  quit                exit`

// parseLine turns one input line into actions. Slider and effects commands
// edit the values in snap. Commands that only print return their text.
func parseLine(line string, snap orchestrator.Snapshot, seekStep float64) ([]orchestrator.Action, string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, "", nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	sliders := snap.Sliders
	fx := snap.Effects

	number := func() (float64, error) {
		if len(args) == 0 {
			return 0, fmt.Errorf("%s: %w", cmd, errMissingArg)
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", cmd, err)
		}
		return v, nil
	}
	vocoderEdit := func(set func(v float64)) ([]orchestrator.Action, string, error) {
		v, err := number()
		if err != nil {
			return nil, "", err
		}
		set(v)
		return []orchestrator.Action{orchestrator.SetVocoder{Values: sliders}}, "", nil
	}
	effectsEdit := func(set func(v float32)) ([]orchestrator.Action, string, error) {
		v, err := number()
		if err != nil {
			return nil, "", err
		}
		set(float32(v))
		return []orchestrator.Action{orchestrator.SetEffects{Params: fx}}, "", nil
	}

	switch cmd {
	case "open", "load":
		if rest == "" {
			return nil, "", fmt.Errorf("%s: %w", cmd, errMissingArg)
		}
		return []orchestrator.Action{orchestrator.LoadFile{Path: rest}}, "", nil
	case "ls":
		return []orchestrator.Action{orchestrator.ScanDirectory{Prefix: rest}}, "", nil
	case "check":
		if rest == "" {
			return nil, "", fmt.Errorf("%s: %w", cmd, errMissingArg)
		}
		return []orchestrator.Action{orchestrator.Precheck{Path: rest}}, "", nil
	case "play", "p":
		return []orchestrator.Action{orchestrator.TogglePlay{}}, "", nil
	case "loop":
		return []orchestrator.Action{orchestrator.ToggleLoop{}}, "", nil
	case "ab":
		return []orchestrator.Action{orchestrator.ToggleAB{}}, "", nil
	case "seek":
		v, err := number()
		if err != nil {
			return nil, "", err
		}
		return []orchestrator.Action{orchestrator.Seek{Seconds: v}}, "", nil
	case "ff":
		return []orchestrator.Action{orchestrator.Seek{Seconds: seekStep}}, "", nil
	case "rw":
		return []orchestrator.Action{orchestrator.Seek{Seconds: -seekStep}}, "", nil

	case "pitch":
		return vocoderEdit(func(v float64) { sliders.PitchShift = v })
	case "range":
		return vocoderEdit(func(v float64) { sliders.PitchRange = v })
	case "speed":
		return vocoderEdit(func(v float64) { sliders.Speed = v })
	case "breath":
		return vocoderEdit(func(v float64) { sliders.Breathiness = v })
	case "formant":
		return vocoderEdit(func(v float64) { sliders.FormantShift = v })
	case "tilt":
		return vocoderEdit(func(v float64) { sliders.SpectralTilt = v })
	case "bypass":
		sliders.Bypass = !sliders.Bypass
		return []orchestrator.Action{orchestrator.SetVocoder{Values: sliders}}, "", nil
	case "reset":
		return []orchestrator.Action{
			orchestrator.SetVocoder{Values: modifier.Neutral()},
			orchestrator.SetEffects{Params: effects.Default()},
		}, "", nil

	case "gain":
		v, err := number()
		if err != nil {
			return nil, "", err
		}
		return []orchestrator.Action{orchestrator.SetGain{DB: float32(v)}}, "", nil
	case "lowcut":
		return effectsEdit(func(v float32) { fx.LowCutHz = v })
	case "highcut":
		return effectsEdit(func(v float32) { fx.HighCutHz = v })
	case "comp":
		return effectsEdit(func(v float32) { fx.CompressorThreshDB = v })
	case "reverb":
		return effectsEdit(func(v float32) { fx.ReverbMix = v })
	case "shift":
		return effectsEdit(func(v float32) { fx.PitchShiftSemitones = v })
	case "eq":
		if len(args) < 2 {
			return nil, "", fmt.Errorf("%s: %w", cmd, errMissingArg)
		}
		band, err := strconv.Atoi(args[0])
		if err != nil || band < 1 || band > effects.Bands {
			return nil, "", fmt.Errorf("eq: band must be 1-%d", effects.Bands)
		}
		db, err := strconv.ParseFloat(args[1], 32)
		if err != nil {
			return nil, "", fmt.Errorf("eq: %w", err)
		}
		fx.EQ[band-1] = float32(db)
		return []orchestrator.Action{orchestrator.SetEffects{Params: fx}}, "", nil

	case "export", "save":
		return []orchestrator.Action{orchestrator.Export{Path: rest}}, "", nil
	case "status":
		return nil, describe(snap), nil
	case "formats":
		keys := formats.DefaultRegistry().Formats()
		slices.Sort(keys)
		return nil, "formats: " + strings.Join(keys, ", "), nil
	case "help", "?":
		return nil, usage, nil
	case "quit", "exit", "q":
		return []orchestrator.Action{orchestrator.Quit{}}, "", nil
	}

	return nil, "", fmt.Errorf("%w: %q (try help)", errUnknownCommand, cmd)
}

func describe(s orchestrator.Snapshot) string {
	var b strings.Builder

	if !s.Loaded {
		b.WriteString("no file loaded\n")
	} else {
		fmt.Fprintf(&b, "%s  %d Hz  %d ch\n", s.File.Path, s.File.SampleRate, s.File.Channels)
		state := "paused"
		if s.Playing {
			state = "playing"
		}
		side := "B processed"
		if s.ShowingOriginal || !s.HasProcessed {
			side = "A original"
		}
		fmt.Fprintf(&b, "%s %s / %s  loop=%v  %s  gain %.1f dB\n",
			state, s.Position.Round(100e6), s.Duration.Round(100e6), s.Loop, side, s.GainDB)
	}

	v := s.Sliders
	fmt.Fprintf(&b, "vocoder: pitch %+.1f  range %.2f  speed %.2f  breath %.2f  formant %+.1f  tilt %+.1f  bypass=%v\n",
		v.PitchShift, v.PitchRange, v.Speed, v.Breathiness, v.FormantShift, v.SpectralTilt, v.Bypass)

	fx := s.Effects
	fmt.Fprintf(&b, "effects: lowcut %.0f  highcut %.0f  comp %.1f  reverb %.2f  shift %+.1f  eq %v\n",
		fx.LowCutHz, fx.HighCutHz, fx.CompressorThreshDB, fx.ReverbMix, fx.PitchShiftSemitones, fx.EQ)

	device := "stopped"
	if s.DeviceRunning {
		device = "running"
	}
	fmt.Fprintf(&b, "device: %s  jobs: %s\n", device, describeSent(s.Sent))

	status := s.Status
	if s.StatusErr {
		status = "error: " + status
	}
	b.WriteString(status)

	return b.String()
}

// describeSent lists worker commands by count, short type names sorted.
func describeSent(sent map[string]int) string {
	if len(sent) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(sent))
	for k := range sent {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", strings.TrimPrefix(k, "processing."), sent[k])
	}
	return strings.Join(parts, " ")
}

func describeListing(s orchestrator.Snapshot) string {
	if s.ListingErr != nil {
		return fmt.Sprintf("ls %s: %v", s.ListingPrefix, s.ListingErr)
	}
	if len(s.Listing) == 0 {
		return fmt.Sprintf("ls %s: no matches", s.ListingPrefix)
	}

	var b strings.Builder
	for i, e := range s.Listing {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Path)
		if e.IsDir {
			b.WriteString(string(os.PathSeparator))
		}
	}
	if common := fsutil.CommonPrefix(s.Listing); len(s.Listing) > 1 && common != "" {
		fmt.Fprintf(&b, "\n(common prefix %q)", common)
	}
	return b.String()
}

func describePrecheck(s orchestrator.Snapshot) string {
	p := s.Precheck
	if p.Err != nil {
		return fmt.Sprintf("check %s: %v", p.Path, p.Err)
	}
	return fmt.Sprintf("check %s: %s", p.Path, p.Format)
}
