// SPDX-License-Identifier: EPL-2.0

// Command voiceforge loads a voice recording and lets you reshape it with
// vocoder sliders and an effects chain while it keeps playing.
//
//	voiceforge [file]
//
// Commands are read line by line from stdin; type "help" for the list.
// Settings come from VOICEFORGE_* environment variables.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ik5/voiceforge/config"
	"github.com/ik5/voiceforge/orchestrator"
	"github.com/ik5/voiceforge/playback"
	"github.com/ik5/voiceforge/processing"
)

// How long quitting waits for an in-flight job before leaving it behind.
const shutdownGrace = 2 * time.Second

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "voiceforge:", err)
		os.Exit(1)
	}
}

func run(args []string, in io.Reader, out io.Writer) error {
	cfg := config.Load()

	logOut := io.Writer(os.Stderr)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := cfg.NewLogger(logOut)

	format, err := playback.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return err
	}
	dev := playback.DeviceConfig{
		SampleRate: cfg.SampleRate,
		Channels:   cfg.OutputChannels,
		Format:     format,
	}

	engine := playback.NewEngine(playback.NewOtoOutput(), dev, logger)
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("closing playback", "error", err)
		}
	}()

	worker := processing.Spawn(processing.Options{
		TargetSampleRate: cfg.SampleRate,
		NeutralEpsilon:   cfg.NeutralEpsilon,
		Logger:           logger,
	})

	orch := orchestrator.New(worker, engine, orchestrator.Config{
		ResynthDebounce: cfg.ResynthDebounce,
		EffectsDebounce: cfg.EffectsDebounce,
		SpectrumSize:    cfg.SpectrumSize,
	}, logger)

	logger.Info("voiceforge starting", "rate", dev.SampleRate, "channels", dev.Channels, "format", format.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	loop(ctx, orch, readLines(in), cfg.Tick, cfg.SeekSeconds, args, out, logger)

	worker.Close()
	if !worker.Wait(shutdownGrace) {
		logger.Warn("worker still busy, leaving it behind")
	}
	logger.Info("voiceforge stopped")
	return nil
}

// loop drives the orchestrator until Quit, end of input or ctx is done.
func loop(
	ctx context.Context,
	orch *orchestrator.Orchestrator,
	lines <-chan string,
	tick time.Duration,
	seekStep float64,
	args []string,
	out io.Writer,
	logger *log.Logger,
) {
	var queued []orchestrator.Action
	if len(args) > 0 {
		queued = append(queued, orchestrator.LoadFile{Path: strings.Join(args, " ")})
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var lastStatus string
	var listingSeq, precheckSeq int
	fmt.Fprintln(out, `voiceforge ready, type "help" for commands`)

	for !orch.Done() {
		select {
		case <-ctx.Done():
			queued = append(queued, orchestrator.Quit{})
			ctx = context.Background()

		case line, ok := <-lines:
			if !ok {
				queued = append(queued, orchestrator.Quit{})
				lines = nil
				continue
			}
			actions, text, err := parseLine(line, orch.Snapshot(), seekStep)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if text != "" {
				fmt.Fprintln(out, text)
			}
			queued = append(queued, actions...)

		case now := <-ticker.C:
			orch.Tick(now, queued...)
			queued = queued[:0]

			snap := orch.Snapshot()
			if snap.Status != lastStatus {
				lastStatus = snap.Status
				prefix := ""
				if snap.StatusErr {
					prefix = "error: "
				}
				fmt.Fprintln(out, prefix+snap.Status)
				logger.Debug("status", "text", snap.Status)
			}
			if snap.ListingSeq != listingSeq {
				listingSeq = snap.ListingSeq
				fmt.Fprintln(out, describeListing(snap))
			}
			if snap.PrecheckSeq != precheckSeq {
				precheckSeq = snap.PrecheckSeq
				fmt.Fprintln(out, describePrecheck(snap))
			}
		}
	}
}

func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}
