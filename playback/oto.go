// SPDX-License-Identifier: EPL-2.0

package playback

import (
	"fmt"
	"io"
	"sync"

	"github.com/hajimehoshi/oto/v2"
)

// OtoOutput plays through the system device with oto. oto allows a single
// context per process, so the first Open fixes the device configuration and
// later opens must ask for the same one.
type OtoOutput struct {
	mu  sync.Mutex
	ctx *oto.Context
	cfg DeviceConfig
}

func NewOtoOutput() *OtoOutput {
	return &OtoOutput{}
}

func otoFormat(f SampleFormat) (int, error) {
	switch f {
	case FormatFloat32:
		return oto.FormatFloat32LE, nil
	case FormatInt16:
		return oto.FormatSignedInt16LE, nil
	case FormatUint8:
		return oto.FormatUnsignedInt8, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
}

func (o *OtoOutput) Open(cfg DeviceConfig, r io.Reader) (Stream, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.ctx == nil {
		format, err := otoFormat(cfg.Format)
		if err != nil {
			return nil, err
		}
		ctx, ready, err := oto.NewContext(cfg.SampleRate, cfg.Channels, format)
		if err != nil {
			return nil, fmt.Errorf("opening audio device: %w", err)
		}
		<-ready
		o.ctx = ctx
		o.cfg = cfg
	} else if o.cfg != cfg {
		return nil, fmt.Errorf("%w: have %d Hz %d ch %v, want %d Hz %d ch %v",
			ErrSampleRateLocked,
			o.cfg.SampleRate, o.cfg.Channels, o.cfg.Format,
			cfg.SampleRate, cfg.Channels, cfg.Format)
	}

	player := o.ctx.NewPlayer(r)
	player.Play()

	return otoStream{player: player}, nil
}

type otoStream struct {
	player oto.Player
}

func (s otoStream) Err() error { return s.player.Err() }

func (s otoStream) Close() error {
	if err := s.player.Close(); err != nil {
		return fmt.Errorf("closing player: %w", err)
	}
	return nil
}
