// Package playback plays synthesized speech returned by the backend.
package playback

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
	"github.com/rs/zerolog/log"
)

var (
	ErrEmptyAudio = errors.New("no audio data")
	ErrStopped    = errors.New("playback stopped")
)

// Sink consumes a decoded stream. It must eventually drain s.
type Sink interface {
	Play(s beep.Streamer, format beep.Format) error
}

// Playback resolves once a sound finished playing or failed.
type Playback struct {
	done    chan struct{}
	once    sync.Once
	err     error
	stopped atomic.Bool
}

func newPlayback() *Playback { return &Playback{done: make(chan struct{})} }

func (p *Playback) finish(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Done is closed when playback ends.
func (p *Playback) Done() <-chan struct{} { return p.done }

// Err reports the outcome. It is only meaningful after Done is closed.
func (p *Playback) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until playback ends. Cancelling ctx stops the sound.
func (p *Playback) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		p.Stop()
		return ctx.Err()
	}
}

// Stop ends the sound early; the playback resolves with ErrStopped.
func (p *Playback) Stop() { p.stopped.Store(true) }

// stream ends as soon as its playback is stopped.
type stream struct {
	beep.Streamer
	p *Playback
}

func (s stream) Stream(samples [][2]float64) (int, bool) {
	if s.p.stopped.Load() {
		return 0, false
	}
	return s.Streamer.Stream(samples)
}

// Player plays one sound at a time; starting a new one stops the previous.
type Player struct {
	sink Sink

	mu      sync.Mutex
	current *Playback
}

// NewPlayer plays through sink, or the system speaker when sink is nil.
func NewPlayer(sink Sink) *Player {
	if sink == nil {
		sink = &Speaker{}
	}
	return &Player{sink: sink}
}

// PlayBase64 decodes the base64 payload the backend returns and plays it.
func (pl *Player) PlayBase64(encoded string) *Playback {
	if encoded == "" {
		p := newPlayback()
		p.finish(ErrEmptyAudio)
		return p
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		p := newPlayback()
		p.finish(fmt.Errorf("invalid base64 audio: %w", err))
		return p
	}
	return pl.Play(data)
}

// Play decodes MP3 or WAV bytes and starts playing them.
func (pl *Player) Play(data []byte) *Playback {
	p := newPlayback()
	if len(data) == 0 {
		p.finish(ErrEmptyAudio)
		return p
	}

	streamer, format, err := decode(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to decode audio stream")
		p.finish(err)
		return p
	}

	pl.mu.Lock()
	if pl.current != nil {
		pl.current.Stop()
	}
	pl.current = p
	pl.mu.Unlock()

	seq := beep.Seq(stream{Streamer: streamer, p: p}, beep.Callback(func() {
		_ = streamer.Close()
		if err := streamer.Err(); err != nil {
			p.finish(fmt.Errorf("playback failed: %w", err))
			return
		}
		if p.stopped.Load() {
			p.finish(ErrStopped)
			return
		}
		p.finish(nil)
	}))
	if err := pl.sink.Play(seq, format); err != nil {
		_ = streamer.Close()
		p.finish(fmt.Errorf("failed to start playback: %w", err))
	}
	return p
}

// Playing reports whether a sound is in progress.
func (pl *Player) Playing() bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.current == nil {
		return false
	}
	select {
	case <-pl.current.done:
		return false
	default:
		return true
	}
}

// Stop ends the current sound, if any.
func (pl *Player) Stop() {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if pl.current != nil {
		pl.current.Stop()
	}
}

func decode(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	r := io.NopCloser(bytes.NewReader(data))
	if isWAV(data) {
		s, f, err := wav.Decode(r)
		if err != nil {
			return nil, beep.Format{}, fmt.Errorf("failed to decode wav: %w", err)
		}
		return s, f, nil
	}
	s, f, err := mp3.Decode(r)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to decode mp3: %w", err)
	}
	return s, f, nil
}

func isWAV(data []byte) bool {
	return len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}
