// Package recording implements the microphone recording session: permission
// handling, a capture that produces a 16 kHz mono 16-bit WAV artifact, a
// one-second duration tick with an automatic stop at the length ceiling, and
// the idle/recording/processing/completed workflow built on top of it.
//
// Session operations never return errors. Failures are logged and reported
// as false or an empty URI, and the session is left with IsRecording false.
package recording

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultMaxSeconds is the recording ceiling when none is configured.
const DefaultMaxSeconds = 600

// State is a snapshot of a session.
type State struct {
	IsRecording bool
	Permission  Permission
	Elapsed     int
	MaxSeconds  int
	// URI is the last finalized artifact; empty when there is none.
	URI string
}

func (s State) FormattedDuration() string { return FormatDuration(s.Elapsed) }

func (s State) FormattedRemaining() string { return FormatRemainingTime(s.Elapsed, s.MaxSeconds) }

// Option configures a Session.
type Option func(*Session)

// WithMaxSeconds sets the recording ceiling.
func WithMaxSeconds(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxSeconds = n
		}
	}
}

// WithClock replaces the clock driving the duration tick.
func WithClock(c clockwork.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// Session tracks one microphone capture at a time.
type Session struct {
	device   Device
	recorder Recorder
	clock    clockwork.Clock

	mu          sync.Mutex
	permission  Permission
	modeApplied bool
	isRecording bool
	elapsed     int
	maxSeconds  int
	uri         string
	closed      bool

	ticker   clockwork.Ticker
	stopTick chan struct{}
	tickDone chan struct{}

	onTick     func(State)
	onAutoStop func(uri string, ok bool)
}

// NewSession probes the current permission, applying the recording audio
// mode when it is already granted.
func NewSession(ctx context.Context, device Device, recorder Recorder, opts ...Option) *Session {
	s := &Session{
		device:     device,
		recorder:   recorder,
		clock:      clockwork.NewRealClock(),
		maxSeconds: DefaultMaxSeconds,
	}
	for _, opt := range opts {
		opt(s)
	}

	p, err := device.PermissionStatus(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read microphone permission")
		p = PermissionUnknown
	}
	s.mu.Lock()
	s.permission = p
	if p == PermissionGranted {
		s.applyModeLocked(ctx)
	}
	s.mu.Unlock()
	return s
}

// OnTick registers fn to receive the state after every tick.
func (s *Session) OnTick(fn func(State)) {
	s.mu.Lock()
	s.onTick = fn
	s.mu.Unlock()
}

// OnAutoStop registers fn to be called when the ceiling stops a recording.
func (s *Session) OnAutoStop(fn func(uri string, ok bool)) {
	s.mu.Lock()
	s.onAutoStop = fn
	s.mu.Unlock()
}

// State returns a snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	return State{
		IsRecording: s.isRecording,
		Permission:  s.permission,
		Elapsed:     s.elapsed,
		MaxSeconds:  s.maxSeconds,
		URI:         s.uri,
	}
}

// RequestPermission asks for microphone access. It is safe to call
// repeatedly; the audio mode is applied once.
func (s *Session) RequestPermission(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestPermissionLocked(ctx)
}

func (s *Session) requestPermissionLocked(ctx context.Context) bool {
	if s.permission != PermissionGranted {
		p, err := s.device.RequestPermission(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Microphone permission request failed")
			return false
		}
		s.permission = p
	}
	if s.permission != PermissionGranted {
		log.Info().Msg("Microphone permission denied")
		return false
	}
	s.applyModeLocked(ctx)
	return true
}

func (s *Session) applyModeLocked(ctx context.Context) {
	if s.modeApplied {
		return
	}
	if err := s.device.SetAudioMode(ctx, RecordingMode); err != nil {
		log.Error().Err(err).Msg("Failed to configure audio mode")
		return
	}
	s.modeApplied = true
}

// StartRecording begins a new take, asking for permission first when it is
// not granted. It reports whether recording started.
func (s *Session) StartRecording(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		log.Warn().Msg("Recording session is closed")
		return false
	}
	if s.isRecording {
		log.Warn().Msg("Recording already in progress")
		return false
	}
	if s.permission != PermissionGranted && !s.requestPermissionLocked(ctx) {
		return false
	}

	if err := s.recorder.Prepare(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to prepare recorder")
		return false
	}
	if err := s.recorder.Record(); err != nil {
		log.Error().Err(err).Msg("Failed to start recorder")
		if d, ok := s.recorder.(interface{ Discard() }); ok {
			d.Discard()
		}
		return false
	}

	s.isRecording = true
	s.elapsed = 0
	s.uri = ""
	s.ticker = s.clock.NewTicker(time.Second)
	s.stopTick = make(chan struct{})
	s.tickDone = make(chan struct{})
	go s.tick(s.ticker, s.stopTick, s.tickDone)
	log.Info().Int("max_seconds", s.maxSeconds).Msg("Recording started")
	return true
}

func (s *Session) tick(ticker clockwork.Ticker, stop, done chan struct{}) {
	auto := false
	var uri string
	var ok bool
	var autoStop func(string, bool)

	defer func() {
		close(done)
		if auto && autoStop != nil {
			autoStop(uri, ok)
		}
	}()

	for {
		select {
		case <-stop:
			return
		case <-ticker.Chan():
		}

		s.mu.Lock()
		select {
		case <-stop:
			s.mu.Unlock()
			return
		default:
		}
		s.elapsed++
		if s.elapsed >= s.maxSeconds {
			s.elapsed = s.maxSeconds
			log.Info().Int("seconds", s.elapsed).Msg("Recording reached its maximum length")
			uri, ok = s.stopLocked()
			auto = true
		}
		st, onTick := s.stateLocked(), s.onTick
		autoStop = s.onAutoStop
		s.mu.Unlock()

		if onTick != nil {
			onTick(st)
		}
		if auto {
			return
		}
	}
}

// StopRecording finalizes the current take and returns its URI. It returns
// false when nothing is recording or the recorder fails.
func (s *Session) StopRecording() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRecording {
		log.Warn().Msg("No active recording to stop")
		return "", false
	}
	return s.stopLocked()
}

func (s *Session) stopLocked() (string, bool) {
	s.isRecording = false
	s.ticker.Stop()
	close(s.stopTick)

	uri, err := s.recorder.Stop()
	if err != nil {
		log.Error().Err(err).Msg("Failed to stop recorder")
		return "", false
	}
	s.uri = uri
	log.Info().Str("uri", uri).Int("seconds", s.elapsed).Msg("Recording stopped")
	return uri, true
}

// ResetRecording clears the elapsed time and URI. Permission and the
// recording flag are left alone.
func (s *Session) ResetRecording() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsed = 0
	s.uri = ""
}

// Close stops any recording in progress and restores the audio mode.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.isRecording {
		s.stopLocked()
	}
	done := s.tickDone
	applied := s.modeApplied
	s.modeApplied = false
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	if applied {
		return s.device.RestoreAudioMode(context.Background())
	}
	return nil
}
