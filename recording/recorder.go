package recording

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Artifact format expected by the speech backend.
const (
	SampleRate  = 16000
	Channels    = 1
	BitDepth    = 16
	MaxFileSize = 50 * 1024 * 1024

	wavHeaderSize = 44
	chunkSamples  = 1024
)

var (
	ErrNotPrepared = errors.New("recorder is not prepared")
	ErrNotStarted  = errors.New("recorder is not recording")
	ErrRecording   = errors.New("recorder is already recording")
)

// Recorder captures one recording at a time.
type Recorder interface {
	Prepare(ctx context.Context) error
	Record() error
	// Stop finalizes the artifact and returns its location.
	Stop() (string, error)
}

// WAVRecorder writes samples from a Source into a temporary WAV file.
type WAVRecorder struct {
	Source Source
	// Dir holds the artifacts; os.TempDir() when empty.
	Dir string
	// MaxBytes caps the file size; MaxFileSize when zero.
	MaxBytes int64

	mu      sync.Mutex
	path    string
	file    *os.File
	enc     *wav.Encoder
	stop    chan struct{}
	done    chan struct{}
	capErr  error
	written int64
}

func NewWAVRecorder(src Source, dir string) *WAVRecorder {
	return &WAVRecorder{Source: src, Dir: dir}
}

func (r *WAVRecorder) Prepare(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stop != nil {
		return ErrRecording
	}
	if r.file != nil {
		r.discardLocked()
	}

	dir := r.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create recording directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("recording-%s.wav", uuid.NewString()))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create recording file: %w", err)
	}

	enc := wav.NewEncoder(f, SampleRate, BitDepth, Channels, 1)
	// An empty write emits the header so that a zero-length take is still valid.
	if err := enc.Write(r.buffer(nil)); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write wav header: %w", err)
	}
	if err := r.Source.Open(ctx); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to open audio source: %w", err)
	}

	r.path, r.file, r.enc = path, f, enc
	r.written = wavHeaderSize
	r.capErr = nil
	log.Debug().Str("path", path).Msg("Recorder prepared")
	return nil
}

func (r *WAVRecorder) Record() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return ErrNotPrepared
	}
	if r.stop != nil {
		return nil
	}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.capture(r.stop, r.done)
	return nil
}

func (r *WAVRecorder) capture(stop, done chan struct{}) {
	defer close(done)
	maxBytes := r.MaxBytes
	if maxBytes <= 0 {
		maxBytes = MaxFileSize
	}
	samples := make([]int16, chunkSamples)
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := r.Source.Read(samples)
		if n > 0 {
			r.mu.Lock()
			room := int((maxBytes - r.written) / 2)
			if n > room {
				n = room
			}
			var werr error
			if n > 0 {
				werr = r.enc.Write(r.buffer(samples[:n]))
				r.written += int64(n) * 2
			}
			full := r.written+2 > maxBytes
			r.mu.Unlock()
			if werr != nil {
				r.fail(fmt.Errorf("failed to write samples: %w", werr))
				return
			}
			if full {
				log.Info().Int64("bytes", r.written).Msg("Recording reached the file size limit")
				return
			}
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			r.fail(err)
			return
		}
	}
}

func (r *WAVRecorder) fail(err error) {
	log.Error().Err(err).Msg("Audio capture failed")
	r.mu.Lock()
	r.capErr = err
	r.mu.Unlock()
}

func (r *WAVRecorder) buffer(samples []int16) *audio.IntBuffer {
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: Channels, SampleRate: SampleRate},
		Data:           data,
		SourceBitDepth: BitDepth,
	}
}

func (r *WAVRecorder) Stop() (string, error) {
	r.mu.Lock()
	if r.file == nil || r.stop == nil {
		r.mu.Unlock()
		return "", ErrNotStarted
	}
	stop, done := r.stop, r.done
	r.mu.Unlock()

	// Source.Read must have returned before the source is closed.
	close(stop)
	<-done
	srcErr := r.Source.Close()

	r.mu.Lock()
	defer r.mu.Unlock()
	path, f, enc, capErr := r.path, r.file, r.enc, r.capErr
	r.file, r.enc, r.stop, r.done, r.path = nil, nil, nil, nil, ""

	if err := enc.Close(); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to finalize wav: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close recording file: %w", err)
	}
	if srcErr != nil {
		log.Warn().Err(srcErr).Msg("Failed to close audio source")
	}
	if capErr != nil {
		return "", capErr
	}
	log.Info().Str("path", path).Msg("Recording saved")
	return path, nil
}

func (r *WAVRecorder) discardLocked() {
	_ = r.Source.Close()
	_ = r.file.Close()
	_ = os.Remove(r.path)
	r.file, r.enc, r.path = nil, nil, ""
}

// Discard drops a prepared but not started recording.
func (r *WAVRecorder) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil && r.stop == nil {
		r.discardLocked()
	}
}
