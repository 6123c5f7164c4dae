package recording

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
)

// Source yields 16-bit PCM samples at SampleRate, mono.
type Source interface {
	Open(ctx context.Context) error
	// Read fills buf and returns the number of samples read. io.EOF ends the
	// capture early; the recording stays open until stopped.
	Read(buf []int16) (int, error)
	Close() error
}

// ReaderSource reads little-endian int16 PCM from an io.Reader.
type ReaderSource struct {
	R io.Reader

	raw []byte
}

func (s *ReaderSource) Open(context.Context) error {
	if s.R == nil {
		return errors.New("reader source has no reader")
	}
	return nil
}

func (s *ReaderSource) Read(buf []int16) (int, error) {
	if cap(s.raw) < len(buf)*2 {
		s.raw = make([]byte, len(buf)*2)
	}
	raw := s.raw[:len(buf)*2]
	n, err := io.ReadFull(s.R, raw)
	samples := n / 2
	for i := 0; i < samples; i++ {
		buf[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	if samples > 0 && errors.Is(err, io.EOF) {
		return samples, nil
	}
	return samples, err
}

func (s *ReaderSource) Close() error {
	if c, ok := s.R.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// SilenceSource produces zero samples in real time. It stands in for a
// microphone on hosts built without audio capture.
type SilenceSource struct {
	Clock clockwork.Clock
}

func (s *SilenceSource) Open(context.Context) error {
	if s.Clock == nil {
		s.Clock = clockwork.NewRealClock()
	}
	return nil
}

func (s *SilenceSource) Read(buf []int16) (int, error) {
	s.Clock.Sleep(time.Duration(len(buf)) * time.Second / SampleRate)
	clear(buf)
	return len(buf), nil
}

func (s *SilenceSource) Close() error { return nil }
