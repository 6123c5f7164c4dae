//go:build portaudio

package recording

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

// MicrophoneSource captures from the default input device.
type MicrophoneSource struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	in     []int16
}

// NewDefaultSource returns the microphone source.
func NewDefaultSource() Source { return &MicrophoneSource{} }

func (m *MicrophoneSource) Open(context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init failed: %w", err)
	}
	m.in = make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(Channels, 0, float64(SampleRate), len(m.in), m.in)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("open stream failed: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("start stream failed: %w", err)
	}
	m.mu.Lock()
	m.stream = stream
	m.mu.Unlock()
	return nil
}

func (m *MicrophoneSource) Read(buf []int16) (int, error) {
	m.mu.Lock()
	stream := m.stream
	m.mu.Unlock()
	if stream == nil {
		return 0, fmt.Errorf("microphone stream not open")
	}
	if err := stream.Read(); err != nil {
		return 0, fmt.Errorf("stream read error: %w", err)
	}
	return copy(buf, m.in), nil
}

func (m *MicrophoneSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return nil
	}
	_ = m.stream.Stop()
	err := m.stream.Close()
	m.stream = nil
	portaudio.Terminate()
	return err
}
