package playback

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drainSink consumes streams on a goroutine without touching audio hardware.
type drainSink struct {
	mu      sync.Mutex
	formats []beep.Format
	gate    chan struct{}
}

func (d *drainSink) Play(s beep.Streamer, format beep.Format) error {
	d.mu.Lock()
	d.formats = append(d.formats, format)
	gate := d.gate
	d.mu.Unlock()
	go func() {
		buf := make([][2]float64, 512)
		for {
			if gate != nil {
				<-gate
			}
			if _, ok := s.Stream(buf); !ok {
				return
			}
		}
	}()
	return nil
}

func wavBytes(t *testing.T, samples int) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc := gowav.NewEncoder(f, 16000, 16, 1, 1)
	data := make([]int, samples)
	for i := range data {
		data[i] = (i % 100) * 100
	}
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 16000},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func TestPlay_WAVResolves(t *testing.T) {
	sink := &drainSink{}
	pl := NewPlayer(sink)

	p := pl.Play(wavBytes(t, 8000))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Wait(ctx))
	assert.NoError(t, p.Err())
	assert.False(t, pl.Playing())

	require.Len(t, sink.formats, 1)
	assert.Equal(t, beep.SampleRate(16000), sink.formats[0].SampleRate)
}

func TestPlayBase64(t *testing.T) {
	pl := NewPlayer(&drainSink{})
	p := pl.PlayBase64(base64.StdEncoding.EncodeToString(wavBytes(t, 1600)))

	select {
	case <-p.Done():
		assert.NoError(t, p.Err())
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not finish")
	}
}

func TestPlay_Rejections(t *testing.T) {
	pl := NewPlayer(&drainSink{})

	assert.ErrorIs(t, pl.PlayBase64("").Wait(context.Background()), ErrEmptyAudio)
	assert.Error(t, pl.PlayBase64("%%not-base64%%").Wait(context.Background()))
	assert.Error(t, pl.Play([]byte("definitely not audio")).Wait(context.Background()))
	assert.Error(t, pl.Play(append([]byte("RIFF\x00\x00\x00\x00WAVE"), bytes.Repeat([]byte{0}, 8)...)).Wait(context.Background()))
}

func TestPlay_NewSoundStopsPrevious(t *testing.T) {
	gate := make(chan struct{})
	sink := &drainSink{gate: gate}
	pl := NewPlayer(sink)

	first := pl.Play(wavBytes(t, 16000))
	second := pl.Play(wavBytes(t, 160))
	assert.True(t, pl.Playing())
	close(gate)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.ErrorIs(t, first.Wait(ctx), ErrStopped)
	assert.NoError(t, second.Wait(ctx))
}

func TestWait_CancelStopsSound(t *testing.T) {
	gate := make(chan struct{})
	pl := NewPlayer(&drainSink{gate: gate})
	p := pl.Play(wavBytes(t, 16000))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)
	close(gate)

	select {
	case <-p.Done():
		assert.ErrorIs(t, p.Err(), ErrStopped)
	case <-time.After(2 * time.Second):
		t.Fatal("stopped playback did not resolve")
	}
}
