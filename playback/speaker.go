package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/rs/zerolog/log"
)

// Speaker plays through the system audio device. The device is opened on
// first use at that sound's sample rate; later sounds are resampled.
type Speaker struct {
	once       sync.Once
	initErr    error
	mixer      *beep.Mixer
	sampleRate beep.SampleRate
}

func (s *Speaker) init(sr beep.SampleRate) error {
	s.once.Do(func() {
		s.sampleRate = sr
		bufferSize := sr.N(time.Second / 10)
		if err := speaker.Init(sr, bufferSize); err != nil {
			log.Error().Err(err).Msg("Failed to initialize speaker")
			s.initErr = fmt.Errorf("failed to initialize speaker: %w", err)
			return
		}
		s.mixer = &beep.Mixer{}
		speaker.Play(s.mixer)
	})
	return s.initErr
}

func (s *Speaker) Play(st beep.Streamer, format beep.Format) error {
	if err := s.init(format.SampleRate); err != nil {
		return err
	}
	resampled := beep.Resample(4, format.SampleRate, s.sampleRate, st)
	speaker.Lock()
	s.mixer.Add(resampled)
	speaker.Unlock()
	return nil
}
