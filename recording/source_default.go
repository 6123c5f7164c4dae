//go:build !portaudio

package recording

// NewDefaultSource returns silence; build with -tags portaudio for the microphone.
func NewDefaultSource() Source { return &SilenceSource{} }
