package recording

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostDevice_PromptsOnceAndPersists(t *testing.T) {
	ctx := context.Background()
	store := &mapStore{}
	prompts := 0
	dev := &HostDevice{Store: store, Prompt: func(context.Context) (bool, error) {
		prompts++
		return true, nil
	}}

	p, err := dev.PermissionStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, PermissionUnknown, p)

	p, err = dev.RequestPermission(ctx)
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, p)

	p, err = dev.RequestPermission(ctx)
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, p)
	assert.Equal(t, 1, prompts)

	v, ok, _ := store.Get(ctx, PermissionKey)
	assert.True(t, ok)
	assert.Equal(t, "granted", v)
}

func TestHostDevice_DeniedCanBeAskedAgain(t *testing.T) {
	ctx := context.Background()
	answers := []bool{false, true}
	dev := &HostDevice{Store: &mapStore{}, Prompt: func(context.Context) (bool, error) {
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}}

	p, err := dev.RequestPermission(ctx)
	require.NoError(t, err)
	assert.Equal(t, PermissionDenied, p)
	status, _ := dev.PermissionStatus(ctx)
	assert.Equal(t, PermissionDenied, status)

	p, err = dev.RequestPermission(ctx)
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, p)
}

func TestHostDevice_NoPrompt(t *testing.T) {
	_, err := (&HostDevice{}).RequestPermission(context.Background())
	assert.ErrorIs(t, err, ErrNoPrompt)

	promptErr := errors.New("stdin closed")
	_, err = (&HostDevice{Prompt: func(context.Context) (bool, error) { return false, promptErr }}).RequestPermission(context.Background())
	assert.ErrorIs(t, err, promptErr)
}

func TestHostDevice_AudioMode(t *testing.T) {
	dev := &HostDevice{}
	assert.Nil(t, dev.AudioMode())
	require.NoError(t, dev.SetAudioMode(context.Background(), RecordingMode))
	require.NotNil(t, dev.AudioMode())
	assert.True(t, dev.AudioMode().AllowsRecording)
	assert.False(t, dev.AudioMode().ShouldRouteThroughEarpiece)
	require.NoError(t, dev.RestoreAudioMode(context.Background()))
	assert.Nil(t, dev.AudioMode())
}
