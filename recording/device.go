package recording

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Permission is the microphone permission as last observed.
type Permission int

const (
	PermissionUnknown Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

func parsePermission(s string) Permission {
	switch s {
	case "granted":
		return PermissionGranted
	case "denied":
		return PermissionDenied
	default:
		return PermissionUnknown
	}
}

// AudioMode is the process-wide audio configuration a recording needs.
type AudioMode struct {
	AllowsRecording            bool
	PlaysInSilentMode          bool
	ShouldPlayInBackground     bool
	ShouldRouteThroughEarpiece bool
}

// RecordingMode is applied once permission is granted.
var RecordingMode = AudioMode{
	AllowsRecording:            true,
	PlaysInSilentMode:          true,
	ShouldPlayInBackground:     true,
	ShouldRouteThroughEarpiece: false,
}

// Device is the platform side of a recording session: microphone permission
// and the audio mode.
type Device interface {
	PermissionStatus(ctx context.Context) (Permission, error)
	RequestPermission(ctx context.Context) (Permission, error)
	SetAudioMode(ctx context.Context, mode AudioMode) error
	RestoreAudioMode(ctx context.Context) error
}

// PermissionKey is the settings key the host device persists its decision under.
const PermissionKey = "microphone_permission"

// SettingsStore is the subset of the key-value store the host device needs.
type SettingsStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// PromptFunc asks the user whether the microphone may be used.
type PromptFunc func(ctx context.Context) (bool, error)

// HostDevice is the desktop Device. Desktop systems have no permission API,
// so the user is asked once and the answer is kept in the settings store.
type HostDevice struct {
	Store  SettingsStore
	Prompt PromptFunc

	mu   sync.Mutex
	mode *AudioMode
}

var ErrNoPrompt = errors.New("no permission prompt configured")

func (d *HostDevice) PermissionStatus(ctx context.Context) (Permission, error) {
	if d.Store == nil {
		return PermissionUnknown, nil
	}
	v, ok, err := d.Store.Get(ctx, PermissionKey)
	if err != nil {
		return PermissionUnknown, fmt.Errorf("failed to read microphone permission: %w", err)
	}
	if !ok {
		return PermissionUnknown, nil
	}
	return parsePermission(v), nil
}

func (d *HostDevice) RequestPermission(ctx context.Context) (Permission, error) {
	if p, err := d.PermissionStatus(ctx); err == nil && p == PermissionGranted {
		return p, nil
	}
	if d.Prompt == nil {
		return PermissionUnknown, ErrNoPrompt
	}
	granted, err := d.Prompt(ctx)
	if err != nil {
		return PermissionUnknown, err
	}
	p := PermissionDenied
	if granted {
		p = PermissionGranted
	}
	if d.Store != nil {
		if err := d.Store.Set(ctx, PermissionKey, p.String()); err != nil {
			log.Warn().Err(err).Msg("Failed to persist microphone permission")
		}
	}
	return p, nil
}

func (d *HostDevice) SetAudioMode(_ context.Context, mode AudioMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = &mode
	log.Debug().Interface("mode", mode).Msg("Audio mode configured")
	return nil
}

func (d *HostDevice) RestoreAudioMode(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = nil
	log.Debug().Msg("Audio mode restored")
	return nil
}

// AudioMode returns the active mode, or nil when none is applied.
func (d *HostDevice) AudioMode() *AudioMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}
