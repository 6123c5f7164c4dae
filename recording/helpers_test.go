package recording

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type fakeDevice struct {
	mu         sync.Mutex
	status     Permission
	answer     Permission
	requestErr error
	modeErr    error
	requests   int
	modeCalls  int
	restores   int
}

func (d *fakeDevice) PermissionStatus(context.Context) (Permission, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status, nil
}

func (d *fakeDevice) RequestPermission(context.Context) (Permission, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests++
	if d.requestErr != nil {
		return PermissionUnknown, d.requestErr
	}
	d.status = d.answer
	return d.answer, nil
}

func (d *fakeDevice) SetAudioMode(context.Context, AudioMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.modeCalls++
	return d.modeErr
}

func (d *fakeDevice) RestoreAudioMode(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.restores++
	return nil
}

func (d *fakeDevice) counts() (requests, modeCalls, restores int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requests, d.modeCalls, d.restores
}

type fakeRecorder struct {
	mu         sync.Mutex
	prepareErr error
	stopErr    error
	prepares   int
	stops      int
	recording  bool
}

func (r *fakeRecorder) Prepare(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prepares++
	return r.prepareErr
}

func (r *fakeRecorder) Record() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = true
	return nil
}

func (r *fakeRecorder) Stop() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return "", errors.New("not recording")
	}
	r.recording = false
	r.stops++
	if r.stopErr != nil {
		return "", r.stopErr
	}
	return fmt.Sprintf("file:///tmp/recording-%d.wav", r.stops), nil
}

func (r *fakeRecorder) stopCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stops
}

type mapStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *mapStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]string{}
	}
	m.data[key] = value
	return nil
}
