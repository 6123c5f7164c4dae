package recording

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	ErrPermissionDenied = errors.New("microphone permission is required")
	ErrStartFailed      = errors.New("failed to start recording")
	ErrNoRecording      = errors.New("recording file could not be created")
	ErrBusy             = errors.New("recording is being processed")
)

// ProcessFunc handles a finished recording, typically by uploading it.
type ProcessFunc func(ctx context.Context, uri string) error

// Workflow drives a Session through idle, recording, processing and completed.
type Workflow struct {
	session *Session
	process ProcessFunc

	mu      sync.Mutex
	phase   Phase
	ctx     context.Context
	lastErr error
	settled chan struct{}
}

func NewWorkflow(session *Session, process ProcessFunc) *Workflow {
	w := &Workflow{session: session, process: process, settled: closedChan()}
	session.OnAutoStop(w.autoStopped)
	return w
}

func closedChan() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}

func (w *Workflow) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// Err returns the error of the last processing attempt.
func (w *Workflow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

func (w *Workflow) apply(e Event) error {
	next, err := Transition(w.phase, e)
	if err != nil {
		return err
	}
	log.Debug().Stringer("from", w.phase).Stringer("to", next).Stringer("event", e).Msg("Workflow transition")
	w.phase = next
	if next == PhaseIdle || next == PhaseCompleted {
		select {
		case <-w.settled:
		default:
			close(w.settled)
		}
	}
	return nil
}

// Toggle is the record button: it starts a take when idle, stops and
// processes it when recording, and resets when completed.
func (w *Workflow) Toggle(ctx context.Context) (Phase, error) {
	w.mu.Lock()
	switch w.phase {
	case PhaseCompleted:
		w.session.ResetRecording()
		err := w.apply(EventReset)
		w.mu.Unlock()
		return PhaseIdle, err

	case PhaseIdle:
		defer w.mu.Unlock()
		if !w.session.StartRecording(ctx) {
			if w.session.State().Permission == PermissionDenied {
				return w.phase, ErrPermissionDenied
			}
			return w.phase, ErrStartFailed
		}
		w.ctx = ctx
		w.lastErr = nil
		w.settled = make(chan struct{})
		return PhaseRecording, w.apply(EventStarted)

	case PhaseRecording:
		return w.stopLocked(ctx)

	default:
		w.mu.Unlock()
		return PhaseProcessing, ErrBusy
	}
}

// Stop ends the take if it is still recording and processes it. Otherwise
// it waits for the take already being processed to settle.
func (w *Workflow) Stop(ctx context.Context) (Phase, error) {
	w.mu.Lock()
	if w.phase != PhaseRecording {
		w.mu.Unlock()
		return w.Wait(ctx)
	}
	return w.stopLocked(ctx)
}

// stopLocked is entered with w.mu held and releases it.
func (w *Workflow) stopLocked(ctx context.Context) (Phase, error) {
	if err := w.apply(EventStopped); err != nil {
		w.mu.Unlock()
		return w.phase, err
	}
	w.mu.Unlock()

	uri, ok := w.session.StopRecording()
	if !ok {
		// The ceiling may have stopped this take just before.
		uri = w.session.State().URI
		ok = uri != ""
	}
	return w.finish(ctx, uri, ok)
}

func (w *Workflow) autoStopped(uri string, ok bool) {
	w.mu.Lock()
	if w.phase != PhaseRecording {
		w.mu.Unlock()
		return
	}
	ctx := w.ctx
	if err := w.apply(EventStopped); err != nil {
		w.mu.Unlock()
		log.Error().Err(err).Msg("Automatic stop rejected")
		return
	}
	w.mu.Unlock()

	if _, err := w.finish(ctx, uri, ok); err != nil {
		log.Error().Err(err).Msg("Processing the recording failed")
	}
}

func (w *Workflow) finish(ctx context.Context, uri string, ok bool) (Phase, error) {
	var err error
	if !ok {
		err = ErrNoRecording
	} else if w.process != nil {
		if perr := w.process(ctx, uri); perr != nil {
			err = fmt.Errorf("failed to process recording: %w", perr)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastErr = err
	if err != nil {
		if terr := w.apply(EventFailed); terr != nil {
			return w.phase, terr
		}
		return w.phase, err
	}
	return w.phase, w.apply(EventProcessed)
}

// Reset discards a completed take.
func (w *Workflow) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.apply(EventReset); err != nil {
		return err
	}
	w.session.ResetRecording()
	return nil
}

// Wait blocks until the current take reaches idle or completed and returns
// the phase together with the processing error, if any.
func (w *Workflow) Wait(ctx context.Context) (Phase, error) {
	w.mu.Lock()
	settled := w.settled
	w.mu.Unlock()

	select {
	case <-settled:
	case <-ctx.Done():
		return w.Phase(), ctx.Err()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase, w.lastErr
}
