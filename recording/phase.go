package recording

import (
	"errors"
	"fmt"
)

// Phase is the state of the record workflow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRecording
	PhaseProcessing
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRecording:
		return "recording"
	case PhaseProcessing:
		return "processing"
	case PhaseCompleted:
		return "completed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Event drives Transition.
type Event int

const (
	EventStarted Event = iota
	// EventStopped covers both a user stop and the automatic stop at the ceiling.
	EventStopped
	EventProcessed
	EventFailed
	EventReset
)

func (e Event) String() string {
	switch e {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventProcessed:
		return "processed"
	case EventFailed:
		return "failed"
	case EventReset:
		return "reset"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

var ErrInvalidTransition = errors.New("invalid workflow transition")

// Transition returns the phase that follows p on e.
func Transition(p Phase, e Event) (Phase, error) {
	switch {
	case p == PhaseIdle && e == EventStarted:
		return PhaseRecording, nil
	case p == PhaseRecording && e == EventStopped:
		return PhaseProcessing, nil
	case p == PhaseRecording && e == EventFailed:
		return PhaseIdle, nil
	case p == PhaseProcessing && e == EventProcessed:
		return PhaseCompleted, nil
	case p == PhaseProcessing && e == EventFailed:
		return PhaseIdle, nil
	case e == EventReset && (p == PhaseIdle || p == PhaseCompleted):
		return PhaseIdle, nil
	}
	return p, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, p)
}
