package worker

import "github.com/vexcore/avsync/internal/msgqueue"

// ParentEvent is the closed sum of messages the worker emits upward to
// its owner.
type ParentEvent interface {
	isParentEvent()
}

// StartedEvent reports that this worker produced its first non-dropped
// frame, or (in reply to a PlayerStartedMsg query) that it already had.
type StartedEvent struct {
	Player string
}

func (StartedEvent) isParentEvent() {}

// DisplayTimeEvent forwards a completed display-time query back to the
// parent after the worker has stamped it.
type DisplayTimeEvent struct {
	State *msgqueue.DisplayTimeState
}

func (DisplayTimeEvent) isParentEvent() {}

// playerName tags every event this worker emits, matching the original's
// AUDIO player id.
const playerName = "audio"
