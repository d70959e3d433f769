package engine

// Event is a notification broadcast to subscribers.
type Event interface {
	isEvent()
}

// EventReload reports the outcome of a load-and-swap attempt, including
// rejected and no-op attempts.
type EventReload struct {
	Result ReloadResult
}

func (EventReload) isEvent() {}

// NewEventReload creates a new [EventReload].
func NewEventReload(result ReloadResult) EventReload {
	return EventReload{Result: result}
}

// EventWatchError reports a rule source watcher failure.
type EventWatchError struct {
	Err error
}

func (EventWatchError) isEvent() {}

// NewEventWatchError creates a new [EventWatchError].
func NewEventWatchError(err error) EventWatchError {
	return EventWatchError{Err: err}
}
