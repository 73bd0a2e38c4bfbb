package sim

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// EventScheduler can be used to schedule future events.
type EventScheduler interface {
	Schedule(e Event)
}

// An Engine runs events in time order. Events scheduled for the same time run
// in the order they were scheduled.
type Engine interface {
	Hookable
	TimeTeller
	EventScheduler

	// Run processes events until there is no event left or until a handler
	// reports an error. The first handler error is returned.
	Run() error

	// Pause blocks the engine before its next event until Continue is called.
	Pause()

	// Continue resumes a paused engine.
	Continue()
}
