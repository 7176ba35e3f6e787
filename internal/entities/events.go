package entities

// Event is implemented by everything published on the event bus.
// Internal events skip the data lake and go straight to their per-event topic.
type Event interface {
	IsInternal() bool
}
