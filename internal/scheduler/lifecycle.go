package scheduler

import "errors"

// Status is the lifecycle state of an appointment. Scheduled is the initial
// state; Attended and Cancelled are terminal.
type Status string

const (
	// StatusScheduled marks a booking that still occupies its slot.
	StatusScheduled Status = "scheduled"
	// StatusAttended marks a booking the patient showed up for.
	StatusAttended Status = "attended"
	// StatusCancelled marks a booking that released its slot.
	StatusCancelled Status = "cancelled"
)

// Event names a requested lifecycle transition.
type Event string

const (
	// EventCancel releases a scheduled booking.
	EventCancel Event = "cancel"
	// EventMarkAttended records that a scheduled booking was honored.
	EventMarkAttended Event = "mark_attended"
)

var (
	// ErrInvalidTransition is returned when the requested transition is not
	// legal from the current state.
	ErrInvalidTransition = errors.New("scheduler: invalid transition")
	// ErrAlreadyInState is returned when the transition would be a no-op
	// because the booking already reached the target state.
	ErrAlreadyInState = errors.New("scheduler: already in state")
)

// Valid reports whether the status is one of the three lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusAttended, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether the status still occupies its slot for conflict
// purposes. Only cancelled bookings release their slot.
func (s Status) Active() bool {
	return s != StatusCancelled
}

// Transition applies an event to the current state and returns the next one.
// Transitions are monotonic: no event leads back to Scheduled.
func Transition(current Status, event Event) (Status, error) {
	switch event {
	case EventCancel:
		switch current {
		case StatusScheduled:
			return StatusCancelled, nil
		case StatusCancelled:
			return current, ErrAlreadyInState
		case StatusAttended:
			return current, ErrInvalidTransition
		}
	case EventMarkAttended:
		switch current {
		case StatusScheduled:
			return StatusAttended, nil
		case StatusAttended:
			return current, ErrAlreadyInState
		case StatusCancelled:
			return current, ErrInvalidTransition
		}
	}
	return current, ErrInvalidTransition
}
