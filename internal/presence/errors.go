package presence

import "errors"

// Rejections raised while validating a check-in.
var (
	ErrEventNotActive   = errors.New("event is not currently active")
	ErrAlreadyCheckedIn = errors.New("already checked in to this event")
	ErrOutOfRange       = errors.New("not within the event radius")
)

// Store and input errors.
var (
	ErrAlreadyExists   = errors.New("record already exists")
	ErrNotFound        = errors.New("record not found")
	ErrInvalidName     = errors.New("event name must be at most 64 characters")
	ErrInvalidIdentity = errors.New("caller identity required")
	ErrInvalidWindow   = errors.New("starts_at must not be after ends_at")
	ErrInvalidRadius   = errors.New("radius_meters must be positive")
	ErrAttendeeLimit   = errors.New("event attendee count is at its maximum")
)

// Reason returns a stable snake_case code for err, used in API responses and
// metric labels. Unknown errors map to "internal".
func Reason(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrEventNotActive):
		return "event_not_active"
	case errors.Is(err, ErrAlreadyCheckedIn):
		return "already_checked_in"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, ErrInvalidIdentity):
		return "unauthorized"
	case errors.Is(err, ErrInvalidWindow):
		return "invalid_window"
	case errors.Is(err, ErrInvalidRadius):
		return "invalid_radius"
	case errors.Is(err, ErrAttendeeLimit):
		return "attendee_limit_reached"
	default:
		return "internal"
	}
}
