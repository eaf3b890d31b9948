package presence

import (
	"cmp"
	"context"
	"math"

	"github.com/google/uuid"
)

// MaxNameLength is the longest event name accepted, in characters.
const MaxNameLength = 64

// CoordinateScale converts degrees to the fixed-point representation used for
// every stored and submitted coordinate (12.345678° -> 12345678).
const CoordinateScale = 1_000_000

// Event is an organizer-defined time-and-place window for presence claims.
// Lat and Lng are fixed-point degrees; StartsAt and EndsAt are Unix seconds.
type Event struct {
	ID            uuid.UUID
	Organizer     string
	Name          string
	Lat           int64
	Lng           int64
	RadiusMeters  uint32
	StartsAt      int64
	EndsAt        int64
	AttendeeCount uint32
}

// Full reports whether one more check-in would overflow AttendeeCount.
func (ev Event) Full() bool {
	return ev.AttendeeCount == math.MaxUint32
}

// CompareEvents orders events by organizer, then name.
func CompareEvents(a, b Event) int {
	return cmp.Or(cmp.Compare(a.Organizer, b.Organizer), cmp.Compare(a.Name, b.Name))
}

// Attendance is the per-attendee record of a successful check-in.
// CheckedInAt is meaningless while IsCheckedIn is false.
type Attendance struct {
	ID          uuid.UUID
	Attendee    string
	EventID     uuid.UUID
	IsCheckedIn bool
	CheckedInAt int64
}

// NewAttendance builds the finalized record written by a successful check-in.
func NewAttendance(eventID uuid.UUID, attendee string, now int64) Attendance {
	return Attendance{
		ID:          AttendanceID(eventID, attendee),
		Attendee:    attendee,
		EventID:     eventID,
		IsCheckedIn: true,
		CheckedInAt: now,
	}
}

// DecideFunc is evaluated by a Store inside its atomic check-in unit. A non-nil
// error aborts the unit before anything is written.
type DecideFunc func(ev Event, alreadyCheckedIn bool) error

// Store is a durable keyed store with atomic create-if-absent semantics.
//
// CreateEvent fails with ErrAlreadyExists if ev.ID is taken. CheckIn loads the
// event, looks up the (event, attendee) attendance, runs decide and, only if it
// returns nil, writes the attendance and increments the event's counter as one
// unit. Two racing check-ins for the same pair must yield exactly one success;
// the loser sees ErrAlreadyCheckedIn. Check-ins of distinct attendees must not
// fail because of each other. A Full event rejects with ErrAttendeeLimit.
//
// ListEvents returns all events, or only those of organizer when it is not
// empty, sorted by CompareEvents. ListAttendances returns an event's records
// sorted by attendee and fails with ErrNotFound for an unknown event.
type Store interface {
	CreateEvent(ctx context.Context, ev Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (Event, error)
	ListEvents(ctx context.Context, organizer string) ([]Event, error)
	GetAttendance(ctx context.Context, eventID uuid.UUID, attendee string) (Attendance, error)
	ListAttendances(ctx context.Context, eventID uuid.UUID) ([]Attendance, error)
	CheckIn(ctx context.Context, eventID uuid.UUID, attendee string, now int64, decide DecideFunc) (Attendance, Event, error)
	Ping(ctx context.Context) error
}
