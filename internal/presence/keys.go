package presence

import "github.com/google/uuid"

var (
	eventNamespace      = uuid.NewSHA1(uuid.NameSpaceURL, []byte("presence:event"))
	attendanceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("presence:attendance"))
)

// EventID derives the key of the event owned by organizer with the given name.
// The same pair always yields the same ID, so a second create collides.
func EventID(organizer, name string) uuid.UUID {
	return uuid.NewSHA1(eventNamespace, []byte(organizer+"\x00"+name))
}

// AttendanceID derives the key of attendee's record for an event.
func AttendanceID(eventID uuid.UUID, attendee string) uuid.UUID {
	return uuid.NewSHA1(attendanceNamespace, append(eventID[:], attendee...))
}
