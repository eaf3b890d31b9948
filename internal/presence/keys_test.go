package presence

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventID(t *testing.T) {
	assert.Equal(t, EventID("alice", "meetup"), EventID("alice", "meetup"))
	assert.NotEqual(t, EventID("alice", "meetup"), EventID("bob", "meetup"))
	assert.NotEqual(t, EventID("alice", "meetup"), EventID("alice", "meetup2"))
	// The separator keeps shifted boundaries apart.
	assert.NotEqual(t, EventID("ab", "c"), EventID("a", "bc"))
	assert.Equal(t, 5, int(EventID("alice", "meetup").Version()))
}

func TestAttendanceID(t *testing.T) {
	ev := EventID("alice", "meetup")
	other := EventID("alice", "other")

	assert.Equal(t, AttendanceID(ev, "carol"), AttendanceID(ev, "carol"))
	assert.NotEqual(t, AttendanceID(ev, "carol"), AttendanceID(ev, "dave"))
	assert.NotEqual(t, AttendanceID(ev, "carol"), AttendanceID(other, "carol"))
}

func TestNewAttendance(t *testing.T) {
	ev := EventID("alice", "meetup")
	att := NewAttendance(ev, "carol", 1500)

	assert.Equal(t, AttendanceID(ev, "carol"), att.ID)
	assert.Equal(t, ev, att.EventID)
	assert.Equal(t, "carol", att.Attendee)
	assert.True(t, att.IsCheckedIn)
	assert.Equal(t, int64(1500), att.CheckedInAt)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "accepted", Reason(nil))
	assert.Equal(t, "event_not_active", Reason(ErrEventNotActive))
	assert.Equal(t, "already_checked_in", Reason(ErrAlreadyCheckedIn))
	assert.Equal(t, "out_of_range", Reason(ErrOutOfRange))
	assert.Equal(t, "not_found", Reason(ErrNotFound))
	assert.Equal(t, "attendee_limit_reached", Reason(fmt.Errorf("event x: %w", ErrAttendeeLimit)))
	assert.Equal(t, "internal", Reason(assert.AnError))
}

func TestEventFull(t *testing.T) {
	assert.False(t, Event{AttendeeCount: math.MaxUint32 - 1}.Full())
	assert.True(t, Event{AttendeeCount: math.MaxUint32}.Full())
}

func TestCompareEvents(t *testing.T) {
	a := Event{Organizer: "alice", Name: "b"}
	b := Event{Organizer: "alice", Name: "c"}
	c := Event{Organizer: "bob", Name: "a"}
	assert.Negative(t, CompareEvents(a, b))
	assert.Negative(t, CompareEvents(b, c))
	assert.Positive(t, CompareEvents(c, a))
	assert.Zero(t, CompareEvents(a, a))
}
