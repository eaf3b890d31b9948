package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/PratikDhanave/presence-service/internal/presence"
)

// MemoryStore keeps events and attendances in process memory. A single mutex
// makes every check-in unit atomic.
type MemoryStore struct {
	mu          sync.Mutex
	events      map[uuid.UUID]presence.Event
	attendances map[uuid.UUID]presence.Attendance
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:      make(map[uuid.UUID]presence.Event),
		attendances: make(map[uuid.UUID]presence.Attendance),
	}
}

// CreateEvent inserts ev, failing with presence.ErrAlreadyExists if its key is taken.
func (m *MemoryStore) CreateEvent(_ context.Context, ev presence.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[ev.ID]; ok {
		return presence.ErrAlreadyExists
	}
	m.events[ev.ID] = ev
	return nil
}

// GetEvent returns the event with the given ID.
func (m *MemoryStore) GetEvent(_ context.Context, id uuid.UUID) (presence.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[id]
	if !ok {
		return presence.Event{}, presence.ErrNotFound
	}
	return ev, nil
}

// ListEvents returns all events, or organizer's only, by organizer and name.
func (m *MemoryStore) ListEvents(_ context.Context, organizer string) ([]presence.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]presence.Event, 0, len(m.events))
	for _, ev := range m.events {
		if organizer == "" || ev.Organizer == organizer {
			events = append(events, ev)
		}
	}
	slices.SortFunc(events, presence.CompareEvents)
	return events, nil
}

// GetAttendance returns attendee's record for an event.
func (m *MemoryStore) GetAttendance(_ context.Context, eventID uuid.UUID, attendee string) (presence.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	att, ok := m.attendances[presence.AttendanceID(eventID, attendee)]
	if !ok {
		return presence.Attendance{}, presence.ErrNotFound
	}
	return att, nil
}

// ListAttendances returns an event's attendance records by attendee.
func (m *MemoryStore) ListAttendances(_ context.Context, eventID uuid.UUID) ([]presence.Attendance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[eventID]; !ok {
		return nil, presence.ErrNotFound
	}
	atts := make([]presence.Attendance, 0)
	for _, att := range m.attendances {
		if att.EventID == eventID {
			atts = append(atts, att)
		}
	}
	slices.SortFunc(atts, func(a, b presence.Attendance) int {
		return cmp.Compare(a.Attendee, b.Attendee)
	})
	return atts, nil
}

// CheckIn runs the check-in unit under the store mutex.
func (m *MemoryStore) CheckIn(
	_ context.Context,
	eventID uuid.UUID,
	attendee string,
	now int64,
	decide presence.DecideFunc,
) (presence.Attendance, presence.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.events[eventID]
	if !ok {
		return presence.Attendance{}, presence.Event{}, presence.ErrNotFound
	}
	key := presence.AttendanceID(eventID, attendee)
	existing, found := m.attendances[key]

	if err := decide(ev, found && existing.IsCheckedIn); err != nil {
		return presence.Attendance{}, presence.Event{}, err
	}
	// Create-if-absent: an existing key is a duplicate whatever its flag.
	if found {
		return presence.Attendance{}, presence.Event{}, presence.ErrAlreadyCheckedIn
	}
	if ev.Full() {
		return presence.Attendance{}, presence.Event{}, fmt.Errorf("event %s: %w", eventID, presence.ErrAttendeeLimit)
	}

	att := presence.NewAttendance(eventID, attendee, now)
	ev.AttendeeCount++
	m.attendances[key] = att
	m.events[eventID] = ev
	return att, ev, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
