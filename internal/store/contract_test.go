package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/PratikDhanave/presence-service/internal/presence"
)

// StoreContractSuite exercises the presence.Store contract. Each backend
// embeds it and sets newStore.
type StoreContractSuite struct {
	suite.Suite
	ctx      context.Context
	newStore func() presence.Store
	store    presence.Store
}

func (s *StoreContractSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
}

func makeEvent(organizer, name string) presence.Event {
	return presence.Event{
		ID:           presence.EventID(organizer, name),
		Organizer:    organizer,
		Name:         name,
		Lat:          12345678,
		Lng:          -98765432,
		RadiusMeters: 50,
		StartsAt:     1000,
		EndsAt:       2000,
	}
}

func accept(presence.Event, bool) error { return nil }

// rejectDuplicates mirrors the validator's duplicate step.
func rejectDuplicates(_ presence.Event, already bool) error {
	if already {
		return presence.ErrAlreadyCheckedIn
	}
	return nil
}

func (s *StoreContractSuite) TestEvents() {
	s.Run("creates and reads back verbatim", func() {
		ev := makeEvent("alice", "roundtrip")
		s.Require().NoError(s.store.CreateEvent(s.ctx, ev))

		got, err := s.store.GetEvent(s.ctx, ev.ID)
		s.Require().NoError(err)
		s.Equal(ev, got)
	})

	s.Run("rejects a second create with the same key", func() {
		ev := makeEvent("alice", "dup")
		s.Require().NoError(s.store.CreateEvent(s.ctx, ev))

		changed := ev
		changed.Lat = 1
		s.ErrorIs(s.store.CreateEvent(s.ctx, changed), presence.ErrAlreadyExists)

		got, err := s.store.GetEvent(s.ctx, ev.ID)
		s.Require().NoError(err)
		s.Equal(ev.Lat, got.Lat)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.GetEvent(s.ctx, uuid.New())
		s.ErrorIs(err, presence.ErrNotFound)
	})
}

func (s *StoreContractSuite) TestCheckIn() {
	s.Run("writes attendance and increments counter", func() {
		ev := makeEvent("alice", "checkin")
		s.Require().NoError(s.store.CreateEvent(s.ctx, ev))

		att, updated, err := s.store.CheckIn(s.ctx, ev.ID, "carol", 1500, rejectDuplicates)
		s.Require().NoError(err)
		s.Equal(presence.NewAttendance(ev.ID, "carol", 1500), att)
		s.Equal(uint32(1), updated.AttendeeCount)

		stored, err := s.store.GetAttendance(s.ctx, ev.ID, "carol")
		s.Require().NoError(err)
		s.Equal(att, stored)

		got, err := s.store.GetEvent(s.ctx, ev.ID)
		s.Require().NoError(err)
		s.Equal(uint32(1), got.AttendeeCount)
	})

	s.Run("passes existing attendance to decide", func() {
		ev := makeEvent("alice", "repeat")
		s.Require().NoError(s.store.CreateEvent(s.ctx, ev))

		_, _, err := s.store.CheckIn(s.ctx, ev.ID, "carol", 1500, rejectDuplicates)
		s.Require().NoError(err)

		var sawExisting bool
		_, _, err = s.store.CheckIn(s.ctx, ev.ID, "carol", 1600, func(_ presence.Event, already bool) error {
			sawExisting = already
			return rejectDuplicates(presence.Event{}, already)
		})
		s.ErrorIs(err, presence.ErrAlreadyCheckedIn)
		s.True(sawExisting)
	})

	s.Run("reports duplicates even if decide ignores them", func() {
		ev := makeEvent("alice", "lenient")
		s.Require().NoError(s.store.CreateEvent(s.ctx, ev))

		_, _, err := s.store.CheckIn(s.ctx, ev.ID, "carol", 1500, accept)
		s.Require().NoError(err)
		_, _, err = s.store.CheckIn(s.ctx, ev.ID, "carol", 1500, accept)
		s.ErrorIs(err, presence.ErrAlreadyCheckedIn)

		got, err := s.store.GetEvent(s.ctx, ev.ID)
		s.Require().NoError(err)
		s.Equal(uint32(1), got.AttendeeCount)
	})

	s.Run("decide error aborts without writes", func() {
		ev := makeEvent("alice", "rejected")
		s.Require().NoError(s.store.CreateEvent(s.ctx, ev))

		_, _, err := s.store.CheckIn(s.ctx, ev.ID, "carol", 1500, func(presence.Event, bool) error {
			return presence.ErrOutOfRange
		})
		s.ErrorIs(err, presence.ErrOutOfRange)

		_, err = s.store.GetAttendance(s.ctx, ev.ID, "carol")
		s.ErrorIs(err, presence.ErrNotFound)
		got, err := s.store.GetEvent(s.ctx, ev.ID)
		s.Require().NoError(err)
		s.Zero(got.AttendeeCount)
	})

	s.Run("decide sees the stored event", func() {
		ev := makeEvent("alice", "visible")
		s.Require().NoError(s.store.CreateEvent(s.ctx, ev))

		var seen presence.Event
		_, _, err := s.store.CheckIn(s.ctx, ev.ID, "carol", 1500, func(e presence.Event, _ bool) error {
			seen = e
			return nil
		})
		s.Require().NoError(err)
		s.Equal(ev, seen)
	})

	s.Run("unknown event", func() {
		_, _, err := s.store.CheckIn(s.ctx, uuid.New(), "carol", 1500, accept)
		s.ErrorIs(err, presence.ErrNotFound)
	})
}

func (s *StoreContractSuite) TestConcurrentCheckIn() {
	ev := makeEvent("alice", "race")
	s.Require().NoError(s.store.CreateEvent(s.ctx, ev))

	const goroutines = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		dupes     atomic.Int32
		others    atomic.Int32
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.store.CheckIn(s.ctx, ev.ID, "carol", 1500, rejectDuplicates)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, presence.ErrAlreadyCheckedIn):
				dupes.Add(1)
			default:
				others.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load(), "exactly one check-in should succeed")
	s.Equal(int32(goroutines-1), dupes.Load())
	s.Zero(others.Load())

	got, err := s.store.GetEvent(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.Equal(uint32(1), got.AttendeeCount)
}

func (s *StoreContractSuite) TestConcurrentDistinctAttendees() {
	ev := makeEvent("alice", "crowd")
	s.Require().NoError(s.store.CreateEvent(s.ctx, ev))

	const attendees = 100
	var (
		wg       sync.WaitGroup
		failures atomic.Int32
	)
	for i := 0; i < attendees; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			attendee := fmt.Sprintf("attendee-%03d", i)
			if _, _, err := s.store.CheckIn(s.ctx, ev.ID, attendee, 1500, rejectDuplicates); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Zero(failures.Load(), "distinct attendees must not fail each other")

	got, err := s.store.GetEvent(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.Equal(uint32(attendees), got.AttendeeCount)

	atts, err := s.store.ListAttendances(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.Len(atts, attendees)
}

func (s *StoreContractSuite) TestAttendeeLimit() {
	ev := makeEvent("alice", "full")
	ev.AttendeeCount = math.MaxUint32
	s.Require().NoError(s.store.CreateEvent(s.ctx, ev))

	_, _, err := s.store.CheckIn(s.ctx, ev.ID, "carol", 1500, rejectDuplicates)
	s.ErrorIs(err, presence.ErrAttendeeLimit)

	_, err = s.store.GetAttendance(s.ctx, ev.ID, "carol")
	s.ErrorIs(err, presence.ErrNotFound)
	got, err := s.store.GetEvent(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.Equal(uint32(math.MaxUint32), got.AttendeeCount)
}

func (s *StoreContractSuite) TestListEvents() {
	s.Run("empty store", func() {
		events, err := s.store.ListEvents(s.ctx, "")
		s.Require().NoError(err)
		s.Empty(events)
	})

	bob := makeEvent("bob", "alpha")
	aliceB := makeEvent("alice", "beta")
	aliceA := makeEvent("alice", "alpha")
	for _, ev := range []presence.Event{bob, aliceB, aliceA} {
		s.Require().NoError(s.store.CreateEvent(s.ctx, ev))
	}

	s.Run("all events by organizer then name", func() {
		events, err := s.store.ListEvents(s.ctx, "")
		s.Require().NoError(err)
		s.Equal([]presence.Event{aliceA, aliceB, bob}, events)
	})

	s.Run("filtered by organizer", func() {
		events, err := s.store.ListEvents(s.ctx, "alice")
		s.Require().NoError(err)
		s.Equal([]presence.Event{aliceA, aliceB}, events)

		events, err = s.store.ListEvents(s.ctx, "nobody")
		s.Require().NoError(err)
		s.Empty(events)
	})
}

func (s *StoreContractSuite) TestListAttendances() {
	ev := makeEvent("alice", "roster")
	other := makeEvent("alice", "elsewhere")
	s.Require().NoError(s.store.CreateEvent(s.ctx, ev))
	s.Require().NoError(s.store.CreateEvent(s.ctx, other))

	atts, err := s.store.ListAttendances(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.Empty(atts)

	for _, attendee := range []string{"dave", "carol"} {
		_, _, err := s.store.CheckIn(s.ctx, ev.ID, attendee, 1500, rejectDuplicates)
		s.Require().NoError(err)
	}
	_, _, err = s.store.CheckIn(s.ctx, other.ID, "erin", 1500, rejectDuplicates)
	s.Require().NoError(err)

	atts, err = s.store.ListAttendances(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.Equal([]presence.Attendance{
		presence.NewAttendance(ev.ID, "carol", 1500),
		presence.NewAttendance(ev.ID, "dave", 1500),
	}, atts)

	_, err = s.store.ListAttendances(s.ctx, uuid.New())
	s.ErrorIs(err, presence.ErrNotFound)
}

func (s *StoreContractSuite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}
