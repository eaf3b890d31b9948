package presence

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/PratikDhanave/presence-service/internal/platform/metrics"
)

// CreateEventParams are the organizer-supplied fields of a new event.
type CreateEventParams struct {
	Name         string
	Lat          int64
	Lng          int64
	RadiusMeters uint32
	StartsAt     int64
	EndsAt       int64
}

// CheckInResult is returned by a successful check-in.
type CheckInResult struct {
	Attendance Attendance
	Event      Event
}

// Service registers events and processes check-ins against a Store.
type Service struct {
	store     Store
	validator Validator
	now       func() time.Time
	strict    bool
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock replaces the wall clock used to timestamp check-ins.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithDistance selects the geofence distance approximation.
func WithDistance(fn DistanceFunc) Option {
	return func(s *Service) {
		s.validator = NewValidator(fn)
	}
}

// WithStrictEvents rejects inverted time windows and zero radii at creation.
func WithStrictEvents(strict bool) Option {
	return func(s *Service) {
		s.strict = strict
	}
}

// NewService constructs a Service. Defaults: legacy distance, time.Now,
// permissive event creation, discard logger.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		validator: NewValidator(LegacyDistance),
		now:       time.Now,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateEvent stores a new event owned by organizer. Fields are stored
// verbatim; the event is keyed by (organizer, name) and never overwritten.
func (s *Service) CreateEvent(ctx context.Context, organizer string, p CreateEventParams) (Event, error) {
	if organizer == "" {
		return Event{}, ErrInvalidIdentity
	}
	if utf8.RuneCountInString(p.Name) > MaxNameLength {
		return Event{}, ErrInvalidName
	}
	if s.strict {
		if p.StartsAt > p.EndsAt {
			return Event{}, ErrInvalidWindow
		}
		if p.RadiusMeters == 0 {
			return Event{}, ErrInvalidRadius
		}
	}

	ev := Event{
		ID:           EventID(organizer, p.Name),
		Organizer:    organizer,
		Name:         p.Name,
		Lat:          p.Lat,
		Lng:          p.Lng,
		RadiusMeters: p.RadiusMeters,
		StartsAt:     p.StartsAt,
		EndsAt:       p.EndsAt,
	}
	if err := s.store.CreateEvent(ctx, ev); err != nil {
		return Event{}, err
	}

	s.logger.InfoContext(ctx, "event created",
		"event_id", ev.ID, "organizer", organizer, "name", ev.Name)
	s.metrics.IncrementEventsCreated()
	return ev, nil
}

// GetEvent returns the event with the given ID.
func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (Event, error) {
	return s.store.GetEvent(ctx, id)
}

// ListEvents returns every event, or only organizer's when it is not empty.
func (s *Service) ListEvents(ctx context.Context, organizer string) ([]Event, error) {
	return s.store.ListEvents(ctx, organizer)
}

// ListAttendances returns the attendance records of an event.
func (s *Service) ListAttendances(ctx context.Context, eventID uuid.UUID) ([]Attendance, error) {
	return s.store.ListAttendances(ctx, eventID)
}

// GetAttendance returns attendee's record for an event.
func (s *Service) GetAttendance(ctx context.Context, eventID uuid.UUID, attendee string) (Attendance, error) {
	return s.store.GetAttendance(ctx, eventID, attendee)
}

// CheckIn validates attendee's presence claim and, on acceptance, records the
// attendance and bumps the event counter in one atomic unit. Rejections are
// returned as ErrEventNotActive, ErrAlreadyCheckedIn or ErrOutOfRange and
// leave no trace in the store.
func (s *Service) CheckIn(ctx context.Context, eventID uuid.UUID, attendee string, userLat, userLng int64) (CheckInResult, error) {
	if attendee == "" {
		return CheckInResult{}, ErrInvalidIdentity
	}
	now := s.now().Unix()

	decide := func(ev Event, already bool) error {
		return s.validator.Validate(ev, now, userLat, userLng, already)
	}
	att, ev, err := s.store.CheckIn(ctx, eventID, attendee, now, decide)

	s.metrics.ObserveCheckIn(Reason(err))
	if err != nil {
		s.logger.WarnContext(ctx, "check-in rejected",
			"event_id", eventID, "attendee", attendee, "reason", Reason(err), "error", err)
		return CheckInResult{}, err
	}

	s.logger.InfoContext(ctx, "check-in accepted",
		"event_id", eventID, "attendee", attendee, "attendee_count", ev.AttendeeCount)
	return CheckInResult{Attendance: att, Event: ev}, nil
}
