package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PratikDhanave/presence-service/internal/presence"
)

// schemaSQL is embedded so the service can self-bootstrap its database schema.
//
//go:embed schema.sql
var schemaSQL string

const eventColumns = `id, organizer, name, lat, lng, radius_meters, starts_at, ends_at, attendee_count`

// PostgresStore is the durable persistence layer for events and attendances.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool and fails fast if DB is unreachable.
func NewPostgresStore(ctx context.Context, dbURL string) (*PostgresStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schemaSQL)
	return err
}

// Ping is used by readiness endpoint to validate DB connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

// CreateEvent inserts ev and returns presence.ErrAlreadyExists when its key
// (or the organizer/name pair) is already taken.
func (p *PostgresStore) CreateEvent(ctx context.Context, ev presence.Event) error {
	// RETURNING 1 only when inserted; a conflict returns no rows.
	var one int
	err := p.pool.QueryRow(ctx, `
		INSERT INTO events(`+eventColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT DO NOTHING
		RETURNING 1
	`, ev.ID, ev.Organizer, ev.Name, ev.Lat, ev.Lng,
		int64(ev.RadiusMeters), ev.StartsAt, ev.EndsAt, int64(ev.AttendeeCount)).Scan(&one)

	if errors.Is(err, pgx.ErrNoRows) {
		return presence.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvent returns the event with the given ID.
func (p *PostgresStore) GetEvent(ctx context.Context, id uuid.UUID) (presence.Event, error) {
	ev, err := scanEvent(p.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id=$1`, id))
	if err != nil {
		return presence.Event{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return ev, nil
}

// ListEvents returns all events, or organizer's only, by organizer and name.
func (p *PostgresStore) ListEvents(ctx context.Context, organizer string) ([]presence.Event, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+eventColumns+` FROM events
		WHERE $1 = '' OR organizer = $1
		ORDER BY organizer COLLATE "C", name COLLATE "C"
	`, organizer)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]presence.Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// GetAttendance returns attendee's record for an event.
func (p *PostgresStore) GetAttendance(ctx context.Context, eventID uuid.UUID, attendee string) (presence.Attendance, error) {
	var att presence.Attendance
	err := p.pool.QueryRow(ctx, `
		SELECT id, attendee, event_id, is_checked_in, checked_in_at
		FROM attendances
		WHERE event_id=$1 AND attendee=$2
	`, eventID, attendee).Scan(&att.ID, &att.Attendee, &att.EventID, &att.IsCheckedIn, &att.CheckedInAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return presence.Attendance{}, presence.ErrNotFound
	}
	if err != nil {
		return presence.Attendance{}, fmt.Errorf("get attendance: %w", err)
	}
	return att, nil
}

// ListAttendances returns an event's attendance records by attendee.
func (p *PostgresStore) ListAttendances(ctx context.Context, eventID uuid.UUID) ([]presence.Attendance, error) {
	var exists bool
	if err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id=$1)`, eventID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("lookup event %s: %w", eventID, err)
	}
	if !exists {
		return nil, presence.ErrNotFound
	}

	rows, err := p.pool.Query(ctx, `
		SELECT id, attendee, event_id, is_checked_in, checked_in_at
		FROM attendances
		WHERE event_id=$1
		ORDER BY attendee COLLATE "C"
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendances: %w", err)
	}
	defer rows.Close()

	atts := make([]presence.Attendance, 0)
	for rows.Next() {
		var att presence.Attendance
		if err := rows.Scan(&att.ID, &att.Attendee, &att.EventID, &att.IsCheckedIn, &att.CheckedInAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		atts = append(atts, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attendances: %w", err)
	}
	return atts, nil
}

// CheckIn runs the whole check-in unit in one transaction. The event row is
// locked so counter increments serialize; the unique (event_id, attendee)
// constraint settles races between two attempts of the same attendee.
func (p *PostgresStore) CheckIn(
	ctx context.Context,
	eventID uuid.UUID,
	attendee string,
	now int64,
	decide presence.DecideFunc,
) (presence.Attendance, presence.Event, error) {

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return presence.Attendance{}, presence.Event{}, fmt.Errorf("begin check-in: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ev, err := scanEvent(tx.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id=$1 FOR UPDATE`, eventID))
	if err != nil {
		return presence.Attendance{}, presence.Event{}, fmt.Errorf("lock event %s: %w", eventID, err)
	}

	var already bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendances
			WHERE event_id=$1 AND attendee=$2 AND is_checked_in
		)
	`, eventID, attendee).Scan(&already)
	if err != nil {
		return presence.Attendance{}, presence.Event{}, fmt.Errorf("lookup attendance: %w", err)
	}

	if err := decide(ev, already); err != nil {
		return presence.Attendance{}, presence.Event{}, err
	}

	// The row lock makes this check exact.
	if ev.Full() {
		return presence.Attendance{}, presence.Event{}, fmt.Errorf("event %s: %w", eventID, presence.ErrAttendeeLimit)
	}

	att := presence.NewAttendance(eventID, attendee, now)
	var one int
	err = tx.QueryRow(ctx, `
		INSERT INTO attendances(id, event_id, attendee, is_checked_in, checked_in_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT DO NOTHING
		RETURNING 1
	`, att.ID, att.EventID, att.Attendee, att.IsCheckedIn, att.CheckedInAt).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return presence.Attendance{}, presence.Event{}, presence.ErrAlreadyCheckedIn
	}
	if err != nil {
		return presence.Attendance{}, presence.Event{}, fmt.Errorf("insert attendance: %w", err)
	}

	var count int64
	err = tx.QueryRow(ctx, `
		UPDATE events SET attendee_count = attendee_count + 1
		WHERE id=$1
		RETURNING attendee_count
	`, eventID).Scan(&count)
	if err != nil {
		return presence.Attendance{}, presence.Event{}, fmt.Errorf("increment attendee count: %w", err)
	}
	ev.AttendeeCount = uint32(count)

	if err := tx.Commit(ctx); err != nil {
		return presence.Attendance{}, presence.Event{}, fmt.Errorf("commit check-in: %w", err)
	}
	return att, ev, nil
}

// scanEvent maps a missing row to presence.ErrNotFound.
func scanEvent(row pgx.Row) (presence.Event, error) {
	var (
		ev            presence.Event
		radius, count int64
	)
	err := row.Scan(&ev.ID, &ev.Organizer, &ev.Name, &ev.Lat, &ev.Lng,
		&radius, &ev.StartsAt, &ev.EndsAt, &count)
	if errors.Is(err, pgx.ErrNoRows) {
		return presence.Event{}, presence.ErrNotFound
	}
	if err != nil {
		return presence.Event{}, err
	}
	ev.RadiusMeters = uint32(radius)
	ev.AttendeeCount = uint32(count)
	return ev, nil
}
