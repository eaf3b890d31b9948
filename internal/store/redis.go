package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/PratikDhanave/presence-service/internal/presence"
)

// maxTxAttempts bounds optimistic retries after a WATCH conflict.
const maxTxAttempts = 16

// eventsIndexKey is a set of every event ID.
const eventsIndexKey = "presence:events"

// RedisStore keeps each event and attendance in its own hash. Check-ins
// WATCH only the attendance key: event fields other than attendee_count
// never change and HINCRBY is atomic inside MULTI, so distinct attendees
// do not conflict.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// ConnectRedis parses url, dials and pings Redis.
func ConnectRedis(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisStore(client), nil
}

const eventKeyPrefix = "presence:event:"

func eventKey(id uuid.UUID) string {
	return eventKeyPrefix + id.String()
}

func attendanceKey(id uuid.UUID) string {
	return "presence:attendance:" + id.String()
}

// attendeesKey is the set of attendee names checked in to an event.
func attendeesKey(eventID uuid.UUID) string {
	return eventKey(eventID) + ":attendees"
}

// Ping is used by readiness endpoint to validate Redis connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// CreateEvent inserts ev, failing with presence.ErrAlreadyExists if its key is taken.
func (r *RedisStore) CreateEvent(ctx context.Context, ev presence.Event) error {
	key := eventKey(ev.ID)
	return r.watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return presence.ErrAlreadyExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, encodeEvent(ev))
			pipe.SAdd(ctx, eventsIndexKey, ev.ID.String())
			return nil
		})
		return err
	}, key)
}

// GetEvent returns the event with the given ID.
func (r *RedisStore) GetEvent(ctx context.Context, id uuid.UUID) (presence.Event, error) {
	fields, err := r.client.HGetAll(ctx, eventKey(id)).Result()
	if err != nil {
		return presence.Event{}, fmt.Errorf("get event %s: %w", id, err)
	}
	return decodeEvent(fields)
}

// ListEvents returns all events, or organizer's only, by organizer and name.
func (r *RedisStore) ListEvents(ctx context.Context, organizer string) ([]presence.Event, error) {
	ids, err := r.client.SMembers(ctx, eventsIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list event ids: %w", err)
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, eventKeyPrefix+id)
	}
	hashes, err := r.hgetAll(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]presence.Event, 0, len(hashes))
	for _, fields := range hashes {
		ev, err := decodeEvent(fields)
		if err != nil {
			return nil, err
		}
		if organizer == "" || ev.Organizer == organizer {
			events = append(events, ev)
		}
	}
	slices.SortFunc(events, presence.CompareEvents)
	return events, nil
}

// GetAttendance returns attendee's record for an event.
func (r *RedisStore) GetAttendance(ctx context.Context, eventID uuid.UUID, attendee string) (presence.Attendance, error) {
	fields, err := r.client.HGetAll(ctx, attendanceKey(presence.AttendanceID(eventID, attendee))).Result()
	if err != nil {
		return presence.Attendance{}, fmt.Errorf("get attendance: %w", err)
	}
	return decodeAttendance(fields)
}

// ListAttendances returns an event's attendance records by attendee.
func (r *RedisStore) ListAttendances(ctx context.Context, eventID uuid.UUID) ([]presence.Attendance, error) {
	n, err := r.client.Exists(ctx, eventKey(eventID)).Result()
	if err != nil {
		return nil, fmt.Errorf("lookup event %s: %w", eventID, err)
	}
	if n == 0 {
		return nil, presence.ErrNotFound
	}

	attendees, err := r.client.SMembers(ctx, attendeesKey(eventID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	keys := make([]string, 0, len(attendees))
	for _, attendee := range attendees {
		keys = append(keys, attendanceKey(presence.AttendanceID(eventID, attendee)))
	}
	hashes, err := r.hgetAll(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("list attendances: %w", err)
	}

	atts := make([]presence.Attendance, 0, len(hashes))
	for _, fields := range hashes {
		att, err := decodeAttendance(fields)
		if err != nil {
			return nil, err
		}
		atts = append(atts, att)
	}
	slices.SortFunc(atts, func(a, b presence.Attendance) int {
		return cmp.Compare(a.Attendee, b.Attendee)
	})
	return atts, nil
}

// hgetAll fetches several hashes in one round trip.
func (r *RedisStore) hgetAll(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = pipe.HGetAll(ctx, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	hashes := make([]map[string]string, len(cmds))
	for i, cmd := range cmds {
		hashes[i] = cmd.Val()
	}
	return hashes, nil
}

// CheckIn runs the check-in unit as a WATCH/MULTI transaction on the
// attendance key, retrying only when the same attendee raced it.
func (r *RedisStore) CheckIn(
	ctx context.Context,
	eventID uuid.UUID,
	attendee string,
	now int64,
	decide presence.DecideFunc,
) (presence.Attendance, presence.Event, error) {
	evKey := eventKey(eventID)
	att := presence.NewAttendance(eventID, attendee, now)
	attKey := attendanceKey(att.ID)

	var ev presence.Event
	err := r.watch(ctx, func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, evKey).Result()
		if err != nil {
			return err
		}
		if ev, err = decodeEvent(fields); err != nil {
			return err
		}

		n, err := tx.Exists(ctx, attKey).Result()
		if err != nil {
			return err
		}
		if err := decide(ev, n > 0); err != nil {
			return err
		}
		if n > 0 {
			return presence.ErrAlreadyCheckedIn
		}
		if ev.Full() {
			return fmt.Errorf("event %s: %w", eventID, presence.ErrAttendeeLimit)
		}

		var incr *redis.IntCmd
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, attKey, encodeAttendance(att))
			pipe.SAdd(ctx, attendeesKey(eventID), attendee)
			incr = pipe.HIncrBy(ctx, evKey, "attendee_count", 1)
			return nil
		})
		if err != nil {
			return err
		}
		ev.AttendeeCount = uint32(incr.Val())
		return nil
	}, attKey)
	if err != nil {
		return presence.Attendance{}, presence.Event{}, err
	}
	return att, ev, nil
}

// watch runs fn under WATCH keys, retrying when another client touched one
// of the keys before EXEC. Errors returned by fn end the loop unchanged.
func (r *RedisStore) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxAttempts; i++ {
		err := r.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("redis transaction on %v: %w", keys, redis.TxFailedErr)
}

func encodeEvent(ev presence.Event) map[string]any {
	return map[string]any{
		"id":             ev.ID.String(),
		"organizer":      ev.Organizer,
		"name":           ev.Name,
		"lat":            ev.Lat,
		"lng":            ev.Lng,
		"radius_meters":  ev.RadiusMeters,
		"starts_at":      ev.StartsAt,
		"ends_at":        ev.EndsAt,
		"attendee_count": ev.AttendeeCount,
	}
}

func decodeEvent(fields map[string]string) (presence.Event, error) {
	if len(fields) == 0 {
		return presence.Event{}, presence.ErrNotFound
	}

	id, err := uuid.Parse(fields["id"])
	if err != nil {
		return presence.Event{}, fmt.Errorf("decode event id: %w", err)
	}
	d := fieldDecoder{fields: fields}
	ev := presence.Event{
		ID:            id,
		Organizer:     fields["organizer"],
		Name:          fields["name"],
		Lat:           d.parseInt64("lat"),
		Lng:           d.parseInt64("lng"),
		RadiusMeters:  d.parseUint32("radius_meters"),
		StartsAt:      d.parseInt64("starts_at"),
		EndsAt:        d.parseInt64("ends_at"),
		AttendeeCount: d.parseUint32("attendee_count"),
	}
	if d.err != nil {
		return presence.Event{}, fmt.Errorf("decode event %s: %w", id, d.err)
	}
	return ev, nil
}

func encodeAttendance(att presence.Attendance) map[string]any {
	return map[string]any{
		"id":            att.ID.String(),
		"attendee":      att.Attendee,
		"event_id":      att.EventID.String(),
		"is_checked_in": att.IsCheckedIn,
		"checked_in_at": att.CheckedInAt,
	}
}

func decodeAttendance(fields map[string]string) (presence.Attendance, error) {
	if len(fields) == 0 {
		return presence.Attendance{}, presence.ErrNotFound
	}

	d := fieldDecoder{fields: fields}
	att := presence.Attendance{
		ID:          d.parseUUID("id"),
		Attendee:    fields["attendee"],
		EventID:     d.parseUUID("event_id"),
		IsCheckedIn: d.parseBool("is_checked_in"),
		CheckedInAt: d.parseInt64("checked_in_at"),
	}
	if d.err != nil {
		return presence.Attendance{}, fmt.Errorf("decode attendance: %w", d.err)
	}
	return att, nil
}

// fieldDecoder parses hash fields and keeps the first error.
type fieldDecoder struct {
	fields map[string]string
	err    error
}

func (d *fieldDecoder) parseInt64(name string) int64 {
	v, err := strconv.ParseInt(d.fields[name], 10, 64)
	d.fail(name, err)
	return v
}

func (d *fieldDecoder) parseUint32(name string) uint32 {
	v, err := strconv.ParseUint(d.fields[name], 10, 32)
	d.fail(name, err)
	return uint32(v)
}

func (d *fieldDecoder) parseBool(name string) bool {
	v, err := strconv.ParseBool(d.fields[name])
	d.fail(name, err)
	return v
}

func (d *fieldDecoder) parseUUID(name string) uuid.UUID {
	v, err := uuid.Parse(d.fields[name])
	d.fail(name, err)
	return v
}

func (d *fieldDecoder) fail(name string, err error) {
	if err != nil && d.err == nil {
		d.err = fmt.Errorf("field %s: %w", name, err)
	}
}
