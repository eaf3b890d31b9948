package models

import "github.com/PratikDhanave/presence-service/internal/presence"

// CreateEventRequest is the POST /events payload.
// Coordinates are degrees * 1_000_000; timestamps are Unix seconds.
// Pointers distinguish a legitimate zero from a missing field.
type CreateEventRequest struct {
	Name         string  `json:"name" binding:"required"`
	Lat          *int64  `json:"lat" binding:"required"`
	Lng          *int64  `json:"lng" binding:"required"`
	RadiusMeters *uint32 `json:"radius_meters" binding:"required"`
	StartsAt     *int64  `json:"starts_at" binding:"required"`
	EndsAt       *int64  `json:"ends_at" binding:"required"`
}

// Params converts the request into service parameters. Call only after binding.
func (r CreateEventRequest) Params() presence.CreateEventParams {
	return presence.CreateEventParams{
		Name:         r.Name,
		Lat:          *r.Lat,
		Lng:          *r.Lng,
		RadiusMeters: *r.RadiusMeters,
		StartsAt:     *r.StartsAt,
		EndsAt:       *r.EndsAt,
	}
}

// EventResponse is the JSON representation of an event.
type EventResponse struct {
	ID            string `json:"id"`
	Organizer     string `json:"organizer"`
	Name          string `json:"name"`
	Lat           int64  `json:"lat"`
	Lng           int64  `json:"lng"`
	RadiusMeters  uint32 `json:"radius_meters"`
	StartsAt      int64  `json:"starts_at"`
	EndsAt        int64  `json:"ends_at"`
	AttendeeCount uint32 `json:"attendee_count"`
}

// EventListResponse is returned by GET /events.
type EventListResponse struct {
	Events []EventResponse `json:"events"`
}

func NewEventListResponse(events []presence.Event) EventListResponse {
	out := make([]EventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, NewEventResponse(ev))
	}
	return EventListResponse{Events: out}
}

func NewEventResponse(ev presence.Event) EventResponse {
	return EventResponse{
		ID:            ev.ID.String(),
		Organizer:     ev.Organizer,
		Name:          ev.Name,
		Lat:           ev.Lat,
		Lng:           ev.Lng,
		RadiusMeters:  ev.RadiusMeters,
		StartsAt:      ev.StartsAt,
		EndsAt:        ev.EndsAt,
		AttendeeCount: ev.AttendeeCount,
	}
}
