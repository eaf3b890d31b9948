package models

import "github.com/PratikDhanave/presence-service/internal/presence"

// CheckInRequest is the POST /events/:id/check-ins payload: the caller's
// claimed position in fixed-point degrees.
type CheckInRequest struct {
	Lat *int64 `json:"lat" binding:"required"`
	Lng *int64 `json:"lng" binding:"required"`
}

type AttendanceResponse struct {
	ID          string `json:"id"`
	Attendee    string `json:"attendee"`
	EventID     string `json:"event_id"`
	IsCheckedIn bool   `json:"is_checked_in"`
	CheckedInAt int64  `json:"checked_in_at"`
}

func NewAttendanceResponse(att presence.Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:          att.ID.String(),
		Attendee:    att.Attendee,
		EventID:     att.EventID.String(),
		IsCheckedIn: att.IsCheckedIn,
		CheckedInAt: att.CheckedInAt,
	}
}

type AttendanceListResponse struct {
	Attendances []AttendanceResponse `json:"attendances"`
}

func NewAttendanceListResponse(atts []presence.Attendance) AttendanceListResponse {
	out := make([]AttendanceResponse, 0, len(atts))
	for _, att := range atts {
		out = append(out, NewAttendanceResponse(att))
	}
	return AttendanceListResponse{Attendances: out}
}

// CheckInResponse is returned by a successful check-in. Event carries the
// incremented attendee_count.
type CheckInResponse struct {
	Attendance AttendanceResponse `json:"attendance"`
	Event      EventResponse      `json:"event"`
}
