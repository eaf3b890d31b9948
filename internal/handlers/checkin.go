package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/presence-service/internal/auth"
	"github.com/PratikDhanave/presence-service/internal/models"
	"github.com/PratikDhanave/presence-service/internal/presence"
)

// RegisterCheckInRoutes registers the presence endpoints.
//
// POST /events/:id/check-ins
// - Requires X-API-Key; the caller is the attendee
// - 201 on acceptance; 409 already_checked_in on any repeat attempt
// - 422 event_not_active / out_of_range when the claim is rejected
//
// GET /events/:id/attendance
// GET /events/:id/attendance/:attendee
func RegisterCheckInRoutes(r gin.IRoutes, svc *presence.Service) {
	r.POST("/events/:id/check-ins", func(c *gin.Context) {
		attendee := auth.CallerID(c)
		if attendee == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		id, ok := eventIDParam(c)
		if !ok {
			return
		}

		var req models.CheckInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
			return
		}

		res, err := svc.CheckIn(c.Request.Context(), id, attendee, *req.Lat, *req.Lng)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.CheckInResponse{
			Attendance: models.NewAttendanceResponse(res.Attendance),
			Event:      models.NewEventResponse(res.Event),
		})
	})

	r.GET("/events/:id/attendance", func(c *gin.Context) {
		id, ok := eventIDParam(c)
		if !ok {
			return
		}

		atts, err := svc.ListAttendances(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.NewAttendanceListResponse(atts))
	})

	r.GET("/events/:id/attendance/:attendee", func(c *gin.Context) {
		id, ok := eventIDParam(c)
		if !ok {
			return
		}

		att, err := svc.GetAttendance(c.Request.Context(), id, c.Param("attendee"))
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.NewAttendanceResponse(att))
	})
}
