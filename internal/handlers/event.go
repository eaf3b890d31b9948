package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/PratikDhanave/presence-service/internal/auth"
	"github.com/PratikDhanave/presence-service/internal/models"
	"github.com/PratikDhanave/presence-service/internal/presence"
)

// RegisterEventRoutes registers the event registry endpoints.
//
// POST /events
// - Requires X-API-Key; the caller becomes the organizer
// - Keyed by (organizer, name): a second create returns 409 already_exists
//
// GET /events
// - Optional ?organizer= narrows the list to one organizer
//
// GET /events/:id
func RegisterEventRoutes(r gin.IRoutes, svc *presence.Service) {
	r.POST("/events", func(c *gin.Context) {
		organizer := auth.CallerID(c)
		if organizer == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req models.CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
			return
		}

		ev, err := svc.CreateEvent(c.Request.Context(), organizer, req.Params())
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.NewEventResponse(ev))
	})

	r.GET("/events", func(c *gin.Context) {
		events, err := svc.ListEvents(c.Request.Context(), c.Query("organizer"))
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.NewEventListResponse(events))
	})

	r.GET("/events/:id", func(c *gin.Context) {
		id, ok := eventIDParam(c)
		if !ok {
			return
		}

		ev, err := svc.GetEvent(c.Request.Context(), id)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.NewEventResponse(ev))
	})
}

// eventIDParam parses the :id path segment, writing a 400 on failure.
func eventIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "id must be a UUID"})
		return uuid.UUID{}, false
	}
	return id, true
}
