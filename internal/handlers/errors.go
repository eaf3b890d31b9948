package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/presence-service/internal/presence"
)

// statusFor maps a presence reason code to its HTTP status.
var statusFor = map[string]int{
	"invalid_name":           http.StatusBadRequest,
	"invalid_window":         http.StatusBadRequest,
	"invalid_radius":         http.StatusBadRequest,
	"unauthorized":           http.StatusUnauthorized,
	"not_found":              http.StatusNotFound,
	"already_exists":         http.StatusConflict,
	"already_checked_in":     http.StatusConflict,
	"attendee_limit_reached": http.StatusConflict,
	"event_not_active":       http.StatusUnprocessableEntity,
	"out_of_range":           http.StatusUnprocessableEntity,
}

// writeError responds with {"error": code, "message": ...}. Unknown errors
// are reported as 500 without leaking their text.
func writeError(c *gin.Context, err error) {
	code := presence.Reason(err)
	status, ok := statusFor[code]
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.JSON(status, gin.H{"error": code, "message": err.Error()})
}
