package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"wedding-seating/internal/models"
)

// Notifier delivers a text message to a guest's phone
type Notifier interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

// Config holds the event details used in guest-facing messages
type Config struct {
	EventName     string
	EventDate     string
	EventLocation string
}

const notifyTimeout = 15 * time.Second

// notify sends message to phone if a notifier is configured. Failures are
// logged and never fail the request.
func notify(ctx context.Context, n Notifier, log zerolog.Logger, phone, message string) {
	if n == nil || phone == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := n.SendMessage(ctx, phone, message); err != nil {
		log.Warn().Err(err).Str("phone", phone).Msg("Failed to send confirmation")
	}
}

func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindValidation, models.KindInvalidSeat, models.KindUnknownGuest, models.KindDeadlinePassed:
		return http.StatusBadRequest
	case models.KindSeatTaken:
		return http.StatusConflict
	case models.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto a JSON error response
func writeError(c *gin.Context, log zerolog.Logger, err error) {
	kind := models.KindOf(err)
	if kind == "" {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(statusFor(kind), gin.H{"error": err.Error(), "code": kind})
}
