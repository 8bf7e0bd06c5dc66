package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"wedding-seating/internal/models"
	"wedding-seating/internal/registry"
)

type RSVPHandler struct {
	registry *registry.Registry
	notifier Notifier
	config   *Config
	log      zerolog.Logger
}

// NewRSVPHandler creates a new RSVP handler. notifier may be nil.
func NewRSVPHandler(reg *registry.Registry, notifier Notifier, cfg *Config, log zerolog.Logger) *RSVPHandler {
	return &RSVPHandler{
		registry: reg,
		notifier: notifier,
		config:   cfg,
		log:      log.With().Str("component", "RSVPHandler").Logger(),
	}
}

// Submit handles POST /api/rsvp with a JSON or form body
func (h *RSVPHandler) Submit(c *gin.Context) {
	var form models.RSVPForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error(), "code": models.KindValidation})
		return
	}

	receipt, err := h.registry.SubmitForm(c.Request.Context(), form)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	if !receipt.Attending {
		c.JSON(http.StatusOK, gin.H{
			"attending": false,
			"message":   "Thank you for letting us know. We'll miss you!",
		})
		return
	}

	notify(c.Request.Context(), h.notifier, h.log, form.Cellphone, fmt.Sprintf(
		"🎉 Thank you, %s! We've received your RSVP for %s on %s at %s.\n\n"+
			"Don't forget to pick your seat.",
		form.FullName, h.config.EventName, h.config.EventDate, h.config.EventLocation,
	))

	c.JSON(http.StatusCreated, gin.H{
		"attending":     true,
		"email":         receipt.GuestID,
		"seating_chart": "/api/seating-chart?email=" + url.QueryEscape(receipt.GuestID),
	})
}

// Get handles GET /api/rsvp/:email
func (h *RSVPHandler) Get(c *gin.Context) {
	guest, err := h.registry.Get(c.Request.Context(), c.Param("email"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, guest)
}
