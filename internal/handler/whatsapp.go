package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"wedding-seating/internal/models"
	"wedding-seating/internal/registry"
	"wedding-seating/internal/seating"
)

// SeatQueryHandler answers guests who ask over WhatsApp where they sit
type SeatQueryHandler struct {
	registry  *registry.Registry
	directory *seating.Directory
	allocator *seating.Allocator
	log       zerolog.Logger
}

// NewSeatQueryHandler creates the WhatsApp seat query handler
func NewSeatQueryHandler(reg *registry.Registry, d *seating.Directory, a *seating.Allocator, log zerolog.Logger) *SeatQueryHandler {
	return &SeatQueryHandler{
		registry:  reg,
		directory: d,
		allocator: a,
		log:       log.With().Str("component", "SeatQueryHandler").Logger(),
	}
}

// HandleMessage returns the reply to send to sender, or "" to stay silent.
// Only guests with an RSVP on file get an answer.
func (h *SeatQueryHandler) HandleMessage(ctx context.Context, sender, text string) (string, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if !containsAny(text, "seat", "table", "where do i sit", "🪑") {
		return "", nil
	}

	guest, err := h.registry.FindByContact(ctx, sender)
	if errors.Is(err, models.ErrNotFound) {
		h.log.Debug().Str("sender", sender).Msg("Seat query from unknown number")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up guest: %w", err)
	}

	seat, err := h.directory.FindGuestSeat(ctx, guest.Email)
	if err != nil {
		return "", fmt.Errorf("failed to look up seat: %w", err)
	}
	if seat == nil {
		if h.allocator.DeadlinePassed() {
			return fmt.Sprintf("Hi %s, you have no seat assigned and seat selection has closed. "+
				"Please contact the hosts.", guest.FullName), nil
		}
		reply := fmt.Sprintf("Hi %s, you haven't picked a seat yet. Choose one on the seating chart", guest.FullName)
		if dl := h.allocator.Deadline(); !dl.IsZero() {
			reply += " by " + dl.Format(deadlineDisplayLayout)
		}
		return reply + ".", nil
	}
	return fmt.Sprintf("Hi %s, you are seated at %s - Seat %d. See you there! 💕",
		guest.FullName, seat.TableName, seat.Seat), nil
}

// containsAny checks if the text contains any of the given keywords
func containsAny(text string, keywords ...string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
