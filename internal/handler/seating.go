package handler

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"wedding-seating/internal/models"
	"wedding-seating/internal/registry"
	"wedding-seating/internal/seating"
)

const deadlineDisplayLayout = "January 02, 2006"

var errInvalidSeatNumber = models.Errorf(models.KindInvalidSeat, "Invalid seat number")

type SeatingHandler struct {
	allocator *seating.Allocator
	directory *seating.Directory
	registry  *registry.Registry
	notifier  Notifier
	log       zerolog.Logger
}

// NewSeatingHandler creates the seat API handler. notifier may be nil.
func NewSeatingHandler(a *seating.Allocator, d *seating.Directory, reg *registry.Registry, notifier Notifier, log zerolog.Logger) *SeatingHandler {
	return &SeatingHandler{
		allocator: a,
		directory: d,
		registry:  reg,
		notifier:  notifier,
		log:       log.With().Str("component", "SeatingHandler").Logger(),
	}
}

// SeatInfo handles GET /api/seat-info?table=&seat=
func (h *SeatingHandler) SeatInfo(c *gin.Context) {
	seat, err := parseSeat(c.DefaultQuery("seat", "0"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	info, err := h.allocator.QuerySeat(c.Request.Context(), c.Query("table"), seat)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

type selectSeatRequest struct {
	Email string          `json:"email"`
	Table string          `json:"table"`
	Seat  json.RawMessage `json:"seat"`
}

// SelectSeat handles POST /api/select-seat {email, table, seat}
func (h *SeatingHandler) SelectSeat(c *gin.Context) {
	var body selectSeatRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error(), "code": models.KindValidation})
		return
	}
	seat, err := parseSeat(string(body.Seat))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	ctx := c.Request.Context()
	res, err := h.allocator.AssignSeat(ctx, body.Email, body.Table, seat)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	if guest, err := h.registry.Get(ctx, body.Email); err == nil {
		notify(ctx, h.notifier, h.log, guest.Cellphone, fmt.Sprintf("🪑 %s, your seat is confirmed: %s - Seat %d.",
			guest.FullName, res.Table.DisplayName(), res.Seat+1))
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": res.Message})
}

// GuestSeat handles GET /api/guest-seat?email=
func (h *SeatingHandler) GuestSeat(c *gin.Context) {
	seat, err := h.directory.FindGuestSeat(c.Request.Context(), c.Query("email"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seat": seat})
}

// SeatingChart handles GET /api/seating-chart?email=
func (h *SeatingHandler) SeatingChart(c *gin.Context) {
	ctx := c.Request.Context()
	email := c.Query("email")
	guest, err := h.registry.Get(ctx, email)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	chart, err := h.directory.Chart(ctx)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	resp := gin.H{
		"email":           email,
		"rsvp_data":       guest,
		"tables":          chart.Tables,
		"free_seats":      chart.Free(),
		"deadline_passed": h.allocator.DeadlinePassed(),
	}
	if dl := h.allocator.Deadline(); !dl.IsZero() {
		resp["deadline"] = dl.Format(deadlineDisplayLayout)
	}
	c.JSON(http.StatusOK, resp)
}

// Summary handles GET /api/summary?email=
func (h *SeatingHandler) Summary(c *gin.Context) {
	sum, err := h.directory.Summary(c.Request.Context(), c.Query("email"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// parseSeat accepts a JSON number, a quoted number or a bare query value.
// An absent value means seat 0.
func parseSeat(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return 0, nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, errInvalidSeatNumber
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, errInvalidSeatNumber
	}
	return int(f), nil
}
