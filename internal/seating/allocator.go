package seating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"wedding-seating/internal/models"
	"wedding-seating/internal/storage"
)

var tracer = otel.Tracer("wedding-seating/internal/seating")

// Policy is the seating configuration injected into the Allocator
type Policy struct {
	Layout models.Layout
	// Deadline is the last calendar day on which seats may change. The zero
	// value disables the deadline.
	Deadline time.Time
	Location *time.Location
}

// SeatInfo describes one seat
type SeatInfo struct {
	Table    models.TableID `json:"table"`
	Seat     int            `json:"seat"`
	Occupied bool           `json:"occupied"`
	Occupant string         `json:"occupant,omitempty"`
	GuestID  string         `json:"-"`
}

// Assignment is the result of a successful AssignSeat
type Assignment struct {
	Table   models.TableID `json:"table"`
	Seat    int            `json:"seat"`
	Message string         `json:"message"`
}

// Allocator assigns seats to guests
type Allocator struct {
	store  storage.Store
	policy Policy
	log    zerolog.Logger
	now    func() time.Time
}

// Option configures an Allocator
type Option func(*Allocator)

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(a *Allocator) {
		a.now = now
	}
}

// NewAllocator creates an allocator on top of store
func NewAllocator(store storage.Store, policy Policy, log zerolog.Logger, opts ...Option) *Allocator {
	if policy.Location == nil {
		policy.Location = time.Local
	}
	a := &Allocator{
		store:  store,
		policy: policy,
		log:    log.With().Str("component", "Allocator").Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Deadline returns the configured deadline date
func (a *Allocator) Deadline() time.Time {
	return a.policy.Deadline
}

// DeadlinePassed reports whether today is after the deadline day
func (a *Allocator) DeadlinePassed() bool {
	if a.policy.Deadline.IsZero() {
		return false
	}
	return dateOf(a.now(), a.policy.Location).After(dateOf(a.policy.Deadline, a.policy.Location))
}

// QuerySeat returns the occupancy of one seat
func (a *Allocator) QuerySeat(ctx context.Context, table string, seat int) (SeatInfo, error) {
	ctx, span := tracer.Start(ctx, "Allocator.QuerySeat")
	defer span.End()

	id, err := a.validate(table, seat)
	if err != nil {
		return SeatInfo{}, err
	}

	d, err := a.store.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return SeatInfo{}, fmt.Errorf("failed to load dataset: %w", err)
	}
	slot, ok := d.Slot(id, seat)
	if !ok {
		return SeatInfo{}, models.ErrInvalidSeat
	}
	return seatInfo(id, seat, slot), nil
}

// AssignSeat moves guest email to table/seat. Any seat the guest held before
// is released in the same transaction; if the target seat is taken nothing
// changes.
func (a *Allocator) AssignSeat(ctx context.Context, email, table string, seat int) (Assignment, error) {
	ctx, span := tracer.Start(ctx, "Allocator.AssignSeat")
	defer span.End()
	span.SetAttributes(
		attribute.String("guest", email),
		attribute.String("table", table),
		attribute.Int("seat", seat),
	)

	id, err := a.validate(table, seat)
	if err != nil {
		return Assignment{}, err
	}
	if a.DeadlinePassed() {
		return Assignment{}, models.ErrDeadlinePassed
	}

	var released []string
	err = a.store.Update(ctx, func(d *models.Dataset) error {
		released = released[:0]

		guest, ok := d.Guests[email]
		if !ok {
			return models.ErrUnknownGuest
		}

		if prev, at, held := d.FindSeat(email); held {
			released = append(released, fmt.Sprintf("%s[%d]", prev, at))
		}
		d.Release(email)

		slot, exists := d.Slot(id, seat)
		if !exists {
			return models.ErrInvalidSeat
		}
		if slot != nil {
			return models.ErrSeatTaken
		}
		d.Tables[id][seat] = &models.SeatSlot{
			Email:    email,
			FullName: guest.FullName,
			Surname:  guest.Surname,
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		var domainErr *models.Error
		if !errors.As(err, &domainErr) {
			span.SetStatus(codes.Error, err.Error())
			return Assignment{}, fmt.Errorf("failed to assign seat: %w", err)
		}
		a.log.Debug().Str("guest", email).Str("table", table).Int("seat", seat).
			Str("reason", string(domainErr.Kind)).Msg("Seat assignment rejected")
		return Assignment{}, err
	}

	a.log.Info().Str("guest", email).Str("table", string(id)).Int("seat", seat).
		Strs("released", released).Msg("Seat assigned")

	return Assignment{
		Table:   id,
		Seat:    seat,
		Message: fmt.Sprintf("Seat assigned at %s - Seat %d", id.DisplayName(), seat+1),
	}, nil
}

func (a *Allocator) validate(table string, seat int) (models.TableID, error) {
	n, ok := models.ParseTableID(table)
	if !ok || n > a.policy.Layout.Tables {
		return "", models.Errorf(models.KindInvalidSeat, "Invalid table")
	}
	if seat < 0 || seat >= a.policy.Layout.Capacity {
		return "", models.Errorf(models.KindInvalidSeat, "Invalid seat number")
	}
	return models.TableID(table), nil
}

func seatInfo(id models.TableID, seat int, slot *models.SeatSlot) SeatInfo {
	info := SeatInfo{Table: id, Seat: seat}
	if slot != nil {
		info.Occupied = true
		info.Occupant = slot.DisplayName()
		info.GuestID = slot.Email
	}
	return info
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
