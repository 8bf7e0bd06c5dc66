package seating

import (
	"context"
	"fmt"

	"wedding-seating/internal/models"
	"wedding-seating/internal/storage"
)

// GuestSeat is where a guest sits; Seat is 1-based
type GuestSeat struct {
	Table     models.TableID `json:"table"`
	TableName string         `json:"table_name"`
	Seat      int            `json:"seat"`
}

// ChartTable is one table of the seating chart
type ChartTable struct {
	ID    models.TableID `json:"id"`
	Name  string         `json:"name"`
	Seats []SeatInfo     `json:"seats"`
}

// Chart is the whole seating grid in table order
type Chart struct {
	Tables []ChartTable `json:"tables"`
}

// Free returns the number of empty seats
func (c Chart) Free() int {
	n := 0
	for _, t := range c.Tables {
		for _, s := range t.Seats {
			if !s.Occupied {
				n++
			}
		}
	}
	return n
}

// Summary is a guest's RSVP together with their seat, if any
type Summary struct {
	Guest models.GuestRecord `json:"rsvp_data"`
	Seat  *GuestSeat         `json:"user_seat"`
}

// Directory answers read-only seating questions
type Directory struct {
	store storage.Store
}

// NewDirectory creates a directory on top of store
func NewDirectory(store storage.Store) *Directory {
	return &Directory{store: store}
}

// FindGuestSeat returns the seat held by email, or nil when unseated
func (q *Directory) FindGuestSeat(ctx context.Context, email string) (*GuestSeat, error) {
	ctx, span := tracer.Start(ctx, "Directory.FindGuestSeat")
	defer span.End()

	d, err := q.store.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	return findSeat(d, email), nil
}

// Chart returns the full seating grid
func (q *Directory) Chart(ctx context.Context) (Chart, error) {
	ctx, span := tracer.Start(ctx, "Directory.Chart")
	defer span.End()

	d, err := q.store.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return Chart{}, fmt.Errorf("failed to load dataset: %w", err)
	}

	chart := Chart{Tables: make([]ChartTable, 0, len(d.Tables))}
	for _, id := range d.TableIDs() {
		seats := d.Tables[id]
		t := ChartTable{ID: id, Name: id.DisplayName(), Seats: make([]SeatInfo, len(seats))}
		for i, slot := range seats {
			t.Seats[i] = seatInfo(id, i, slot)
		}
		chart.Tables = append(chart.Tables, t)
	}
	return chart, nil
}

// Summary returns the RSVP of email and its seat
func (q *Directory) Summary(ctx context.Context, email string) (*Summary, error) {
	ctx, span := tracer.Start(ctx, "Directory.Summary")
	defer span.End()

	d, err := q.store.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	g, ok := d.Guests[email]
	if !ok {
		return nil, models.Errorf(models.KindNotFound, "guest %s not found", email)
	}
	return &Summary{Guest: g, Seat: findSeat(d, email)}, nil
}

func findSeat(d *models.Dataset, email string) *GuestSeat {
	id, seat, ok := d.FindSeat(email)
	if !ok {
		return nil
	}
	return &GuestSeat{Table: id, TableName: id.DisplayName(), Seat: seat + 1}
}
