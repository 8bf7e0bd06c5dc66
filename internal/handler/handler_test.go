package handler

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wedding-seating/internal/models"
	"wedding-seating/internal/registry"
	"wedding-seating/internal/seating"
	"wedding-seating/internal/storage"
)

func TestParseSeat(t *testing.T) {
	testCases := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{raw: "", want: 0},
		{raw: "null", want: 0},
		{raw: "7", want: 7},
		{raw: " 3 ", want: 3},
		{raw: `"4"`, want: 4},
		{raw: "2.0", want: 2},
		{raw: "-1", want: -1},
		{raw: "1.5", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: `"abc"`, wantErr: true},
		{raw: "NaN", wantErr: true},
		{raw: "1e20", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := parseSeat(tc.raw)
			if tc.wantErr {
				if !errors.Is(err, models.ErrInvalidSeat) {
					t.Fatalf("parseSeat(%q) error = %v, want invalid seat", tc.raw, err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("parseSeat(%q) = %d, %v; want %d", tc.raw, got, err, tc.want)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	testCases := map[models.ErrorKind]int{
		models.KindValidation:     http.StatusBadRequest,
		models.KindInvalidSeat:    http.StatusBadRequest,
		models.KindUnknownGuest:   http.StatusBadRequest,
		models.KindDeadlinePassed: http.StatusBadRequest,
		models.KindSeatTaken:      http.StatusConflict,
		models.KindNotFound:       http.StatusNotFound,
		"":                        http.StatusInternalServerError,
	}
	for kind, want := range testCases {
		if got := statusFor(kind); got != want {
			t.Errorf("statusFor(%q) = %d, want %d", kind, got, want)
		}
	}
}

type failingNotifier struct{ calls int }

func (f *failingNotifier) SendMessage(context.Context, string, string) error {
	f.calls++
	return errors.New("offline")
}

func TestNotify(t *testing.T) {
	n := &failingNotifier{}
	notify(context.Background(), n, zerolog.Nop(), "", "hello")
	if n.calls != 0 {
		t.Fatal("message sent without a phone number")
	}
	notify(context.Background(), n, zerolog.Nop(), "0821234567", "hello")
	if n.calls != 1 {
		t.Fatalf("expected one attempt, got %d", n.calls)
	}
	notify(context.Background(), nil, zerolog.Nop(), "0821234567", "hello")
}

func newSeatQueryHandler(t *testing.T, now time.Time) (*SeatQueryHandler, *registry.Registry, *seating.Allocator) {
	t.Helper()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "event_data.json"), models.DefaultLayout)
	if err != nil {
		t.Fatal(err)
	}
	log := zerolog.Nop()
	reg := registry.New(store, log)
	alloc := seating.NewAllocator(store, seating.Policy{
		Layout:   models.DefaultLayout,
		Deadline: time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
		Location: time.UTC,
	}, log, seating.WithClock(func() time.Time { return now }))
	return NewSeatQueryHandler(reg, seating.NewDirectory(store), alloc, log), reg, alloc
}

func TestSeatQueryHandler(t *testing.T) {
	ctx := context.Background()
	h, reg, alloc := newSeatQueryHandler(t, time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC))

	_, err := reg.Submit(ctx, models.Attending{Record: models.GuestRecord{
		Email: "ada@x.com", FullName: "Ada", Surname: "Lovelace",
		Cellphone: "082 123 4567", DietaryRequirements: "none",
	}})
	if err != nil {
		t.Fatal(err)
	}

	reply, err := h.HandleMessage(ctx, "27821234567", "hello there")
	if err != nil || reply != "" {
		t.Fatalf("unrelated message got reply %q, %v", reply, err)
	}

	reply, err = h.HandleMessage(ctx, "27829999999", "where is my seat?")
	if err != nil || reply != "" {
		t.Fatalf("unknown sender got reply %q, %v", reply, err)
	}

	reply, err = h.HandleMessage(ctx, "27821234567", "Which TABLE am I at?")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply, "haven't picked a seat") || !strings.Contains(reply, "October 01, 2025") {
		t.Fatalf("unexpected reply %q", reply)
	}

	if _, err := alloc.AssignSeat(ctx, "ada@x.com", "table_3", 4); err != nil {
		t.Fatal(err)
	}
	reply, err = h.HandleMessage(ctx, "27821234567", "🪑")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply, "Table 3 - Seat 5") {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestSeatQueryHandlerAfterDeadline(t *testing.T) {
	ctx := context.Background()
	h, reg, _ := newSeatQueryHandler(t, time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC))

	_, err := reg.Submit(ctx, models.Attending{Record: models.GuestRecord{
		Email: "ada@x.com", FullName: "Ada", Surname: "Lovelace",
		Cellphone: "0821234567", DietaryRequirements: "none",
	}})
	if err != nil {
		t.Fatal(err)
	}

	reply, err := h.HandleMessage(ctx, "27821234567", "seat?")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply, "seat selection has closed") {
		t.Fatalf("unexpected reply %q", reply)
	}
}
