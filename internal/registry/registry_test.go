package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wedding-seating/internal/models"
	"wedding-seating/internal/storage"
)

func newTestRegistry(t *testing.T) (*Registry, storage.Store) {
	t.Helper()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "event_data.json"), models.DefaultLayout)
	if err != nil {
		t.Fatal(err)
	}
	return New(store, zerolog.Nop()), store
}

func attendingForm(email string) models.RSVPForm {
	return models.RSVPForm{
		Attending:           "yes",
		FullName:            "Ada",
		Surname:             "Lovelace",
		Email:               email,
		Cellphone:           "082 123 4567",
		DietaryRequirements: models.DietaryNone,
	}
}

func TestSubmitAttending(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t)
	stamp := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	r.WithClock(func() time.Time { return stamp })

	receipt, err := r.SubmitForm(ctx, attendingForm("a@x.com"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !receipt.Attending || receipt.GuestID != "a@x.com" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	g, err := r.Get(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if g.FullName != "Ada" || !g.SubmittedAt.Equal(stamp) {
		t.Fatalf("unexpected record %+v", g)
	}
}

func TestSubmitDeclinedStoresNothing(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRegistry(t)

	receipt, err := r.SubmitForm(ctx, models.RSVPForm{Attending: "no", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("decline must not fail: %v", err)
	}
	if receipt.Attending {
		t.Fatal("expected a declined receipt")
	}
	d, _ := store.Load(ctx)
	if len(d.Guests) != 0 {
		t.Fatalf("declined RSVP created %d records", len(d.Guests))
	}
}

func TestSubmitValidationNoMutation(t *testing.T) {
	ctx := context.Background()
	r, store := newTestRegistry(t)

	form := attendingForm("a@x.com")
	form.Cellphone = ""
	if _, err := r.SubmitForm(ctx, form); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	d, _ := store.Load(ctx)
	if len(d.Guests) != 0 {
		t.Fatal("invalid RSVP was stored")
	}
}

func TestResubmissionOverwrites(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t)

	if _, err := r.SubmitForm(ctx, attendingForm("a@x.com")); err != nil {
		t.Fatal(err)
	}
	second := attendingForm("a@x.com")
	second.FullName = "Augusta"
	second.FoodAllergies = "peanuts"
	if _, err := r.SubmitForm(ctx, second); err != nil {
		t.Fatal(err)
	}

	guests, err := r.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(guests) != 1 {
		t.Fatalf("expected one record, got %d", len(guests))
	}
	if guests[0].FullName != "Augusta" || guests[0].FoodAllergies != "peanuts" {
		t.Fatalf("record not overwritten: %+v", guests[0])
	}
}

func TestGetUnknown(t *testing.T) {
	r, _ := newTestRegistry(t)
	if _, err := r.Get(context.Background(), "nobody@x.com"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListOrder(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t)
	for _, f := range []struct{ email, name, surname string }{
		{"c@x.com", "Charles", "Babbage"},
		{"a@x.com", "Ada", "Lovelace"},
		{"g@x.com", "Grace", "Hopper"},
	} {
		form := attendingForm(f.email)
		form.FullName, form.Surname = f.name, f.surname
		if _, err := r.SubmitForm(ctx, form); err != nil {
			t.Fatal(err)
		}
	}

	guests, _ := r.List(ctx)
	got := []string{guests[0].Surname, guests[1].Surname, guests[2].Surname}
	want := []string{"Babbage", "Hopper", "Lovelace"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestFindByContact(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRegistry(t)
	if _, err := r.SubmitForm(ctx, attendingForm("a@x.com")); err != nil {
		t.Fatal(err)
	}

	for _, phone := range []string{"0821234567", "+27 82 123 4567", "27821234567"} {
		g, err := r.FindByContact(ctx, phone)
		if err != nil {
			t.Fatalf("FindByContact(%q): %v", phone, err)
		}
		if g.Email != "a@x.com" {
			t.Fatalf("FindByContact(%q) = %s", phone, g.Email)
		}
	}

	if _, err := r.FindByContact(ctx, "0831112222"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
