package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseRSVP(t *testing.T) {
	complete := RSVPForm{
		Attending:           "yes",
		FullName:            "Ada",
		Surname:             "Lovelace",
		Email:               " a@x.com ",
		Cellphone:           "0821234567",
		BringingGuest:       "yes",
		GuestList:           "  Charles Babbage \n",
		DietaryRequirements: DietaryVegetarian,
	}

	testCases := []struct {
		name      string
		form      RSVPForm
		declined  bool
		expectErr bool
	}{
		{name: "declined", form: RSVPForm{Attending: "no"}, declined: true},
		{name: "declined ignores missing fields", form: RSVPForm{Attending: "NO"}, declined: true},
		{name: "complete attending form", form: complete},
		{name: "missing attendance flag counts as attending", form: func() RSVPForm { f := complete; f.Attending = ""; return f }()},
		{name: "missing surname", form: func() RSVPForm { f := complete; f.Surname = " "; return f }(), expectErr: true},
		{name: "missing dietary requirement", form: func() RSVPForm { f := complete; f.DietaryRequirements = ""; return f }(), expectErr: true},
		{name: "empty form", form: RSVPForm{}, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseRSVP(tc.form)
			if tc.expectErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if _, ok := got.(Declined); ok != tc.declined {
				t.Fatalf("declined = %v, want %v (%T)", ok, tc.declined, got)
			}
		})
	}

	got, _ := ParseRSVP(complete)
	rec := got.(Attending).Record
	if rec.Email != "a@x.com" || rec.GuestList != "Charles Babbage" || !rec.BringingGuest {
		t.Fatalf("fields not normalized: %+v", rec)
	}
}

func TestErrorMatching(t *testing.T) {
	err := fmt.Errorf("assign: %w", Errorf(KindSeatTaken, "Seat %d is already taken", 3))
	if !errors.Is(err, ErrSeatTaken) {
		t.Fatal("expected wrapped error to match ErrSeatTaken")
	}
	if errors.Is(err, ErrInvalidSeat) {
		t.Fatal("seat taken must not match invalid seat")
	}
	if KindOf(err) != KindSeatTaken {
		t.Fatalf("KindOf = %q", KindOf(err))
	}
	if KindOf(errors.New("disk full")) != "" {
		t.Fatal("plain errors have no kind")
	}
}

func TestTableID(t *testing.T) {
	if TableName(7) != "table_7" {
		t.Fatalf("TableName(7) = %q", TableName(7))
	}
	for _, bad := range []string{"", "table_", "table_0", "table_x", "Table_1", "seat_1", "table_01", "table_+1"} {
		if _, ok := ParseTableID(bad); ok {
			t.Errorf("ParseTableID(%q) should fail", bad)
		}
	}
	if got := TableID("table_10").DisplayName(); got != "Table 10" {
		t.Fatalf("DisplayName = %q", got)
	}
}

func TestLayoutContains(t *testing.T) {
	l := DefaultLayout
	if !l.Contains("table_1", 0) || !l.Contains("table_10", 9) {
		t.Fatal("corners of the grid must be valid")
	}
	if l.Contains("table_1", 10) || l.Contains("table_11", 0) || l.Contains("table_1", -1) {
		t.Fatal("addresses outside the grid must be invalid")
	}
}

func TestDatasetCloneIsDeep(t *testing.T) {
	d := NewDataset(DefaultLayout)
	d.Tables["table_1"][0] = &SeatSlot{Email: "a@x.com", FullName: "Ada"}

	c := d.Clone()
	c.Tables["table_1"][0].FullName = "changed"
	c.Tables["table_2"][1] = &SeatSlot{Email: "b@x.com"}
	c.Guests["b@x.com"] = GuestRecord{Email: "b@x.com"}

	if d.Tables["table_1"][0].FullName != "Ada" || d.Tables["table_2"][1] != nil || len(d.Guests) != 0 {
		t.Fatal("mutating the clone changed the original")
	}
}

func TestDatasetFindReleaseValidate(t *testing.T) {
	d := NewDataset(DefaultLayout)
	if len(d.TableIDs()) != 10 || d.TableIDs()[9] != "table_10" {
		t.Fatalf("unexpected table order: %v", d.TableIDs())
	}

	d.Tables["table_3"][4] = &SeatSlot{Email: "a@x.com"}
	if id, seat, ok := d.FindSeat("a@x.com"); !ok || id != "table_3" || seat != 4 {
		t.Fatalf("FindSeat = %v %v %v", id, seat, ok)
	}
	if err := d.Validate(); err != nil {
		t.Fatal(err)
	}

	d.Tables["table_5"][0] = &SeatSlot{Email: "a@x.com"}
	if err := d.Validate(); err == nil {
		t.Fatal("expected duplicate seat to fail validation")
	}
	if n := d.Release("a@x.com"); n != 2 {
		t.Fatalf("released %d slots, want 2", n)
	}
	if _, _, ok := d.FindSeat("a@x.com"); ok {
		t.Fatal("guest still seated after release")
	}
}

func TestDatasetNormalize(t *testing.T) {
	d := &Dataset{Tables: map[TableID][]*SeatSlot{"table_1": {{Email: "a@x.com"}}}}
	d.Normalize(DefaultLayout)

	if d.Guests == nil || len(d.Tables) != 10 || len(d.Tables["table_1"]) != 10 {
		t.Fatalf("dataset not normalized: %d tables", len(d.Tables))
	}
	if d.Tables["table_1"][0] == nil {
		t.Fatal("existing occupant lost")
	}
}
