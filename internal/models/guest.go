package models

import (
	"strings"
	"time"
)

// GuestRecord represents one guest's RSVP, keyed by email
type GuestRecord struct {
	Email               string    `json:"email"`
	FullName            string    `json:"full_name"`
	Surname             string    `json:"surname"`
	Cellphone           string    `json:"cellphone"`
	BringingGuest       bool      `json:"bringing_guest"`
	GuestList           string    `json:"guest_list"`
	DietaryRequirements string    `json:"dietary_requirements"`
	FoodAllergies       string    `json:"food_allergies"`
	SubmittedAt         time.Time `json:"submitted_at"`
}

// DisplayName returns "<full name> <surname>"
func (g GuestRecord) DisplayName() string {
	return strings.TrimSpace(g.FullName + " " + g.Surname)
}

// Dietary requirement categories offered by the RSVP form. Other non-empty
// values are stored as given.
const (
	DietaryNone        = "none"
	DietaryVegetarian  = "vegetarian"
	DietaryVegan       = "vegan"
	DietaryHalal       = "halal"
	DietaryKosher      = "kosher"
	DietaryGlutenFree  = "gluten_free"
	DietaryOther       = "other"
	AttendanceDeclined = "no"
)

// RSVPForm is the raw input submitted by the presentation layer
type RSVPForm struct {
	Attending           string `json:"attending" form:"attending"`
	FullName            string `json:"full_name" form:"full_name"`
	Surname             string `json:"surname" form:"surname"`
	Email               string `json:"email" form:"email"`
	Cellphone           string `json:"cellphone" form:"cellphone"`
	BringingGuest       string `json:"bringing_guest" form:"bringing_guest"`
	GuestList           string `json:"guest_list" form:"guest_list"`
	DietaryRequirements string `json:"dietary_requirements" form:"dietary_requirements"`
	FoodAllergies       string `json:"food_allergies" form:"food_allergies"`
}

// RSVP is either Declined or Attending.
type RSVP interface {
	isRSVP()
}

// Declined is the answer of a guest who will not attend. Nothing is stored for it.
type Declined struct{}

// Attending carries a complete, validated guest record (SubmittedAt unset).
type Attending struct {
	Record GuestRecord
}

func (Declined) isRSVP()  {}
func (Attending) isRSVP() {}

// ParseRSVP validates the form once and turns it into a typed RSVP.
// Only the attendance flag "no" declines; anything else needs the full form.
func ParseRSVP(form RSVPForm) (RSVP, error) {
	if strings.EqualFold(strings.TrimSpace(form.Attending), AttendanceDeclined) {
		return Declined{}, nil
	}

	record := GuestRecord{
		Email:               strings.TrimSpace(form.Email),
		FullName:            strings.TrimSpace(form.FullName),
		Surname:             strings.TrimSpace(form.Surname),
		Cellphone:           strings.TrimSpace(form.Cellphone),
		BringingGuest:       parseFlag(form.BringingGuest),
		GuestList:           strings.TrimSpace(form.GuestList),
		DietaryRequirements: strings.TrimSpace(form.DietaryRequirements),
		FoodAllergies:       strings.TrimSpace(form.FoodAllergies),
	}

	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"full_name", record.FullName},
		{"surname", record.Surname},
		{"email", record.Email},
		{"cellphone", record.Cellphone},
		{"dietary_requirements", record.DietaryRequirements},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, Errorf(KindValidation, "Please fill in all required fields (missing: %s)", strings.Join(missing, ", "))
	}

	return Attending{Record: record}, nil
}

func parseFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "on", "1":
		return true
	}
	return false
}
