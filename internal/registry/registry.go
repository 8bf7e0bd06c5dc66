package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"wedding-seating/internal/models"
	"wedding-seating/internal/storage"
)

var tracer = otel.Tracer("wedding-seating/internal/registry")

// Receipt is the outcome of a submitted RSVP
type Receipt struct {
	Attending bool
	GuestID   string
}

// Registry manages guest RSVP records
type Registry struct {
	store storage.Store
	log   zerolog.Logger
	now   func() time.Time
}

// New creates a registry on top of store
func New(store storage.Store, log zerolog.Logger) *Registry {
	return &Registry{
		store: store,
		log:   log.With().Str("component", "Registry").Logger(),
		now:   time.Now,
	}
}

// WithClock replaces the clock used to stamp submissions
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// Submit records an RSVP. A declined RSVP stores nothing; an attending one
// replaces any earlier record with the same email.
func (r *Registry) Submit(ctx context.Context, rsvp models.RSVP) (Receipt, error) {
	ctx, span := tracer.Start(ctx, "Registry.Submit")
	defer span.End()

	switch v := rsvp.(type) {
	case models.Declined:
		r.log.Info().Msg("RSVP declined")
		return Receipt{Attending: false}, nil
	case models.Attending:
		record := v.Record
		record.SubmittedAt = r.now()
		span.SetAttributes(attribute.String("guest", record.Email))

		err := r.store.Update(ctx, func(d *models.Dataset) error {
			d.Guests[record.Email] = record
			return nil
		})
		if err != nil {
			span.RecordError(err)
			return Receipt{}, fmt.Errorf("failed to store RSVP: %w", err)
		}
		r.log.Info().Str("guest", record.Email).Msg("RSVP stored")
		return Receipt{Attending: true, GuestID: record.Email}, nil
	default:
		return Receipt{}, models.Errorf(models.KindValidation, "unsupported RSVP %T", rsvp)
	}
}

// SubmitForm validates a raw form and submits it
func (r *Registry) SubmitForm(ctx context.Context, form models.RSVPForm) (Receipt, error) {
	rsvp, err := models.ParseRSVP(form)
	if err != nil {
		return Receipt{}, err
	}
	return r.Submit(ctx, rsvp)
}

// Get returns the record of email
func (r *Registry) Get(ctx context.Context, email string) (*models.GuestRecord, error) {
	d, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	g, ok := d.Guests[email]
	if !ok {
		return nil, models.Errorf(models.KindNotFound, "guest %s not found", email)
	}
	return &g, nil
}

// List returns all records ordered by surname, then name
func (r *Registry) List(ctx context.Context) ([]models.GuestRecord, error) {
	d, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	guests := make([]models.GuestRecord, 0, len(d.Guests))
	for _, g := range d.Guests {
		guests = append(guests, g)
	}
	sort.Slice(guests, func(i, j int) bool {
		a, b := guests[i], guests[j]
		if a.Surname != b.Surname {
			return a.Surname < b.Surname
		}
		if a.FullName != b.FullName {
			return a.FullName < b.FullName
		}
		return a.Email < b.Email
	})
	return guests, nil
}

// FindByContact returns the guest whose cellphone matches phone once both
// are reduced to digits.
func (r *Registry) FindByContact(ctx context.Context, phone string) (*models.GuestRecord, error) {
	want := digits(phone)
	if want == "" {
		return nil, models.Errorf(models.KindNotFound, "no guest with an empty phone number")
	}
	guests, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, g := range guests {
		if have := digits(g.Cellphone); have != "" && sameNumber(have, want) {
			return &g, nil
		}
	}
	return nil, models.Errorf(models.KindNotFound, "no guest with phone %s", phone)
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// sameNumber compares two digit strings, tolerating a local number that
// dropped its leading trunk zero in favour of a country code.
func sameNumber(a, b string) bool {
	if a == b {
		return true
	}
	a = strings.TrimPrefix(a, "0")
	b = strings.TrimPrefix(b, "0")
	if len(a) < 7 || len(b) < 7 {
		return a == b
	}
	return strings.HasSuffix(a, b) || strings.HasSuffix(b, a)
}
