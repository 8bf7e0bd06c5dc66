package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wedding-seating/internal/config"
	"wedding-seating/internal/models"
	"wedding-seating/internal/registry"
	"wedding-seating/internal/seating"
	"wedding-seating/internal/storage"
)

func TestConsole(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "event_data.json"), models.Layout{Tables: 2, Capacity: 2})
	if err != nil {
		t.Fatal(err)
	}
	log := zerolog.Nop()
	reg := registry.New(store, log)
	alloc := seating.NewAllocator(store, seating.Policy{Layout: models.Layout{Tables: 2, Capacity: 2}, Location: time.UTC}, log)
	dir := seating.NewDirectory(store)

	_, err = reg.Submit(ctx, models.Attending{Record: models.GuestRecord{
		Email: "ada@x.com", FullName: "Ada", Surname: "Lovelace",
		Cellphone: "0821234567", DietaryRequirements: "vegan",
	}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := alloc.AssignSeat(ctx, "ada@x.com", "table_2", 1); err != nil {
		t.Fatal(err)
	}

	in := strings.NewReader("1\n2\n3\nada@x.com\n3\nnobody@x.com\n9\n4\n")
	var out bytes.Buffer
	newConsole(in, &out, reg, dir, alloc).run(ctx)

	for _, want := range []string{
		"All Guests (1 total)",
		"Name: Ada Lovelace",
		"3 free seats, selection open",
		"Seat  2: Ada Lovelace",
		"ada@x.com is seated at Table 2 - Seat 2",
		"nobody@x.com has no seat yet.",
		"Invalid command",
		"Exiting...",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("console output missing %q", want)
		}
	}
}

func TestOpenStoreCorrupt(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	dataDir := t.TempDir()
	t.Setenv("DATA_DIR", dataDir)
	path := filepath.Join(dataDir, "event_data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.LoadConfig(filepath.Join(dataDir, "missing.env"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := openStore(context.Background(), cfg, zerolog.Nop()); !errors.Is(err, storage.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}

	cfg.StoreResetOnCorrupt = true
	store, err := openStore(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	defer store.Close()

	d, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Guests) != 0 || len(d.Tables) != 10 {
		t.Fatalf("expected a fresh dataset, got %d guests and %d tables", len(d.Guests), len(d.Tables))
	}
}
