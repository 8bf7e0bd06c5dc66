package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"wedding-seating/internal/config"
	"wedding-seating/internal/handler"
	"wedding-seating/internal/models"
	"wedding-seating/internal/registry"
	"wedding-seating/internal/seating"
	"wedding-seating/internal/server"
	"wedding-seating/internal/storage"
	"wedding-seating/internal/telemetry"
	"wedding-seating/internal/whatsapp"
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	console := flag.Bool("console", false, "start the interactive admin console")
	flag.Parse()

	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		config.Exitf("config: %v", err)
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		config.Exitf("telemetry: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush traces")
		}
	}()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		config.Exitf("store: %v", err)
	}
	defer store.Close()

	reg := registry.New(store, log)
	alloc := seating.NewAllocator(store, seating.Policy{
		Layout:   cfg.Layout(),
		Deadline: cfg.Deadline(),
		Location: cfg.Location(),
	}, log)
	dir := seating.NewDirectory(store)

	var notifier handler.Notifier
	if cfg.WhatsAppEnabled {
		wa, err := whatsapp.NewService(ctx, &whatsapp.Config{
			DataDir:     cfg.WhatsAppDataDir,
			CountryCode: cfg.WhatsAppCountryCode,
		}, log)
		if err != nil {
			config.Exitf("whatsapp: %v", err)
		}
		wa.SetMessageHandler(handler.NewSeatQueryHandler(reg, dir, alloc, log).HandleMessage)

		fmt.Println("Connecting to WhatsApp...")
		if err := wa.Connect(ctx); err != nil {
			config.Exitf("whatsapp: %v", err)
		}
		defer wa.Disconnect()
		fmt.Println("✅ Connected to WhatsApp!")
		notifier = wa
	}

	eventCfg := &handler.Config{
		EventName:     cfg.EventName,
		EventDate:     cfg.EventDate,
		EventLocation: cfg.EventLocation,
	}
	srv := server.NewServer(cfg.ServiceName, log,
		handler.NewRSVPHandler(reg, notifier, eventCfg, log),
		handler.NewSeatingHandler(alloc, dir, reg, notifier, log),
	)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Str("store", cfg.StoreDriver).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()

	if *console {
		go func() {
			newConsole(os.Stdin, os.Stdout, reg, dir, alloc).run(ctx)
			stop()
		}()
	}

	<-ctx.Done()
	fmt.Println("\nShutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown")
	}
	fmt.Println("Goodbye! 👋")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.LogFormat == "json" {
		log = zerolog.New(os.Stderr)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
	return log.Level(level).With().Timestamp().Str("service", cfg.ServiceName).Logger()
}

// openStore opens the configured backend and checks the persisted dataset.
// A corrupt dataset stops startup unless STORE_RESET_ON_CORRUPT is set.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.Store, error) {
	store, err := storage.Open(cfg.StoreOptions())
	if err != nil {
		return nil, err
	}

	_, err = store.Load(ctx)
	switch {
	case err == nil:
		return store, nil
	case errors.Is(err, storage.ErrCorrupt) && cfg.StoreResetOnCorrupt:
		log.Warn().Err(err).Msg("Resetting corrupt dataset")
		if err := store.Save(ctx, models.NewDataset(cfg.Layout())); err != nil {
			store.Close()
			return nil, fmt.Errorf("reset dataset: %w", err)
		}
		return store, nil
	case errors.Is(err, storage.ErrCorrupt):
		store.Close()
		return nil, fmt.Errorf("%w (set STORE_RESET_ON_CORRUPT=true to start over)", err)
	default:
		store.Close()
		return nil, err
	}
}
