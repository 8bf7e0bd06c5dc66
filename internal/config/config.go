package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"wedding-seating/internal/models"
	"wedding-seating/internal/storage"
)

// DeadlineLayout is the format of SEAT_CHANGE_DEADLINE
const DeadlineLayout = "2006-01-02"

// Config holds the application configuration
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"wedding-seating"`
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":5000"`
	DataDir     string `env:"DATA_DIR" envDefault:"data"`

	StoreDriver         string `env:"STORE_DRIVER" envDefault:"json"`
	StorePath           string `env:"STORE_PATH"`
	PostgresDSN         string `env:"POSTGRES_DSN"`
	StoreResetOnCorrupt bool   `env:"STORE_RESET_ON_CORRUPT" envDefault:"false"`

	Tables         int    `env:"SEATING_TABLES" envDefault:"10"`
	SeatsPerTable  int    `env:"SEATING_CAPACITY" envDefault:"10"`
	DeadlineString string `env:"SEAT_CHANGE_DEADLINE" envDefault:"2025-10-01"`
	Timezone       string `env:"TIMEZONE" envDefault:"Local"`

	EventName     string `env:"EVENT_NAME" envDefault:"our wedding"`
	EventDate     string `env:"EVENT_DATE" envDefault:"Saturday, January 1, 2025"`
	EventLocation string `env:"EVENT_LOCATION" envDefault:"Venue TBD"`

	WhatsAppEnabled bool   `env:"WHATSAPP_ENABLED" envDefault:"false"`
	WhatsAppDataDir string `env:"WHATSAPP_DATA_DIR"`
	// WhatsAppCountryCode is prepended to local numbers such as 0821234567
	WhatsAppCountryCode string `env:"WHATSAPP_COUNTRY_CODE"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	OTelEndpoint string `env:"OTEL_EXPORTER_ENDPOINT"`

	deadline time.Time
	location *time.Location
}

// LoadConfig loads configuration from the environment, an optional .env file
// and defaults. Variables already set in the environment win over .env.
func LoadConfig(envFiles ...string) (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolve() error {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc

	if c.DeadlineString != "" {
		deadline, err := time.ParseInLocation(DeadlineLayout, c.DeadlineString, loc)
		if err != nil {
			return fmt.Errorf("invalid SEAT_CHANGE_DEADLINE %q (want %s): %w", c.DeadlineString, DeadlineLayout, err)
		}
		c.deadline = deadline
	}

	if c.Tables < 1 || c.SeatsPerTable < 1 {
		return fmt.Errorf("seating grid must have at least one table and one seat, got %dx%d", c.Tables, c.SeatsPerTable)
	}

	switch c.StoreDriver {
	case storage.DriverJSON, storage.DriverSQLite, storage.DriverBolt:
		if c.StorePath == "" {
			c.StorePath = filepath.Join(c.DataDir, defaultStoreFile[c.StoreDriver])
		}
	case storage.DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("STORE_DRIVER=postgres needs POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.WhatsAppDataDir == "" {
		c.WhatsAppDataDir = c.DataDir
	}
	return nil
}

var defaultStoreFile = map[string]string{
	storage.DriverJSON:   "event_data.json",
	storage.DriverSQLite: "seating.db",
	storage.DriverBolt:   "seating.bolt",
}

// Deadline returns the seat change deadline, or the zero time when unset
func (c *Config) Deadline() time.Time {
	return c.deadline
}

// Location returns the time zone used for deadline comparisons
func (c *Config) Location() *time.Location {
	return c.location
}

// Layout returns the seating grid
func (c *Config) Layout() models.Layout {
	return models.Layout{Tables: c.Tables, Capacity: c.SeatsPerTable}
}

// StoreOptions returns the options for storage.Open
func (c *Config) StoreOptions() storage.Options {
	return storage.Options{
		Driver: c.StoreDriver,
		Path:   c.StorePath,
		DSN:    c.PostgresDSN,
		Layout: c.Layout(),
	}
}
