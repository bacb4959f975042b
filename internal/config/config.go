package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers understood by the record stores.
const (
	StorageXLSX     = "xlsx"
	StorageCSV      = "csv"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Persist policies applied when writing the table fails after an append.
const (
	PersistFailClosed = "fail_closed"
	PersistFailOpen   = "fail_open"
)

// Policies for blank participant names in group event submissions.
const (
	BlankParticipantSkip   = "skip_blank"
	BlankParticipantReject = "reject"
)

// Class orderings for per-class reports.
const (
	ClassOrderLexical = "lexical"
	ClassOrderGrade   = "grade"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	StorageDriver          string
	AbsencePath            string
	EventPath              string
	DatabaseURL            string
	RedisURL               string
	ReportCacheTTL         time.Duration
	PersistPolicy          string
	BlankParticipantPolicy string
	ClassOrder             string
	NATSURL                string
	NATSSubject            string
	SubmitRateLimit        int
	CORSOrigins            string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// FailOpen reports whether an append survives a failed write.
func (c Config) FailOpen() bool {
	return c.PersistPolicy == PersistFailOpen
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ABSENCE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "School Absence API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("storage.driver", StorageXLSX)
	v.SetDefault("storage.absence_path", "school_absences.xlsx")
	v.SetDefault("storage.event_path", "events_data.xlsx")
	v.SetDefault("storage.persist_policy", PersistFailClosed)
	v.SetDefault("events.blank_participant_policy", BlankParticipantSkip)
	v.SetDefault("report.cache_ttl", "2m")
	v.SetDefault("report.class_order", ClassOrderLexical)
	v.SetDefault("nats.subject", "school.records")
	v.SetDefault("http.submit_rate_limit", 30)
	v.SetDefault("http.cors_origins", "*")

	ttlString := v.GetString("report.cache_ttl")
	if ttlString == "" {
		ttlString = "2m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid report cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		StorageDriver:          strings.ToLower(v.GetString("storage.driver")),
		AbsencePath:            v.GetString("storage.absence_path"),
		EventPath:              v.GetString("storage.event_path"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		ReportCacheTTL:         ttl,
		PersistPolicy:          strings.ToLower(v.GetString("storage.persist_policy")),
		BlankParticipantPolicy: strings.ToLower(v.GetString("events.blank_participant_policy")),
		ClassOrder:             strings.ToLower(v.GetString("report.class_order")),
		NATSURL:                v.GetString("nats.url"),
		NATSSubject:            v.GetString("nats.subject"),
		SubmitRateLimit:        v.GetInt("http.submit_rate_limit"),
		CORSOrigins:            strings.TrimSpace(v.GetString("http.cors_origins")),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch c.StorageDriver {
	case StorageXLSX, StorageCSV:
		if c.AbsencePath == "" || c.EventPath == "" {
			return fmt.Errorf("storage paths must be provided for %s driver", c.StorageDriver)
		}
	case StoragePostgres, StorageSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database url must be provided for %s driver", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.StorageDriver)
	}

	if c.PersistPolicy != PersistFailClosed && c.PersistPolicy != PersistFailOpen {
		return fmt.Errorf("unsupported persist policy %q", c.PersistPolicy)
	}

	if c.BlankParticipantPolicy != BlankParticipantSkip && c.BlankParticipantPolicy != BlankParticipantReject {
		return fmt.Errorf("unsupported blank participant policy %q", c.BlankParticipantPolicy)
	}

	if c.ClassOrder != ClassOrderLexical && c.ClassOrder != ClassOrderGrade {
		return fmt.Errorf("unsupported class order %q", c.ClassOrder)
	}

	return nil
}
