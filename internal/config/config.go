package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"mystops/internal/localtime"
	"mystops/internal/publisher"
	"mystops/internal/trimet"
)

type Config struct {
	APIKey          string
	BaseURL         string        `validate:"required,url"`
	HTTPTimeout     time.Duration `validate:"gt=0"`
	Clock           *localtime.Clock
	DatabaseURL     string `validate:"required"`
	BatchSize       int    `validate:"gt=0"`
	DataDir         string `validate:"required"`
	StopsCenter     trimet.Point
	StopsRadiusFeet int `validate:"gt=0"`
	NATSURL         string
	NATSSubject     string `validate:"required"`
	LogNATSSubjects bool
	MetricsAddr     string
}

var ErrNoAPIKey = errors.New("TRIMET_API_KEY must be set")

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.APIKey = strings.TrimSpace(os.Getenv("TRIMET_API_KEY"))
	cfg.BaseURL = strings.TrimRight(getenvDefault("TRIMET_BASE_URL", trimet.DefaultBaseURL), "/")

	if v := os.Getenv("HTTP_TIMEOUT_SEC"); v != "" {
		sec, err := strconv.Atoi(v)
		if err != nil || sec <= 0 {
			return nil, fmt.Errorf("invalid HTTP_TIMEOUT_SEC: %q", v)
		}
		cfg.HTTPTimeout = time.Duration(sec) * time.Second
	} else {
		cfg.HTTPTimeout = 10 * time.Second
	}

	// Agency time zone; every displayed time is rendered in it.
	clock, err := localtime.LoadClock(os.Getenv("AGENCY_TZ"))
	if err != nil {
		return nil, fmt.Errorf("invalid AGENCY_TZ: %v", err)
	}
	cfg.Clock = clock

	// Database URL: prefer DATABASE_URL / PG_DSN, else build from PG* vars
	dsn := firstNonEmpty(
		os.Getenv("DATABASE_URL"),
		os.Getenv("PG_DSN"),
	)
	if dsn == "" {
		host := getenvDefault("PGHOST", "127.0.0.1")
		port := getenvDefault("PGPORT", "5432")
		user := getenvDefault("PGUSER", "postgres")
		pass := os.Getenv("PGPASSWORD")
		db := getenvDefault("PGDATABASE", "mystops")
		sslmode := getenvDefault("PGSSLMODE", "disable")
		if pass != "" {
			cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
		} else {
			cfg.DatabaseURL = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
		}
	} else {
		cfg.DatabaseURL = dsn
	}

	if v := os.Getenv("BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid BATCH_SIZE: %q", v)
		}
		cfg.BatchSize = n
	} else {
		cfg.BatchSize = 100
	}

	cfg.DataDir = getenvDefault("DATA_DIR", "./data/trimet")

	center, err := parsePoint(getenvDefault("STOPS_CENTER", "-122.667369,45.522698"))
	if err != nil {
		return nil, fmt.Errorf("invalid STOPS_CENTER: %v", err)
	}
	cfg.StopsCenter = center

	if v := os.Getenv("STOPS_RADIUS_FEET"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid STOPS_RADIUS_FEET: %q", v)
		}
		cfg.StopsRadiusFeet = n
	} else {
		cfg.StopsRadiusFeet = 528000
	}

	// Empty NATS_URL disables board publishing.
	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.NATSSubject = getenvDefault("NATS_SUBJECT_PREFIX", publisher.DefaultSubjectPrefix)

	// Debug logging for NATS publish subjects
	if v := os.Getenv("LOG_NATS_SUBJECTS"); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			cfg.LogNATSSubjects = true
		default:
			cfg.LogNATSSubjects = false
		}
	}

	// Metrics listen address (e.g., ":9102"). Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// RequireAPIKey fails for commands that call the TriMet API without a key.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

// parsePoint reads "lon,lat".
func parsePoint(s string) (trimet.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return trimet.Point{}, fmt.Errorf("want lon,lat, got %q", s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return trimet.Point{}, err
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return trimet.Point{}, err
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return trimet.Point{}, fmt.Errorf("coordinates out of range: %q", s)
	}
	return trimet.Point{Lon: lon, Lat: lat}, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
