package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	// Secrets
	JWTSecret  string
	SourceSalt string

	// Bootstrap administrator (seeded at startup if absent)
	AdminEmail    string
	AdminPassword string

	// Anomaly monitor thresholds
	DuplicateSourceLimit  int
	DuplicateSourceWindow time.Duration
	RapidRateFloor        time.Duration
}

// ParseFlags validates flags with environment variable fallbacks.
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("civicballot", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "JWT signing secret (prefer env)")
	fs.StringVar(&cfg.SourceSalt, "source-salt", "", "Source hashing salt (prefer env)")

	// Bootstrap admin
	fs.StringVar(&cfg.AdminEmail, "admin-email", "", "Bootstrap admin email")
	fs.StringVar(&cfg.AdminPassword, "admin-password", "", "Bootstrap admin password (prefer env)")

	// Anomaly thresholds
	fs.IntVar(&cfg.DuplicateSourceLimit, "dup-source-limit", 0, "Votes from one source before alerting")
	fs.DurationVar(&cfg.DuplicateSourceWindow, "dup-source-window", 0, "Window for the duplicate-source heuristic")
	fs.DurationVar(&cfg.RapidRateFloor, "rapid-rate-floor", 0, "Minimum inter-arrival time per voter")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3419 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "postgres"
		}
	}
	if cfg.DatabaseType != "postgres" && cfg.DatabaseType != "sqlite" {
		return Config{}, errors.New("database type must be postgres or sqlite")
	}

	// Secrets - MUST be provided
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}

	if cfg.SourceSalt == "" {
		cfg.SourceSalt = os.Getenv("SOURCE_SALT")
	}
	if cfg.SourceSalt == "" {
		return Config{}, errors.New("SOURCE_SALT required")
	}

	// Bootstrap admin is optional; both fields or neither
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = os.Getenv("ADMIN_EMAIL")
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return Config{}, errors.New("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	// Anomaly thresholds with sensible defaults
	if cfg.DuplicateSourceLimit == 0 {
		if v := os.Getenv("DUP_SOURCE_LIMIT"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return Config{}, errors.New("invalid DUP_SOURCE_LIMIT env variable")
			}
			cfg.DuplicateSourceLimit = n
		} else {
			cfg.DuplicateSourceLimit = 5
		}
	}
	if cfg.DuplicateSourceWindow == 0 {
		if v := os.Getenv("DUP_SOURCE_WINDOW"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, errors.New("invalid DUP_SOURCE_WINDOW env variable")
			}
			cfg.DuplicateSourceWindow = d
		} else {
			cfg.DuplicateSourceWindow = 10 * time.Minute
		}
	}
	if cfg.RapidRateFloor == 0 {
		if v := os.Getenv("RAPID_RATE_FLOOR"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, errors.New("invalid RAPID_RATE_FLOOR env variable")
			}
			cfg.RapidRateFloor = d
		} else {
			cfg.RapidRateFloor = 2 * time.Second
		}
	}

	return cfg, nil
}
