/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3419)
  - DatabaseURL: Connection string (required)
  - DatabaseType: "postgres" (default) or "sqlite"
  - JWTSecret: Secret for admin/voter token signing (required)
  - SourceSalt: Secret for source (IP) hashing (required)
  - AdminEmail / AdminPassword: Bootstrap administrator (optional, paired)
  - DuplicateSourceLimit / DuplicateSourceWindow / RapidRateFloor: anomaly
    monitor thresholds

# Environment Variables

Flags fall back to environment variables:

	PORT               → -p
	DATABASE_URL       → -d
	DATABASE_TYPE      → -t
	JWT_SECRET         → -jwt-secret
	SOURCE_SALT        → -source-salt
	ADMIN_EMAIL        → -admin-email
	ADMIN_PASSWORD     → -admin-password
	DUP_SOURCE_LIMIT   → -dup-source-limit
	DUP_SOURCE_WINDOW  → -dup-source-window
	RAPID_RATE_FLOOR   → -rapid-rate-floor

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - JWT_SECRET must be provided
  - SOURCE_SALT must be provided
  - ADMIN_EMAIL and ADMIN_PASSWORD must be set together or not at all
*/
package cliparse
