/*
Package main provides the entry point for the civicballot API server.

civicballot runs organizational elections end to end: time-windowed
lifecycle phases, candidacy applications with administrative review,
one-ballot-per-position voting with verifiable receipts, sealed results,
and advisory anomaly monitoring over the admission stream.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... JWT_SECRET=... SOURCE_SALT=... go run main.go

Or with flags:

	go run main.go -p 3419 -d "postgres://..." -jwt-secret ... -source-salt ...

# Configuration

Required settings:

  - DATABASE_URL (-d): connection string (PostgreSQL, or a SQLite path
    with DATABASE_TYPE=sqlite)
  - JWT_SECRET (-jwt-secret): secret for admin and voter tokens
  - SOURCE_SALT (-source-salt): secret for source identifier hashing

Optional settings:

  - PORT (-p): server port (default: 3419)
  - ADMIN_EMAIL / ADMIN_PASSWORD: bootstrap administrator, seeded at startup
  - DUP_SOURCE_LIMIT, DUP_SOURCE_WINDOW, RAPID_RATE_FLOOR: anomaly thresholds

# Architecture

The server uses a handler-based architecture with dependency injection:

  - engine: lifecycle derivation, candidacy workflow, vote ledger, tally,
    receipt verification
  - monitor: anomaly detection over admitted votes
  - handlers: HTTP request handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - auth: Tokens, receipt codes, password and source hashing
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
