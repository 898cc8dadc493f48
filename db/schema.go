package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
//
// The DDL is deliberately restricted to the dialect shared by PostgreSQL and
// SQLite: no server-side defaults for timestamps (handlers always pass them),
// no JSON columns. The uniqueness constraints below ARE the admission logic;
// see engine.CastVote and engine.SubmitApplication.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Elections
CREATE TABLE IF NOT EXISTS election (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    organization TEXT NOT NULL,
    registration_start TIMESTAMP NOT NULL,
    registration_end TIMESTAMP NOT NULL,
    application_start TIMESTAMP NOT NULL,
    application_end TIMESTAMP NOT NULL,
    voting_start TIMESTAMP NOT NULL,
    voting_end TIMESTAMP NOT NULL,
    override TEXT NOT NULL DEFAULT 'none' CHECK (override IN ('none', 'paused', 'completed', 'archived')),
    created_at TIMESTAMP NOT NULL
);

-- Positions
CREATE TABLE IF NOT EXISTS position (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    description TEXT,
    seats INTEGER NOT NULL DEFAULT 1 CHECK (seats >= 1)
);

CREATE INDEX IF NOT EXISTS idx_position_election_id ON position(election_id);

-- Voter roll: eligibility scope and turnout denominator
CREATE TABLE IF NOT EXISTS voter_roll (
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    verified BOOLEAN NOT NULL DEFAULT TRUE,
    registered_at TIMESTAMP NOT NULL,
    PRIMARY KEY (election_id, voter_id)
);

-- Candidacy applications
CREATE TABLE IF NOT EXISTS application (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    position_id TEXT NOT NULL REFERENCES position(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL,
    statement TEXT NOT NULL,
    contact TEXT,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    rejection_reason TEXT,
    submitted_at TIMESTAMP NOT NULL,
    reviewed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_application_election_id ON application(election_id);
CREATE INDEX IF NOT EXISTS idx_application_position_id ON application(position_id);

-- At most one live (non-rejected) application per voter per position.
-- The INSERT in SubmitApplication is the uniqueness check.
CREATE UNIQUE INDEX IF NOT EXISTS idx_application_live
    ON application(election_id, position_id, voter_id)
    WHERE status <> 'rejected';

-- Candidates (created only by application approval)
CREATE TABLE IF NOT EXISTS candidate (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    position_id TEXT NOT NULL REFERENCES position(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL,
    name TEXT NOT NULL,
    statement TEXT,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (position_id, voter_id)
);

CREATE INDEX IF NOT EXISTS idx_candidate_position_id ON candidate(position_id);

-- Votes: append-only ledger. The UNIQUE constraints carry the admission
-- invariants; votes are never updated or deleted.
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    position_id TEXT NOT NULL REFERENCES position(id) ON DELETE CASCADE,
    candidate_id TEXT NOT NULL REFERENCES candidate(id) ON DELETE CASCADE,
    voter_id TEXT NOT NULL,
    receipt_code TEXT NOT NULL UNIQUE,
    source_hash TEXT,
    cast_at TIMESTAMP NOT NULL,
    UNIQUE (election_id, position_id, voter_id)
);

CREATE INDEX IF NOT EXISTS idx_vote_election_id ON vote(election_id);
CREATE INDEX IF NOT EXISTS idx_vote_position_id ON vote(position_id);
CREATE INDEX IF NOT EXISTS idx_vote_receipt_code ON vote(receipt_code);

-- Advisory anomaly alerts
CREATE TABLE IF NOT EXISTS alert (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES election(id) ON DELETE CASCADE,
    alert_type TEXT NOT NULL CHECK (alert_type IN ('duplicate_source', 'rapid_rate', 'pattern_anomaly')),
    severity TEXT NOT NULL CHECK (severity IN ('low', 'medium', 'high')),
    voter_id TEXT,
    vote_id TEXT,
    detail TEXT NOT NULL,
    resolved BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL,
    resolved_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_alert_election_id ON alert(election_id);
CREATE INDEX IF NOT EXISTS idx_alert_resolved ON alert(resolved);

-- Administrator accounts
CREATE TABLE IF NOT EXISTS admin_account (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    pass_hash TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);
`
