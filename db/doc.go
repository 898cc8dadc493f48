/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The DDL runs unchanged on both PostgreSQL (production) and SQLite (tests,
single-node deployments).

# Tables

  - election: Definitions, time windows, admin override
  - position: Contested seats per election
  - voter_roll: Registered voters (eligibility + turnout denominator)
  - application: Candidacy applications and review state
  - candidate: Approved candidates
  - vote: Append-only ballot ledger
  - alert: Advisory anomaly alerts
  - admin_account: Administrator credentials

# Relationships

	election 1──* position
	election 1──* voter_roll
	election 1──* application
	position 1──* candidate
	position 1──* vote
	election 1──* alert

All foreign keys use ON DELETE CASCADE.

# Admission Constraints

Three constraints carry the correctness invariants and double as the
concurrency guards (the insert attempt is the uniqueness check):

  - vote UNIQUE (election_id, position_id, voter_id): one ballot per voter
    per position
  - partial unique index on application (election_id, position_id, voter_id)
    WHERE status <> 'rejected': one live application per voter per position
  - vote.receipt_code UNIQUE: receipt collision detection
*/
package db
