/*
Package models defines the domain entities and request/response types shared
across the API.

# Domain Entities

  - Election: time windows, override, organization scope
  - Position: a seat being contested within an election
  - Application: a voter's candidacy application (pending/approved/rejected)
  - Candidate: the terminal state of an approved application
  - Vote: one admitted ballot per (election, position, voter)
  - Alert: advisory anomaly flag raised by the monitor

# Phase Constants

An election is always in exactly one phase, derived from its windows and
override by engine.Phase:

	scheduled → registration_open → application_open → voting_open → completed

with paused and archived reachable via the administrative override.

# Result Types

CandidateResult, PositionResult and TurnoutResult are computed on demand from
the vote ledger and never persisted.
*/
package models
