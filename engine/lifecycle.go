package engine

import (
	"time"

	"github.com/civicballot/civicballot/models"
)

// Phase derives an election's current lifecycle phase from its time windows
// and administrative override. It is a pure function of (election, now):
// callers pass the clock explicitly, nothing is cached, and every consumer
// (workflow gating, ledger gating, reporting) goes through this one function
// instead of re-deriving state from raw dates.
//
// Overlapping windows resolve by fixed precedence: voting over application
// over registration.
func Phase(e models.Election, now time.Time) string {
	if e.Override == models.OverrideArchived {
		return models.PhaseArchived
	}
	if now.After(e.VotingEnd) || e.Override == models.OverrideCompleted {
		return models.PhaseCompleted
	}
	if e.Override == models.OverridePaused && within(now, e.VotingStart, e.VotingEnd) {
		return models.PhasePaused
	}
	if within(now, e.VotingStart, e.VotingEnd) {
		return models.PhaseVotingOpen
	}
	if within(now, e.ApplicationStart, e.ApplicationEnd) {
		return models.PhaseApplicationOpen
	}
	if within(now, e.RegistrationStart, e.RegistrationEnd) {
		return models.PhaseRegistrationOpen
	}
	return models.PhaseScheduled
}

// within reports whether now falls in [start, end], inclusive on both ends.
func within(now, start, end time.Time) bool {
	return !now.Before(start) && !now.After(end)
}
