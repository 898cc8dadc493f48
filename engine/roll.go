package engine

import (
	"context"
	"time"

	"github.com/civicballot/civicballot/models"
)

// RegisterVoter adds a voter to an election's roll during the registration
// window. Registration is idempotent: re-registering an already rolled voter
// succeeds without modifying the existing entry, so a voter who lost their
// credential can simply register again.
func (e *Engine) RegisterVoter(ctx context.Context, electionID, voterID, displayName string, now time.Time) error {
	if voterID == "" {
		return validationErr("voter_id is required")
	}
	if displayName == "" {
		return validationErr("display_name is required")
	}

	election, err := e.GetElection(ctx, electionID)
	if err != nil {
		return err
	}
	if phase := Phase(election, now); phase != models.PhaseRegistrationOpen {
		return phaseViolation("registration is not open (election is %s)", phase)
	}

	_, err = e.db.ExecContext(ctx, `
		INSERT INTO voter_roll (election_id, voter_id, display_name, verified, registered_at)
		VALUES ($1, $2, $3, TRUE, $4)
		ON CONFLICT (election_id, voter_id) DO NOTHING
	`, electionID, voterID, displayName, now)
	if err != nil {
		return storageErr("register voter", err)
	}
	return nil
}

// isEligible reports whether a voter is on an election's roll and verified.
func (e *Engine) isEligible(ctx context.Context, electionID, voterID string) (bool, error) {
	var eligible bool
	err := e.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM voter_roll
			WHERE election_id = $1 AND voter_id = $2 AND verified
		)
	`, electionID, voterID).Scan(&eligible)
	if err != nil {
		return false, storageErr("check eligibility", err)
	}
	return eligible, nil
}

// rollDisplayName returns the registered display name of a voter.
func (e *Engine) rollDisplayName(ctx context.Context, electionID, voterID string) (string, error) {
	var name string
	err := e.db.QueryRowContext(ctx, `
		SELECT display_name FROM voter_roll
		WHERE election_id = $1 AND voter_id = $2
	`, electionID, voterID).Scan(&name)
	if isNotFound(err) {
		return "", notFound("voter %s is not registered for election %s", voterID, electionID)
	}
	if err != nil {
		return "", storageErr("load voter", err)
	}
	return name, nil
}
