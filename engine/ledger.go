package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/civicballot/civicballot/auth"
	"github.com/civicballot/civicballot/models"
)

// receiptRetries bounds the regenerate-on-collision loop. With a 32^16 code
// space a single collision is already vanishingly unlikely.
const receiptRetries = 5

// CastVote admits a ballot. The eligibility reads (phase, candidate, roll)
// are advisory; the binding check is the INSERT against the UNIQUE
// (election_id, position_id, voter_id) constraint, so of N concurrent
// attempts for the same triple exactly one succeeds and the rest get
// AlreadyVoted. Once the insert commits, admission is final.
//
// On success the receipt code is returned to the caller and an admission
// event is published to the anomaly monitor.
func (e *Engine) CastVote(ctx context.Context, voterID, electionID, positionID, candidateID, sourceHash string, now time.Time) (models.Vote, error) {
	election, err := e.GetElection(ctx, electionID)
	if err != nil {
		return models.Vote{}, err
	}

	switch phase := Phase(election, now); phase {
	case models.PhaseVotingOpen:
	case models.PhasePaused:
		return models.Vote{}, phaseViolation("voting is paused by the administrator")
	case models.PhaseCompleted, models.PhaseArchived:
		return models.Vote{}, phaseViolation("voting has closed")
	default:
		return models.Vote{}, phaseViolation("voting has not yet opened (election is %s)", phase)
	}

	if err := e.candidateVotable(ctx, electionID, positionID, candidateID); err != nil {
		return models.Vote{}, err
	}

	eligible, err := e.isEligible(ctx, electionID, voterID)
	if err != nil {
		return models.Vote{}, err
	}
	if !eligible {
		return models.Vote{}, validationErr("voter is not registered for this election")
	}

	vote := models.Vote{
		ID:          uuid.NewString(),
		ElectionID:  electionID,
		PositionID:  positionID,
		CandidateID: candidateID,
		VoterID:     voterID,
		SourceHash:  sourceHash,
		CastAt:      now,
	}

	for attempt := 0; attempt < receiptRetries; attempt++ {
		code, err := auth.GenerateReceiptCode()
		if err != nil {
			return models.Vote{}, storageErr("generate receipt", err)
		}
		vote.ReceiptCode = code

		_, err = e.db.ExecContext(ctx, `
			INSERT INTO vote (id, election_id, position_id, candidate_id, voter_id, receipt_code, source_hash, cast_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, vote.ID, vote.ElectionID, vote.PositionID, vote.CandidateID, vote.VoterID,
			vote.ReceiptCode, vote.SourceHash, vote.CastAt)
		if err == nil {
			slog.Info("vote admitted",
				"vote_id", vote.ID,
				"election_id", electionID,
				"position_id", positionID,
			)
			e.emitAdmission(models.AdmissionEvent{
				ElectionID: electionID,
				VoteID:     vote.ID,
				VoterID:    voterID,
				SourceHash: sourceHash,
				CastAt:     now,
			})
			return vote, nil
		}
		if isUniqueViolation(err, "receipt_code") {
			// Receipt collision: regenerate and retry the admission.
			continue
		}
		if isUniqueViolation(err, "") {
			return models.Vote{}, alreadyVoted("you have already voted for this position")
		}
		return models.Vote{}, storageErr("cast vote", err)
	}

	return models.Vote{}, errReceiptSpaceExhausted
}

var errReceiptSpaceExhausted = &Error{
	Kind:    KindStorageUnavailable,
	Message: "could not allocate a unique receipt code",
}

// candidateVotable checks the candidate exists, was approved for the given
// position, and that the position belongs to the election.
func (e *Engine) candidateVotable(ctx context.Context, electionID, positionID, candidateID string) error {
	if err := e.positionInElection(ctx, electionID, positionID); err != nil {
		return err
	}

	var ok bool
	err := e.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM candidate
			WHERE id = $1 AND position_id = $2 AND election_id = $3
		)
	`, candidateID, positionID, electionID).Scan(&ok)
	if err != nil {
		return storageErr("check candidate", err)
	}
	if !ok {
		return invalidCandidate("candidate is not approved for this position")
	}
	return nil
}
