package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/civicballot/civicballot/models"
)

// SubmitApplication admits a candidacy application. The uniqueness invariant
// (one live application per voter per position) is carried by a partial
// unique index, so the INSERT itself is the check and two concurrent submits
// cannot both succeed.
func (e *Engine) SubmitApplication(ctx context.Context, voterID, electionID string, req models.SubmitApplicationRequest, now time.Time) (models.Application, error) {
	if req.Statement == "" {
		return models.Application{}, validationErr("statement is required")
	}

	election, err := e.GetElection(ctx, electionID)
	if err != nil {
		return models.Application{}, err
	}
	if phase := Phase(election, now); phase != models.PhaseApplicationOpen {
		return models.Application{}, phaseViolation("applications are not being accepted (election is %s)", phase)
	}

	if err := e.positionInElection(ctx, electionID, req.PositionID); err != nil {
		return models.Application{}, err
	}

	eligible, err := e.isEligible(ctx, electionID, voterID)
	if err != nil {
		return models.Application{}, err
	}
	if !eligible {
		return models.Application{}, validationErr("voter is not registered for this election")
	}

	app := models.Application{
		ID:          uuid.NewString(),
		ElectionID:  electionID,
		PositionID:  req.PositionID,
		VoterID:     voterID,
		Statement:   req.Statement,
		Contact:     req.Contact,
		Status:      models.ApplicationPending,
		SubmittedAt: now,
	}

	_, err = e.db.ExecContext(ctx, `
		INSERT INTO application (id, election_id, position_id, voter_id, statement, contact, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, app.ID, app.ElectionID, app.PositionID, app.VoterID, app.Statement, app.Contact, app.Status, app.SubmittedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return models.Application{}, duplicateApplication("you already have a pending or approved application for this position")
		}
		return models.Application{}, storageErr("submit application", err)
	}

	slog.Info("application submitted",
		"application_id", app.ID,
		"election_id", electionID,
		"position_id", req.PositionID,
	)
	return app, nil
}

// ApproveApplication moves a pending application to its approved terminal
// state and creates the corresponding candidate. The state transition is a
// single conditional UPDATE, so a concurrent second review attempt sees
// InvalidTransition rather than double-applying.
func (e *Engine) ApproveApplication(ctx context.Context, applicationID string, now time.Time) (models.Candidate, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Candidate{}, storageErr("approve application", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE application
		SET status = $1, reviewed_at = $2
		WHERE id = $3 AND status = $4
	`, models.ApplicationApproved, now, applicationID, models.ApplicationPending)
	if err != nil {
		return models.Candidate{}, storageErr("approve application", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Candidate{}, storageErr("approve application", err)
	}
	if n == 0 {
		return models.Candidate{}, e.reviewConflict(ctx, applicationID)
	}

	var app models.Application
	var contact *string
	err = tx.QueryRowContext(ctx, `
		SELECT id, election_id, position_id, voter_id, statement, contact
		FROM application WHERE id = $1
	`, applicationID).Scan(&app.ID, &app.ElectionID, &app.PositionID, &app.VoterID, &app.Statement, &contact)
	if err != nil {
		return models.Candidate{}, storageErr("approve application", err)
	}

	var name string
	err = tx.QueryRowContext(ctx, `
		SELECT display_name FROM voter_roll
		WHERE election_id = $1 AND voter_id = $2
	`, app.ElectionID, app.VoterID).Scan(&name)
	if err != nil {
		return models.Candidate{}, storageErr("approve application", err)
	}

	candidate := models.Candidate{
		ID:         uuid.NewString(),
		ElectionID: app.ElectionID,
		PositionID: app.PositionID,
		VoterID:    app.VoterID,
		Name:       name,
		Statement:  app.Statement,
		CreatedAt:  now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO candidate (id, election_id, position_id, voter_id, name, statement, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, candidate.ID, candidate.ElectionID, candidate.PositionID, candidate.VoterID,
		candidate.Name, candidate.Statement, candidate.CreatedAt)
	if err != nil {
		return models.Candidate{}, storageErr("create candidate", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Candidate{}, storageErr("approve application", err)
	}

	slog.Info("application approved",
		"application_id", applicationID,
		"candidate_id", candidate.ID,
		"position_id", candidate.PositionID,
	)
	return candidate, nil
}

// RejectApplication moves a pending application to its rejected terminal
// state. Rejection is final for the application but frees the voter to
// submit a fresh one for the same position.
func (e *Engine) RejectApplication(ctx context.Context, applicationID, reason string, now time.Time) error {
	if reason == "" {
		return validationErr("rejection reason is required")
	}

	res, err := e.db.ExecContext(ctx, `
		UPDATE application
		SET status = $1, rejection_reason = $2, reviewed_at = $3
		WHERE id = $4 AND status = $5
	`, models.ApplicationRejected, reason, now, applicationID, models.ApplicationPending)
	if err != nil {
		return storageErr("reject application", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("reject application", err)
	}
	if n == 0 {
		return e.reviewConflict(ctx, applicationID)
	}

	slog.Info("application rejected", "application_id", applicationID, "reason", reason)
	return nil
}

// reviewConflict explains why a review UPDATE matched no rows: either the
// application does not exist or it already reached a terminal status.
func (e *Engine) reviewConflict(ctx context.Context, applicationID string) error {
	var status string
	err := e.db.QueryRowContext(ctx, `SELECT status FROM application WHERE id = $1`, applicationID).Scan(&status)
	if isNotFound(err) {
		return notFound("application %s not found", applicationID)
	}
	if err != nil {
		return storageErr("load application", err)
	}
	return invalidTransition("application is already %s", status)
}

// ListApplications returns applications for an election, newest first.
func (e *Engine) ListApplications(ctx context.Context, electionID string) ([]models.Application, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT id, election_id, position_id, voter_id, statement, contact,
		       status, rejection_reason, submitted_at, reviewed_at
		FROM application
		WHERE election_id = $1
		ORDER BY submitted_at DESC, id
	`, electionID)
	if err != nil {
		return nil, storageErr("list applications", err)
	}
	defer rows.Close()

	apps := []models.Application{}
	for rows.Next() {
		var a models.Application
		var contact *string
		if err := rows.Scan(&a.ID, &a.ElectionID, &a.PositionID, &a.VoterID, &a.Statement, &contact,
			&a.Status, &a.RejectionReason, &a.SubmittedAt, &a.ReviewedAt); err != nil {
			return nil, storageErr("list applications", err)
		}
		if contact != nil {
			a.Contact = *contact
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list applications", err)
	}
	return apps, nil
}

// ListCandidates returns the approved candidates for an election.
func (e *Engine) ListCandidates(ctx context.Context, electionID string) ([]models.Candidate, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT id, election_id, position_id, voter_id, name, statement, created_at
		FROM candidate
		WHERE election_id = $1
		ORDER BY position_id, name, id
	`, electionID)
	if err != nil {
		return nil, storageErr("list candidates", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		var statement *string
		if err := rows.Scan(&c.ID, &c.ElectionID, &c.PositionID, &c.VoterID, &c.Name, &statement, &c.CreatedAt); err != nil {
			return nil, storageErr("list candidates", err)
		}
		if statement != nil {
			c.Statement = *statement
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list candidates", err)
	}
	return candidates, nil
}

// positionInElection verifies a position id belongs to the given election.
func (e *Engine) positionInElection(ctx context.Context, electionID, positionID string) error {
	var exists bool
	err := e.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM position WHERE id = $1 AND election_id = $2)
	`, positionID, electionID).Scan(&exists)
	if err != nil {
		return storageErr("check position", err)
	}
	if !exists {
		return notFound("position %s not found in election %s", positionID, electionID)
	}
	return nil
}
