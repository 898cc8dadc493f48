package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/civicballot/civicballot/models"
)

const electionColumns = `id, title, organization,
	registration_start, registration_end,
	application_start, application_end,
	voting_start, voting_end,
	override, created_at`

// CreateElection validates and persists a new election definition together
// with its positions. Window validation happens here, once, so Phase never
// has to deal with malformed configs.
func (e *Engine) CreateElection(ctx context.Context, req models.CreateElectionRequest, now time.Time) (models.ElectionDetail, error) {
	if req.Title == "" {
		return models.ElectionDetail{}, validationErr("title is required")
	}
	if req.Organization == "" {
		return models.ElectionDetail{}, validationErr("organization is required")
	}
	if len(req.Positions) == 0 {
		return models.ElectionDetail{}, validationErr("at least one position is required")
	}
	if err := validateWindows(req.Registration, req.Application, req.Voting); err != nil {
		return models.ElectionDetail{}, err
	}

	election := models.Election{
		ID:                uuid.NewString(),
		Title:             req.Title,
		Organization:      req.Organization,
		RegistrationStart: req.Registration.Start,
		RegistrationEnd:   req.Registration.End,
		ApplicationStart:  req.Application.Start,
		ApplicationEnd:    req.Application.End,
		VotingStart:       req.Voting.Start,
		VotingEnd:         req.Voting.End,
		Override:          models.OverrideNone,
		CreatedAt:         now,
	}

	positions := make([]models.Position, 0, len(req.Positions))
	for _, p := range req.Positions {
		if p.Title == "" {
			return models.ElectionDetail{}, validationErr("position title is required")
		}
		seats := p.Seats
		if seats == 0 {
			seats = 1
		}
		if seats < 1 {
			return models.ElectionDetail{}, validationErr("position %q: seats must be at least 1", p.Title)
		}
		positions = append(positions, models.Position{
			ID:          uuid.NewString(),
			ElectionID:  election.ID,
			Title:       p.Title,
			Description: p.Description,
			Seats:       seats,
		})
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ElectionDetail{}, storageErr("create election", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO election (id, title, organization,
			registration_start, registration_end,
			application_start, application_end,
			voting_start, voting_end,
			override, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, election.ID, election.Title, election.Organization,
		election.RegistrationStart, election.RegistrationEnd,
		election.ApplicationStart, election.ApplicationEnd,
		election.VotingStart, election.VotingEnd,
		election.Override, election.CreatedAt)
	if err != nil {
		return models.ElectionDetail{}, storageErr("create election", err)
	}

	for _, p := range positions {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO position (id, election_id, title, description, seats)
			VALUES ($1, $2, $3, $4, $5)
		`, p.ID, p.ElectionID, p.Title, p.Description, p.Seats)
		if err != nil {
			return models.ElectionDetail{}, storageErr("create position", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return models.ElectionDetail{}, storageErr("create election", err)
	}

	return models.ElectionDetail{
		Election:  election,
		Positions: positions,
		Phase:     Phase(election, now),
	}, nil
}

// UpdateWindows replaces an election's time windows. Windows are immutable
// once the voting window has begun.
func (e *Engine) UpdateWindows(ctx context.Context, electionID string, req models.UpdateWindowsRequest, now time.Time) (models.Election, error) {
	election, err := e.GetElection(ctx, electionID)
	if err != nil {
		return models.Election{}, err
	}

	if !now.Before(election.VotingStart) {
		return models.Election{}, invalidTransition("time windows are immutable once voting has begun")
	}
	if err := validateWindows(req.Registration, req.Application, req.Voting); err != nil {
		return models.Election{}, err
	}

	_, err = e.db.ExecContext(ctx, `
		UPDATE election
		SET registration_start = $1, registration_end = $2,
		    application_start = $3, application_end = $4,
		    voting_start = $5, voting_end = $6
		WHERE id = $7
	`, req.Registration.Start, req.Registration.End,
		req.Application.Start, req.Application.End,
		req.Voting.Start, req.Voting.End, electionID)
	if err != nil {
		return models.Election{}, storageErr("update windows", err)
	}

	election.RegistrationStart = req.Registration.Start
	election.RegistrationEnd = req.Registration.End
	election.ApplicationStart = req.Application.Start
	election.ApplicationEnd = req.Application.End
	election.VotingStart = req.Voting.Start
	election.VotingEnd = req.Voting.End
	return election, nil
}

// SetOverride changes the administrative override. Unlike the windows, the
// override is mutable at any point in the lifecycle.
func (e *Engine) SetOverride(ctx context.Context, electionID, override string) error {
	switch override {
	case models.OverrideNone, models.OverridePaused, models.OverrideCompleted, models.OverrideArchived:
	default:
		return validationErr("unknown override %q", override)
	}

	res, err := e.db.ExecContext(ctx, `UPDATE election SET override = $1 WHERE id = $2`, override, electionID)
	if err != nil {
		return storageErr("set override", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("set override", err)
	}
	if n == 0 {
		return notFound("election %s not found", electionID)
	}
	return nil
}

// GetElection loads a single election definition.
func (e *Engine) GetElection(ctx context.Context, electionID string) (models.Election, error) {
	var el models.Election
	err := e.db.QueryRowContext(ctx, `
		SELECT `+electionColumns+` FROM election WHERE id = $1
	`, electionID).Scan(
		&el.ID, &el.Title, &el.Organization,
		&el.RegistrationStart, &el.RegistrationEnd,
		&el.ApplicationStart, &el.ApplicationEnd,
		&el.VotingStart, &el.VotingEnd,
		&el.Override, &el.CreatedAt,
	)
	if isNotFound(err) {
		return models.Election{}, notFound("election %s not found", electionID)
	}
	if err != nil {
		return models.Election{}, storageErr("get election", err)
	}
	return el, nil
}

// GetElectionDetail loads an election with its positions and current phase.
func (e *Engine) GetElectionDetail(ctx context.Context, electionID string, now time.Time) (models.ElectionDetail, error) {
	election, err := e.GetElection(ctx, electionID)
	if err != nil {
		return models.ElectionDetail{}, err
	}

	positions, err := e.ListPositions(ctx, electionID)
	if err != nil {
		return models.ElectionDetail{}, err
	}

	return models.ElectionDetail{
		Election:  election,
		Positions: positions,
		Phase:     Phase(election, now),
	}, nil
}

// ListElections returns all election definitions, newest first.
func (e *Engine) ListElections(ctx context.Context) ([]models.Election, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT `+electionColumns+` FROM election ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, storageErr("list elections", err)
	}
	defer rows.Close()

	elections := []models.Election{}
	for rows.Next() {
		var el models.Election
		if err := rows.Scan(
			&el.ID, &el.Title, &el.Organization,
			&el.RegistrationStart, &el.RegistrationEnd,
			&el.ApplicationStart, &el.ApplicationEnd,
			&el.VotingStart, &el.VotingEnd,
			&el.Override, &el.CreatedAt,
		); err != nil {
			return nil, storageErr("list elections", err)
		}
		elections = append(elections, el)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list elections", err)
	}
	return elections, nil
}

// ListPositions returns the positions contested in an election.
func (e *Engine) ListPositions(ctx context.Context, electionID string) ([]models.Position, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT id, election_id, title, description, seats
		FROM position
		WHERE election_id = $1
		ORDER BY title, id
	`, electionID)
	if err != nil {
		return nil, storageErr("list positions", err)
	}
	defer rows.Close()

	positions := []models.Position{}
	for rows.Next() {
		var p models.Position
		var desc *string
		if err := rows.Scan(&p.ID, &p.ElectionID, &p.Title, &desc, &p.Seats); err != nil {
			return nil, storageErr("list positions", err)
		}
		if desc != nil {
			p.Description = *desc
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list positions", err)
	}
	return positions, nil
}

// validateWindows rejects malformed window configs at creation time so that
// Phase stays total: every end must follow its start, and the three windows
// must open in chronological order.
func validateWindows(reg, app, vot models.TimeWindow) error {
	for _, w := range []struct {
		name string
		win  models.TimeWindow
	}{
		{"registration", reg},
		{"application", app},
		{"voting", vot},
	} {
		if w.win.Start.IsZero() || w.win.End.IsZero() {
			return validationErr("%s window is required", w.name)
		}
		if !w.win.End.After(w.win.Start) {
			return validationErr("%s window must end after it starts", w.name)
		}
	}
	if app.Start.Before(reg.Start) {
		return validationErr("application window must not open before registration opens")
	}
	if vot.Start.Before(app.Start) {
		return validationErr("voting window must not open before applications open")
	}
	return nil
}
