package engine

import (
	"context"
	"time"

	"github.com/civicballot/civicballot/models"
)

// ListAlerts returns an election's alerts, unresolved first, newest first.
func (e *Engine) ListAlerts(ctx context.Context, electionID string) ([]models.Alert, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT id, election_id, alert_type, severity, voter_id, vote_id,
		       detail, resolved, created_at, resolved_at
		FROM alert
		WHERE election_id = $1
		ORDER BY resolved, created_at DESC, id
	`, electionID)
	if err != nil {
		return nil, storageErr("list alerts", err)
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		var a models.Alert
		var voterID, voteID *string
		if err := rows.Scan(&a.ID, &a.ElectionID, &a.Type, &a.Severity, &voterID, &voteID,
			&a.Detail, &a.Resolved, &a.CreatedAt, &a.ResolvedAt); err != nil {
			return nil, storageErr("list alerts", err)
		}
		if voterID != nil {
			a.VoterID = *voterID
		}
		if voteID != nil {
			a.VoteID = *voteID
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list alerts", err)
	}
	return alerts, nil
}

// ResolveAlert marks an alert resolved. Resolving is terminal: a repeated
// attempt returns InvalidTransition. Alerts are advisory and resolving one
// never touches the vote it references.
func (e *Engine) ResolveAlert(ctx context.Context, alertID string, now time.Time) error {
	res, err := e.db.ExecContext(ctx, `
		UPDATE alert SET resolved = TRUE, resolved_at = $1
		WHERE id = $2 AND NOT resolved
	`, now, alertID)
	if err != nil {
		return storageErr("resolve alert", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("resolve alert", err)
	}
	if n == 0 {
		var resolved bool
		err := e.db.QueryRowContext(ctx, `SELECT resolved FROM alert WHERE id = $1`, alertID).Scan(&resolved)
		if isNotFound(err) {
			return notFound("alert %s not found", alertID)
		}
		if err != nil {
			return storageErr("load alert", err)
		}
		return invalidTransition("alert is already resolved")
	}
	return nil
}
