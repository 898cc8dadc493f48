package engine

import (
	"context"
	"math"
	"sort"

	"github.com/civicballot/civicballot/models"
)

// TallyPosition aggregates admitted votes for one position. Counts come from
// a single GROUP BY over the ledger, so a tally never sees a half-admitted
// vote; a vote committing concurrently is simply not in this snapshot.
//
// Percentage is count/total*100 rounded to one decimal, 0.0 across the board
// when no votes exist. Ranking is standard competition ranking (tied
// candidates share a rank, the next rank skips). Winner flags follow the
// seat count: for a single-seat position the flag is set only when exactly
// one candidate holds the maximum; any tie leaves winner unset on the tied
// candidates. Multi-seat positions flag the top candidates up to the seat
// count, except candidates tied across the seat boundary, which stay
// unflagged.
func (e *Engine) TallyPosition(ctx context.Context, electionID, positionID string) (models.PositionResult, error) {
	var title string
	var seats int
	err := e.db.QueryRowContext(ctx, `
		SELECT title, seats FROM position WHERE id = $1 AND election_id = $2
	`, positionID, electionID).Scan(&title, &seats)
	if isNotFound(err) {
		return models.PositionResult{}, notFound("position %s not found in election %s", positionID, electionID)
	}
	if err != nil {
		return models.PositionResult{}, storageErr("tally position", err)
	}

	rows, err := e.db.QueryContext(ctx, `
		SELECT c.id, c.name, COUNT(v.id)
		FROM candidate c
		LEFT JOIN vote v ON v.candidate_id = c.id
		WHERE c.position_id = $1
		GROUP BY c.id, c.name
	`, positionID)
	if err != nil {
		return models.PositionResult{}, storageErr("tally position", err)
	}
	defer rows.Close()

	candidates := []models.CandidateResult{}
	total := 0
	for rows.Next() {
		var c models.CandidateResult
		if err := rows.Scan(&c.CandidateID, &c.Name, &c.Votes); err != nil {
			return models.PositionResult{}, storageErr("tally position", err)
		}
		total += c.Votes
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return models.PositionResult{}, storageErr("tally position", err)
	}

	rankAndFlag(candidates, total, seats)

	return models.PositionResult{
		PositionID: positionID,
		Title:      title,
		TotalVotes: total,
		Candidates: candidates,
	}, nil
}

// TallyElection tallies every position of an election.
func (e *Engine) TallyElection(ctx context.Context, electionID string) ([]models.PositionResult, error) {
	positions, err := e.ListPositions(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		// ListPositions cannot distinguish an empty election from a
		// missing one; resolve it here.
		if _, err := e.GetElection(ctx, electionID); err != nil {
			return nil, err
		}
	}

	results := make([]models.PositionResult, 0, len(positions))
	for _, p := range positions {
		r, err := e.TallyPosition(ctx, electionID, p.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// Turnout reports distinct voters who cast any vote over the size of the
// verified roll. Both counts come from one statement for a consistent read.
func (e *Engine) Turnout(ctx context.Context, electionID string) (models.TurnoutResult, error) {
	if _, err := e.GetElection(ctx, electionID); err != nil {
		return models.TurnoutResult{}, err
	}

	var voted, eligible int
	err := e.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(DISTINCT voter_id) FROM vote WHERE election_id = $1),
			(SELECT COUNT(*) FROM voter_roll WHERE election_id = $1 AND verified)
	`, electionID).Scan(&voted, &eligible)
	if err != nil {
		return models.TurnoutResult{}, storageErr("turnout", err)
	}

	result := models.TurnoutResult{
		ElectionID: electionID,
		Voted:      voted,
		Eligible:   eligible,
	}
	if eligible > 0 {
		result.Ratio = float64(voted) / float64(eligible)
	}
	return result, nil
}

// rankAndFlag sorts candidates by votes descending (id ascending as a stable
// tiebreak for ordering only), assigns competition ranks, computes rounded
// percentages, and sets winner flags per the seat policy.
func rankAndFlag(candidates []models.CandidateResult, total, seats int) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Votes != candidates[j].Votes {
			return candidates[i].Votes > candidates[j].Votes
		}
		return candidates[i].CandidateID < candidates[j].CandidateID
	})

	for i := range candidates {
		if total > 0 {
			pct := float64(candidates[i].Votes) / float64(total) * 100
			candidates[i].Percentage = math.Round(pct*10) / 10
		} else {
			candidates[i].Percentage = 0.0
		}

		if i > 0 && candidates[i].Votes == candidates[i-1].Votes {
			candidates[i].Rank = candidates[i-1].Rank
		} else {
			candidates[i].Rank = i + 1
		}
	}

	if total == 0 || len(candidates) == 0 {
		return
	}

	cutoff := seats
	if cutoff > len(candidates) {
		cutoff = len(candidates)
	}

	// A tie straddling the seat boundary leaves all tied candidates
	// unflagged; resolving it is an administrative policy decision.
	boundary := candidates[cutoff-1].Votes
	straddles := cutoff < len(candidates) && candidates[cutoff].Votes == boundary

	for i := 0; i < cutoff; i++ {
		if candidates[i].Votes == 0 {
			break
		}
		if straddles && candidates[i].Votes == boundary {
			break
		}
		candidates[i].Winner = true
	}
}
