package engine

import (
	"database/sql"
	"log/slog"

	"github.com/civicballot/civicballot/models"
)

// Engine is the election lifecycle and vote integrity core. All invariants
// (phase gating, one-ballot-per-voter, review state machine) are enforced
// here; HTTP handlers only translate requests and responses.
type Engine struct {
	db *sql.DB

	// Admissions receives an event for every successfully admitted vote.
	// Sends are non-blocking: a full or absent channel never delays or
	// fails an admission.
	Admissions chan<- models.AdmissionEvent
}

func New(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// emitAdmission publishes a successful admission to the anomaly monitor
// without ever blocking the caller.
func (e *Engine) emitAdmission(ev models.AdmissionEvent) {
	if e.Admissions == nil {
		return
	}
	select {
	case e.Admissions <- ev:
	default:
		slog.Warn("admission event dropped, monitor channel full",
			"election_id", ev.ElectionID,
			"vote_id", ev.VoteID,
		)
	}
}
