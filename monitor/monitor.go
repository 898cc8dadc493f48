package monitor

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/civicballot/civicballot/cliparse"
	"github.com/civicballot/civicballot/models"
)

// eventBuffer is the capacity of the admission channel. Senders drop
// rather than block when the monitor falls this far behind.
const eventBuffer = 256

// severityRank orders severities so an alert is only re-raised when it
// escalates.
var severityRank = map[string]int{
	models.SeverityLow:    1,
	models.SeverityMedium: 2,
	models.SeverityHigh:   3,
}

// Monitor watches the stream of admitted votes for suspicious patterns and
// records advisory alerts. It observes admissions after the fact and has no
// ability to block or reverse them.
type Monitor struct {
	db *sql.DB

	dupLimit  int
	dupWindow time.Duration
	rateFloor time.Duration

	// Events receives one AdmissionEvent per admitted vote.
	Events chan models.AdmissionEvent

	// Per-source admission timestamps inside the sliding window,
	// keyed by election|source.
	sources map[string][]time.Time

	// Most recent admission per voter, keyed by election|voter.
	lastSeen map[string]time.Time

	// Highest severity already raised per election|type|subject, so the
	// same pattern is alerted once until it escalates.
	raised map[string]string
}

func New(conn *sql.DB, cfg cliparse.Config) *Monitor {
	return &Monitor{
		db:        conn,
		dupLimit:  cfg.DuplicateSourceLimit,
		dupWindow: cfg.DuplicateSourceWindow,
		rateFloor: cfg.RapidRateFloor,
		Events:    make(chan models.AdmissionEvent, eventBuffer),
		sources:   make(map[string][]time.Time),
		lastSeen:  make(map[string]time.Time),
		raised:    make(map[string]string),
	}
}

// Run consumes admission events until the context is cancelled or the
// events channel is closed. All state is owned by this goroutine, so no
// locking is needed.
func (m *Monitor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-m.Events:
			if !ok {
				return
			}
			m.observe(ctx, ev)
		}
	}
}

func (m *Monitor) observe(ctx context.Context, ev models.AdmissionEvent) {
	m.checkDuplicateSource(ctx, ev)
	m.checkRapidRate(ctx, ev)
}

// checkDuplicateSource flags a source identifier admitting votes for
// distinct voters at a volume suggesting shared or scripted access.
func (m *Monitor) checkDuplicateSource(ctx context.Context, ev models.AdmissionEvent) {
	if ev.SourceHash == "" {
		return
	}

	key := ev.ElectionID + "|" + ev.SourceHash
	cutoff := ev.CastAt.Add(-m.dupWindow)

	recent := m.sources[key][:0]
	for _, at := range m.sources[key] {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}
	recent = append(recent, ev.CastAt)
	m.sources[key] = recent

	n := len(recent)
	if n < m.dupLimit {
		return
	}

	severity := models.SeverityMedium
	if n >= 2*m.dupLimit {
		severity = models.SeverityHigh
	}
	detail := fmt.Sprintf("source %s admitted %d votes within %s", ev.SourceHash, n, m.dupWindow)
	m.raise(ctx, ev, models.AlertDuplicateSource, ev.SourceHash, severity, detail)
}

// checkRapidRate flags a single voter acting faster than a human
// plausibly could.
func (m *Monitor) checkRapidRate(ctx context.Context, ev models.AdmissionEvent) {
	key := ev.ElectionID + "|" + ev.VoterID
	prev, seen := m.lastSeen[key]
	m.lastSeen[key] = ev.CastAt
	if !seen {
		return
	}

	gap := ev.CastAt.Sub(prev)
	if gap < 0 || gap >= m.rateFloor {
		return
	}

	severity := models.SeverityLow
	if gap < m.rateFloor/2 {
		severity = models.SeverityMedium
	}
	detail := fmt.Sprintf("voter acted %s after their previous admission (floor %s)", gap, m.rateFloor)
	m.raise(ctx, ev, models.AlertRapidRate, ev.VoterID, severity, detail)
}

// raise inserts an alert unless one of equal or higher severity is already
// open for the same pattern.
func (m *Monitor) raise(ctx context.Context, ev models.AdmissionEvent, alertType, subject, severity, detail string) {
	key := ev.ElectionID + "|" + alertType + "|" + subject
	if severityRank[m.raised[key]] >= severityRank[severity] {
		return
	}
	m.raised[key] = severity

	_, err := m.db.ExecContext(ctx, `
		INSERT INTO alert (id, election_id, alert_type, severity, voter_id, vote_id, detail, resolved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)
	`, uuid.NewString(), ev.ElectionID, alertType, severity, ev.VoterID, ev.VoteID, detail, ev.CastAt)
	if err != nil {
		slog.Error("Failed to record alert", "type", alertType, "election_id", ev.ElectionID, "error", err)
		return
	}

	slog.Warn("Anomaly detected",
		"type", alertType,
		"severity", severity,
		"election_id", ev.ElectionID,
		"detail", detail)
}
