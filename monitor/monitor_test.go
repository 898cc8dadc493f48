package monitor

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/civicballot/civicballot/models"
	"github.com/civicballot/civicballot/testutil"
)

func setupMonitor(t *testing.T) (*Monitor, *sql.DB, string) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	m := New(conn, testutil.GetTestConfig())
	electionID := testutil.CreateTestElection(t, conn, models.PhaseVotingOpen)
	return m, conn, electionID
}

func admission(electionID, voterID, sourceHash string, at time.Time) models.AdmissionEvent {
	return models.AdmissionEvent{
		ElectionID: electionID,
		VoteID:     "vote-" + voterID,
		VoterID:    voterID,
		SourceHash: sourceHash,
		CastAt:     at,
	}
}

func loadAlerts(t *testing.T, conn *sql.DB, electionID string) []models.Alert {
	t.Helper()
	rows, err := conn.Query(`
		SELECT alert_type, severity, voter_id, detail FROM alert
		WHERE election_id = $1 ORDER BY created_at, id
	`, electionID)
	if err != nil {
		t.Fatalf("Failed to query alerts: %v", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.Type, &a.Severity, &a.VoterID, &a.Detail); err != nil {
			t.Fatalf("Failed to scan alert: %v", err)
		}
		alerts = append(alerts, a)
	}
	return alerts
}

func TestDuplicateSourceDetection(t *testing.T) {
	m, conn, electionID := setupMonitor(t)
	ctx := context.Background()
	base := time.Now()

	// Threshold is 3 in the test config: two admissions stay quiet, the
	// third raises.
	m.observe(ctx, admission(electionID, "v1", "shared", base))
	m.observe(ctx, admission(electionID, "v2", "shared", base.Add(time.Minute)))
	if got := loadAlerts(t, conn, electionID); len(got) != 0 {
		t.Fatalf("expected no alerts below the threshold, got %d", len(got))
	}

	m.observe(ctx, admission(electionID, "v3", "shared", base.Add(2*time.Minute)))
	alerts := loadAlerts(t, conn, electionID)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert at the threshold, got %d", len(alerts))
	}
	if alerts[0].Type != models.AlertDuplicateSource {
		t.Errorf("alert type = %s, want %s", alerts[0].Type, models.AlertDuplicateSource)
	}
	if alerts[0].Severity != models.SeverityMedium {
		t.Errorf("severity = %s, want %s", alerts[0].Severity, models.SeverityMedium)
	}
}

func TestDuplicateSourceWindowExpiry(t *testing.T) {
	m, conn, electionID := setupMonitor(t)
	ctx := context.Background()
	base := time.Now()

	// Spread past the 10m window: the early admissions age out before the
	// count would reach the threshold.
	m.observe(ctx, admission(electionID, "v1", "shared", base))
	m.observe(ctx, admission(electionID, "v2", "shared", base.Add(time.Minute)))
	m.observe(ctx, admission(electionID, "v3", "shared", base.Add(15*time.Minute)))

	if got := loadAlerts(t, conn, electionID); len(got) != 0 {
		t.Errorf("expected no alerts for admissions spread beyond the window, got %d", len(got))
	}
}

func TestDuplicateSourceEscalation(t *testing.T) {
	m, conn, electionID := setupMonitor(t)
	ctx := context.Background()
	base := time.Now()

	// Six admissions from one source: one medium alert at 3, then one
	// high alert at 6. The intermediate counts stay deduplicated.
	for i := 0; i < 6; i++ {
		voter := "v" + string(rune('a'+i))
		m.observe(ctx, admission(electionID, voter, "shared", base.Add(time.Duration(i)*time.Minute)))
	}

	alerts := loadAlerts(t, conn, electionID)
	if len(alerts) != 2 {
		t.Fatalf("expected medium then high alert, got %d alerts", len(alerts))
	}
	if alerts[0].Severity != models.SeverityMedium || alerts[1].Severity != models.SeverityHigh {
		t.Errorf("severities = %s, %s, want medium, high", alerts[0].Severity, alerts[1].Severity)
	}
}

func TestRapidRateDetection(t *testing.T) {
	m, conn, electionID := setupMonitor(t)
	ctx := context.Background()
	base := time.Now()

	// Floor is 2s in the test config.
	m.observe(ctx, admission(electionID, "v1", "s1", base))
	m.observe(ctx, admission(electionID, "v1", "s2", base.Add(500*time.Millisecond)))

	alerts := loadAlerts(t, conn, electionID)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Type != models.AlertRapidRate {
		t.Errorf("alert type = %s, want %s", alerts[0].Type, models.AlertRapidRate)
	}
	if alerts[0].VoterID != "v1" {
		t.Errorf("alert voter = %s, want v1", alerts[0].VoterID)
	}
	if alerts[0].Severity != models.SeverityMedium {
		t.Errorf("severity = %s, want %s for a gap under half the floor", alerts[0].Severity, models.SeverityMedium)
	}
}

func TestRapidRateRespectsFloor(t *testing.T) {
	m, conn, electionID := setupMonitor(t)
	ctx := context.Background()
	base := time.Now()

	m.observe(ctx, admission(electionID, "v1", "s1", base))
	m.observe(ctx, admission(electionID, "v1", "s2", base.Add(5*time.Second)))

	if got := loadAlerts(t, conn, electionID); len(got) != 0 {
		t.Errorf("expected no alert for a gap above the floor, got %d", len(got))
	}
}

func TestRapidRateDistinctVotersIndependent(t *testing.T) {
	m, conn, electionID := setupMonitor(t)
	ctx := context.Background()
	base := time.Now()

	// Different voters arriving close together is normal traffic.
	m.observe(ctx, admission(electionID, "v1", "s1", base))
	m.observe(ctx, admission(electionID, "v2", "s2", base.Add(100*time.Millisecond)))

	if got := loadAlerts(t, conn, electionID); len(got) != 0 {
		t.Errorf("expected no alerts across distinct voters, got %d", len(got))
	}
}

func TestRunConsumesEvents(t *testing.T) {
	m, conn, electionID := setupMonitor(t)
	base := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	for i, voter := range []string{"v1", "v2", "v3"} {
		m.Events <- admission(electionID, voter, "shared", base.Add(time.Duration(i)*time.Second))
	}
	close(m.Events)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the events channel closed")
	}

	alerts := loadAlerts(t, conn, electionID)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert from the consumed stream, got %d", len(alerts))
	}
	if alerts[0].Type != models.AlertDuplicateSource {
		t.Errorf("alert type = %s, want %s", alerts[0].Type, models.AlertDuplicateSource)
	}
}
