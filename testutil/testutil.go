package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/civicballot/civicballot/auth"
	"github.com/civicballot/civicballot/cliparse"
	"github.com/civicballot/civicballot/db"
	"github.com/civicballot/civicballot/models"
)

// SetupTestDB creates a fresh SQLite database in a per-test temp dir with
// the full schema. WAL + busy_timeout keep concurrent admission tests honest:
// writers queue instead of erroring, and the UNIQUE constraints still decide.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "civicballot_test.db")
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// SQLite allows one writer at a time; cap the pool so concurrent test
	// goroutines queue on the pool instead of racing into SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:                  3419,
		DatabaseType:          "sqlite",
		JWTSecret:             "test-jwt-secret",
		SourceSalt:            "test-source-salt",
		DuplicateSourceLimit:  3,
		DuplicateSourceWindow: 10 * time.Minute,
		RapidRateFloor:        2 * time.Second,
	}
}

// WindowsForPhase returns registration/application/voting windows positioned
// around time.Now() so that the election is currently in the given phase.
func WindowsForPhase(phase string) (reg, app, vot models.TimeWindow) {
	now := time.Now()
	h := time.Hour
	switch phase {
	case models.PhaseScheduled:
		return window(now, h, 2*h), window(now, 2*h, 3*h), window(now, 3*h, 4*h)
	case models.PhaseRegistrationOpen:
		return window(now, -h, h), window(now, h, 2*h), window(now, 2*h, 3*h)
	case models.PhaseApplicationOpen:
		return window(now, -2*h, -h), window(now, -h, h), window(now, h, 2*h)
	case models.PhaseVotingOpen:
		return window(now, -3*h, -2*h), window(now, -2*h, -h), window(now, -h, h)
	case models.PhaseCompleted:
		return window(now, -4*h, -3*h), window(now, -3*h, -2*h), window(now, -2*h, -h)
	default:
		panic("testutil: no window layout for phase " + phase)
	}
}

func window(now time.Time, from, to time.Duration) models.TimeWindow {
	return models.TimeWindow{Start: now.Add(from), End: now.Add(to)}
}

// CreateTestElection inserts an election currently in the given phase and
// returns its ID.
func CreateTestElection(t *testing.T, conn *sql.DB, phase string) string {
	t.Helper()

	electionID := uuid.NewString()

	override := models.OverrideNone
	windowPhase := phase
	if phase == models.PhasePaused {
		windowPhase = models.PhaseVotingOpen
		override = models.OverridePaused
	}
	reg, app, vot := WindowsForPhase(windowPhase)

	_, err := conn.Exec(`
		INSERT INTO election (id, title, organization,
			registration_start, registration_end,
			application_start, application_end,
			voting_start, voting_end,
			override, created_at)
		VALUES ($1, 'Test Election', 'Test Org', $2, $3, $4, $5, $6, $7, $8, $9)
	`, electionID, reg.Start, reg.End, app.Start, app.End, vot.Start, vot.End, override, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return electionID
}

// AddTestPosition adds a position to an election and returns its ID.
func AddTestPosition(t *testing.T, conn *sql.DB, electionID, title string, seats int) string {
	t.Helper()

	positionID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO position (id, election_id, title, description, seats)
		VALUES ($1, $2, $3, 'A test position', $4)
	`, positionID, electionID, title, seats)
	if err != nil {
		t.Fatalf("Failed to create test position: %v", err)
	}

	return positionID
}

// RegisterTestVoter puts a voter on an election's roll.
func RegisterTestVoter(t *testing.T, conn *sql.DB, electionID, voterID, name string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO voter_roll (election_id, voter_id, display_name, verified, registered_at)
		VALUES ($1, $2, $3, TRUE, $4)
	`, electionID, voterID, name, time.Now())
	if err != nil {
		t.Fatalf("Failed to register test voter: %v", err)
	}
}

// AddTestCandidate inserts an approved candidate directly (bypassing the
// application workflow) and returns the candidate ID.
func AddTestCandidate(t *testing.T, conn *sql.DB, electionID, positionID, voterID, name string) string {
	t.Helper()

	candidateID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO candidate (id, election_id, position_id, voter_id, name, statement, created_at)
		VALUES ($1, $2, $3, $4, $5, 'Vote for me', $6)
	`, candidateID, electionID, positionID, voterID, name, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return candidateID
}

// CastTestVote inserts a vote directly into the ledger and returns its
// receipt code.
func CastTestVote(t *testing.T, conn *sql.DB, electionID, positionID, candidateID, voterID string) string {
	t.Helper()

	receipt, err := auth.GenerateReceiptCode()
	if err != nil {
		t.Fatalf("Failed to generate receipt: %v", err)
	}

	_, err = conn.Exec(`
		INSERT INTO vote (id, election_id, position_id, candidate_id, voter_id, receipt_code, source_hash, cast_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'testsource', $7)
	`, uuid.NewString(), electionID, positionID, candidateID, voterID, receipt, time.Now())
	if err != nil {
		t.Fatalf("Failed to cast test vote: %v", err)
	}

	return receipt
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AdminAuthHeader returns an Authorization header map for an admin token.
func AdminAuthHeader(t *testing.T, cfg cliparse.Config) map[string]string {
	t.Helper()

	token, err := auth.SignAdminToken("test-admin", "admin@test.local", cfg.JWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to sign admin token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// VoterAuthHeader returns an Authorization header map for a voter token.
func VoterAuthHeader(t *testing.T, cfg cliparse.Config, electionID, voterID string) map[string]string {
	t.Helper()

	token, err := auth.SignVoterToken(electionID, voterID, cfg.JWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to sign voter token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
