package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/civicballot/civicballot/engine"
	"github.com/civicballot/civicballot/models"
	"github.com/civicballot/civicballot/testutil"
)

// TestConcurrentVoteAdmission verifies that simultaneous cast attempts by
// the same voter through the HTTP layer admit exactly one ballot.
func TestConcurrentVoteAdmission(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	h := NewVotingHandler(engine.New(conn), cfg)

	electionID, positionID, candidateID := votingScenario(t, conn)
	headers := testutil.VoterAuthHeader(t, cfg, electionID, "voter1")

	attempts := 10
	var created, conflicted atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := testutil.MakeRequest("POST", "/elections/"+electionID+"/votes",
				models.CastVoteRequest{PositionID: positionID, CandidateID: candidateID}, headers)
			req.SetPathValue("id", electionID)
			w := httptest.NewRecorder()

			h.CastVote(w, req)

			switch w.Code {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				conflicted.Add(1)
			default:
				t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
			}
		}()
	}

	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("Expected exactly 1 admitted vote, got %d", created.Load())
	}
	if int(conflicted.Load()) != attempts-1 {
		t.Errorf("Expected %d conflicts, got %d", attempts-1, conflicted.Load())
	}

	var count int
	if err := conn.QueryRow("SELECT COUNT(*) FROM vote WHERE election_id = $1", electionID).Scan(&count); err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 vote in the ledger, got %d", count)
	}
}

// TestConcurrentDistinctVoters verifies that unrelated voters never block
// or conflict with each other.
func TestConcurrentDistinctVoters(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	h := NewVotingHandler(engine.New(conn), cfg)

	electionID, positionID, candidateID := votingScenario(t, conn)

	voters := 8
	headerSets := make([]map[string]string, voters)
	for i := 0; i < voters; i++ {
		voterID := "cv" + strconv.Itoa(i)
		testutil.RegisterTestVoter(t, conn, electionID, voterID, "Voter "+strconv.Itoa(i))
		headerSets[i] = testutil.VoterAuthHeader(t, cfg, electionID, voterID)
	}

	var created atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			req := testutil.MakeRequest("POST", "/elections/"+electionID+"/votes",
				models.CastVoteRequest{PositionID: positionID, CandidateID: candidateID}, headerSets[n])
			req.SetPathValue("id", electionID)
			w := httptest.NewRecorder()

			h.CastVote(w, req)

			if w.Code == http.StatusCreated {
				created.Add(1)
			} else {
				t.Errorf("Voter %d: unexpected status %d: %s", n, w.Code, w.Body.String())
			}
		}(i)
	}

	wg.Wait()

	if int(created.Load()) != voters {
		t.Errorf("Expected %d admitted votes, got %d", voters, created.Load())
	}

	var distinctReceipts int
	if err := conn.QueryRow("SELECT COUNT(DISTINCT receipt_code) FROM vote WHERE election_id = $1", electionID).Scan(&distinctReceipts); err != nil {
		t.Fatalf("Failed to count receipts: %v", err)
	}
	if distinctReceipts != voters {
		t.Errorf("Expected %d distinct receipts, got %d", voters, distinctReceipts)
	}
}

// TestConcurrentApplicationSubmissions verifies the one-live-application
// rule holds under racing submissions.
func TestConcurrentApplicationSubmissions(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	h := NewApplicationHandler(engine.New(conn), cfg)

	electionID, positionID := applicationScenario(t, conn)
	headers := testutil.VoterAuthHeader(t, cfg, electionID, "voter1")

	attempts := 6
	var created atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := testutil.MakeRequest("POST", "/elections/"+electionID+"/applications",
				models.SubmitApplicationRequest{PositionID: positionID, Statement: "pick me"}, headers)
			req.SetPathValue("id", electionID)
			w := httptest.NewRecorder()

			h.Submit(w, req)

			if w.Code == http.StatusCreated {
				created.Add(1)
			}
		}()
	}

	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("Expected exactly 1 accepted application, got %d", created.Load())
	}

	var count int
	if err := conn.QueryRow("SELECT COUNT(*) FROM application WHERE election_id = $1", electionID).Scan(&count); err != nil {
		t.Fatalf("Failed to count applications: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 application row, got %d", count)
	}
}
