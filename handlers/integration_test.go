package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/civicballot/civicballot/auth"
	"github.com/civicballot/civicballot/engine"
	"github.com/civicballot/civicballot/models"
	"github.com/civicballot/civicballot/testutil"
)

// TestFullElectionLifecycle drives one election end to end through the
// handlers: login, creation, registration, candidacy, review, voting,
// receipt verification, and results. Phases advance by rescheduling the
// windows and finally by the completed override, since the handlers read
// the real clock.
func TestFullElectionLifecycle(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	eng := engine.New(conn)

	hash, err := auth.HashPassword("integration-pass")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	if err := eng.SeedAdmin(context.Background(), "admin@example.org", hash, time.Now()); err != nil {
		t.Fatalf("Failed to seed admin: %v", err)
	}

	adminHandler := NewAdminHandler(eng, cfg)
	electionHandler := NewElectionHandler(eng, cfg)
	applicationHandler := NewApplicationHandler(eng, cfg)
	votingHandler := NewVotingHandler(eng, cfg)
	resultsHandler := NewResultsHandler(eng, cfg)

	// Step 1: administrator logs in
	w := httptest.NewRecorder()
	adminHandler.Login(w, testutil.MakeRequest("POST", "/admin/login", models.AdminLoginRequest{
		Email:    "admin@example.org",
		Password: "integration-pass",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var login models.AdminLoginResponse
	testutil.AssertJSON(t, w, &login)
	adminHeaders := map[string]string{"Authorization": "Bearer " + login.Token}

	// Step 2: create an election with registration currently open
	reg, app, vot := testutil.WindowsForPhase(models.PhaseRegistrationOpen)
	w = httptest.NewRecorder()
	electionHandler.CreateElection(w, testutil.MakeRequest("POST", "/elections", models.CreateElectionRequest{
		Title:        "Integration Election",
		Organization: "Example Org",
		Registration: reg,
		Application:  app,
		Voting:       vot,
		Positions:    []models.CreatePositionRequest{{Title: "President", Seats: 1}},
	}, adminHeaders))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var created models.CreateElectionResponse
	testutil.AssertJSON(t, w, &created)
	electionID := created.ElectionID
	positionID := created.Positions[0]

	// Step 3: two voters register
	voterHeaders := make(map[string]map[string]string)
	for _, voterID := range []string{"alice", "bob"} {
		req := testutil.MakeRequest("POST", "/elections/"+electionID+"/register",
			models.RegisterVoterRequest{VoterID: voterID, DisplayName: voterID}, nil)
		req.SetPathValue("id", electionID)
		w = httptest.NewRecorder()
		votingHandler.Register(w, req)
		testutil.AssertStatus(t, w, http.StatusCreated)

		var registered models.RegisterVoterResponse
		testutil.AssertJSON(t, w, &registered)
		voterHeaders[voterID] = map[string]string{"Authorization": "Bearer " + registered.VoterToken}
	}

	// Step 4: move the election into its application window
	reg, app, vot = testutil.WindowsForPhase(models.PhaseApplicationOpen)
	req := testutil.MakeRequest("PUT", "/elections/"+electionID+"/windows",
		models.UpdateWindowsRequest{Registration: reg, Application: app, Voting: vot}, adminHeaders)
	req.SetPathValue("id", electionID)
	w = httptest.NewRecorder()
	electionHandler.UpdateWindows(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	// Step 5: alice applies and is approved
	req = testutil.MakeRequest("POST", "/elections/"+electionID+"/applications",
		models.SubmitApplicationRequest{PositionID: positionID, Statement: "For a better campus"},
		voterHeaders["alice"])
	req.SetPathValue("id", electionID)
	w = httptest.NewRecorder()
	applicationHandler.Submit(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var submitted models.SubmitApplicationResponse
	testutil.AssertJSON(t, w, &submitted)

	req = testutil.MakeRequest("POST", "/applications/"+submitted.ApplicationID+"/approve", nil, adminHeaders)
	req.SetPathValue("id", submitted.ApplicationID)
	w = httptest.NewRecorder()
	applicationHandler.Approve(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var candidate models.Candidate
	testutil.AssertJSON(t, w, &candidate)

	// Step 6: open voting
	reg, app, vot = testutil.WindowsForPhase(models.PhaseVotingOpen)
	req = testutil.MakeRequest("PUT", "/elections/"+electionID+"/windows",
		models.UpdateWindowsRequest{Registration: reg, Application: app, Voting: vot}, adminHeaders)
	req.SetPathValue("id", electionID)
	w = httptest.NewRecorder()
	electionHandler.UpdateWindows(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	// Step 7: bob votes and gets a receipt
	req = testutil.MakeRequest("POST", "/elections/"+electionID+"/votes",
		models.CastVoteRequest{PositionID: positionID, CandidateID: candidate.ID},
		voterHeaders["bob"])
	req.SetPathValue("id", electionID)
	w = httptest.NewRecorder()
	votingHandler.CastVote(w, req)
	testutil.AssertStatus(t, w, http.StatusCreated)

	var cast models.CastVoteResponse
	testutil.AssertJSON(t, w, &cast)

	// Step 8: the receipt verifies without exposing the selection
	req = testutil.MakeRequest("GET", "/receipts/"+cast.Receipt, nil, nil)
	req.SetPathValue("code", cast.Receipt)
	w = httptest.NewRecorder()
	resultsHandler.VerifyReceipt(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var verified models.VerifyReceiptResponse
	testutil.AssertJSON(t, w, &verified)
	if !verified.Found {
		t.Fatal("Receipt should verify after admission")
	}
	if verified.ElectionTitle != "Integration Election" {
		t.Errorf("Receipt election title = %q", verified.ElectionTitle)
	}

	// Step 9: results stay sealed while voting is open
	req = testutil.MakeRequest("GET", "/elections/"+electionID+"/results", nil, nil)
	req.SetPathValue("id", electionID)
	w = httptest.NewRecorder()
	resultsHandler.GetResults(w, req)
	testutil.AssertStatus(t, w, http.StatusForbidden)

	// Step 10: complete the election by override and read the results
	req = testutil.MakeRequest("POST", "/elections/"+electionID+"/override",
		models.SetOverrideRequest{Override: models.OverrideCompleted}, adminHeaders)
	req.SetPathValue("id", electionID)
	w = httptest.NewRecorder()
	electionHandler.SetOverride(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	req = testutil.MakeRequest("GET", "/elections/"+electionID+"/results", nil, nil)
	req.SetPathValue("id", electionID)
	w = httptest.NewRecorder()
	resultsHandler.GetResults(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var results []models.PositionResult
	testutil.AssertJSON(t, w, &results)
	if len(results) != 1 {
		t.Fatalf("Expected 1 position result, got %d", len(results))
	}
	if results[0].TotalVotes != 1 {
		t.Errorf("Total votes = %d, want 1", results[0].TotalVotes)
	}
	if len(results[0].Candidates) != 1 || !results[0].Candidates[0].Winner {
		t.Error("Expected the sole candidate to be the winner")
	}

	// Step 11: turnout counts bob's ballot against both registrants
	req = testutil.MakeRequest("GET", "/elections/"+electionID+"/turnout", nil, adminHeaders)
	req.SetPathValue("id", electionID)
	w = httptest.NewRecorder()
	resultsHandler.GetTurnout(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var turnout models.TurnoutResult
	testutil.AssertJSON(t, w, &turnout)
	if turnout.Voted != 1 || turnout.Eligible != 2 {
		t.Errorf("Turnout = %d/%d, want 1/2", turnout.Voted, turnout.Eligible)
	}
}
