package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/civicballot/civicballot/auth"
	"github.com/civicballot/civicballot/models"
	"github.com/civicballot/civicballot/testutil"
)

func votingFixture(t *testing.T) (eng *Engine, electionID, positionID, candidateID string) {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	eng = New(conn)

	electionID = testutil.CreateTestElection(t, conn, models.PhaseVotingOpen)
	positionID = testutil.AddTestPosition(t, conn, electionID, "President", 1)
	testutil.RegisterTestVoter(t, conn, electionID, "applicant", "The Candidate")
	candidateID = testutil.AddTestCandidate(t, conn, electionID, positionID, "applicant", "The Candidate")
	return eng, electionID, positionID, candidateID
}

func registerVoters(t *testing.T, eng *Engine, electionID string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		testutil.RegisterTestVoter(t, eng.db, electionID, id, "Voter "+id)
	}
}

func TestCastVote(t *testing.T) {
	eng, electionID, positionID, candidateID := votingFixture(t)
	registerVoters(t, eng, electionID, "voter1")

	vote, err := eng.CastVote(context.Background(), "voter1", electionID, positionID, candidateID, "src1", time.Now())
	if err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}

	if len(vote.ReceiptCode) < 12 {
		t.Errorf("receipt code length = %d, want >= 12", len(vote.ReceiptCode))
	}
	if vote.ReceiptCode != auth.NormalizeReceipt(vote.ReceiptCode) {
		t.Error("receipt code should be stored in normalized form")
	}

	// The receipt is immediately verifiable
	resp, err := eng.VerifyReceipt(context.Background(), vote.ReceiptCode)
	if err != nil {
		t.Fatalf("VerifyReceipt() error = %v", err)
	}
	if !resp.Found {
		t.Error("receipt from a successful CastVote must verify")
	}
}

func TestCastVoteSecondAttemptFails(t *testing.T) {
	eng, electionID, positionID, candidateID := votingFixture(t)
	registerVoters(t, eng, electionID, "voter1")

	if _, err := eng.CastVote(context.Background(), "voter1", electionID, positionID, candidateID, "src1", time.Now()); err != nil {
		t.Fatalf("first CastVote() error = %v", err)
	}

	_, err := eng.CastVote(context.Background(), "voter1", electionID, positionID, candidateID, "src1", time.Now())
	if KindOf(err) != KindAlreadyVoted {
		t.Errorf("expected AlreadyVoted, got %v", err)
	}
}

func TestCastVotePhaseGating(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	eng := New(conn)
	now := time.Now()

	for _, phase := range []string{
		models.PhaseScheduled,
		models.PhaseRegistrationOpen,
		models.PhaseApplicationOpen,
		models.PhaseCompleted,
		models.PhasePaused,
	} {
		t.Run(phase, func(t *testing.T) {
			electionID := testutil.CreateTestElection(t, conn, phase)
			positionID := testutil.AddTestPosition(t, conn, electionID, "President", 1)
			testutil.RegisterTestVoter(t, conn, electionID, "applicant", "The Candidate")
			candidateID := testutil.AddTestCandidate(t, conn, electionID, positionID, "applicant", "The Candidate")
			testutil.RegisterTestVoter(t, conn, electionID, "voter1", "Voter One")

			_, err := eng.CastVote(context.Background(), "voter1", electionID, positionID, candidateID, "src", now)
			if KindOf(err) != KindPhaseViolation {
				t.Errorf("phase %s: expected PhaseViolation, got %v", phase, err)
			}
		})
	}
}

func TestCastVoteInvalidCandidate(t *testing.T) {
	eng, electionID, positionID, _ := votingFixture(t)
	registerVoters(t, eng, electionID, "voter1")
	now := time.Now()

	t.Run("unknown candidate", func(t *testing.T) {
		_, err := eng.CastVote(context.Background(), "voter1", electionID, positionID, "missing", "src", now)
		if KindOf(err) != KindInvalidCandidate {
			t.Errorf("expected InvalidCandidate, got %v", err)
		}
	})

	t.Run("candidate from another position", func(t *testing.T) {
		otherPosition := testutil.AddTestPosition(t, eng.db, electionID, "Treasurer", 1)
		testutil.RegisterTestVoter(t, eng.db, electionID, "applicant2", "Other Candidate")
		otherCandidate := testutil.AddTestCandidate(t, eng.db, electionID, otherPosition, "applicant2", "Other Candidate")

		_, err := eng.CastVote(context.Background(), "voter1", electionID, positionID, otherCandidate, "src", now)
		if KindOf(err) != KindInvalidCandidate {
			t.Errorf("expected InvalidCandidate, got %v", err)
		}
	})
}

func TestCastVoteUnregisteredVoter(t *testing.T) {
	eng, electionID, positionID, candidateID := votingFixture(t)

	_, err := eng.CastVote(context.Background(), "ghost", electionID, positionID, candidateID, "src", time.Now())
	if KindOf(err) != KindValidation {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

// TestConcurrentCastVoteSameVoter drives N goroutines at the same
// (election, position, voter) triple. Exactly one must be admitted; every
// other attempt must observe AlreadyVoted.
func TestConcurrentCastVoteSameVoter(t *testing.T) {
	eng, electionID, positionID, candidateID := votingFixture(t)
	registerVoters(t, eng, electionID, "racer")

	const attempts = 10

	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.CastVote(context.Background(), "racer", electionID, positionID, candidateID, "same-src", time.Now())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, alreadyVoted, other int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case KindOf(err) == KindAlreadyVoted:
			alreadyVoted++
		default:
			other++
			t.Errorf("unexpected error: %v", err)
		}
	}

	if successes != 1 {
		t.Errorf("expected exactly 1 admitted vote, got %d", successes)
	}
	if alreadyVoted != attempts-1 {
		t.Errorf("expected %d AlreadyVoted, got %d", attempts-1, alreadyVoted)
	}
	if other != 0 {
		t.Errorf("got %d unexpected errors", other)
	}

	var count int
	if err := eng.db.QueryRow(`
		SELECT COUNT(*) FROM vote WHERE election_id = $1 AND position_id = $2 AND voter_id = $3
	`, electionID, positionID, "racer").Scan(&count); err != nil {
		t.Fatalf("count votes: %v", err)
	}
	if count != 1 {
		t.Errorf("ledger contains %d votes for the triple, want 1", count)
	}
}

// TestConcurrentCastVoteDistinctVoters: all distinct voters succeed.
func TestConcurrentCastVoteDistinctVoters(t *testing.T) {
	eng, electionID, positionID, candidateID := votingFixture(t)

	const voters = 8
	ids := make([]string, voters)
	for i := range ids {
		ids[i] = "voter" + string(rune('A'+i))
	}
	registerVoters(t, eng, electionID, ids...)

	var wg sync.WaitGroup
	errs := make(chan error, voters)
	for _, id := range ids {
		wg.Add(1)
		go func(voterID string) {
			defer wg.Done()
			_, err := eng.CastVote(context.Background(), voterID, electionID, positionID, candidateID, voterID+"-src", time.Now())
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("distinct voter admission failed: %v", err)
		}
	}

	var count int
	if err := eng.db.QueryRow(`SELECT COUNT(*) FROM vote WHERE election_id = $1`, electionID).Scan(&count); err != nil {
		t.Fatalf("count votes: %v", err)
	}
	if count != voters {
		t.Errorf("ledger contains %d votes, want %d", count, voters)
	}
}

func TestCastVoteEmitsAdmissionEvent(t *testing.T) {
	eng, electionID, positionID, candidateID := votingFixture(t)
	registerVoters(t, eng, electionID, "voter1")

	events := make(chan models.AdmissionEvent, 1)
	eng.Admissions = events

	vote, err := eng.CastVote(context.Background(), "voter1", electionID, positionID, candidateID, "src1", time.Now())
	if err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}

	select {
	case ev := <-events:
		if ev.VoteID != vote.ID || ev.VoterID != "voter1" || ev.SourceHash != "src1" {
			t.Errorf("unexpected admission event: %+v", ev)
		}
	default:
		t.Error("expected an admission event")
	}
}

func TestCastVoteNeverBlocksOnFullMonitor(t *testing.T) {
	eng, electionID, positionID, candidateID := votingFixture(t)
	registerVoters(t, eng, electionID, "v1", "v2")

	// Unbuffered channel with no reader: the send must be dropped,
	// not block the admission.
	eng.Admissions = make(chan models.AdmissionEvent)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := eng.CastVote(context.Background(), "v1", electionID, positionID, candidateID, "s", time.Now()); err != nil {
			t.Errorf("CastVote() error = %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("CastVote blocked on a full monitor channel")
	}
}
