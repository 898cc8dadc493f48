/*
Package engine implements the election lifecycle and vote integrity core.

# Components

  - Phase: pure derivation of an election's lifecycle phase from its time
    windows, the administrative override, and an explicit clock
  - Election config: creation with window validation, window updates (frozen
    once voting begins), override changes
  - Voter roll: registration during the registration window; the roll is the
    eligibility check and the turnout denominator
  - Candidacy workflow: submit → pending → approved (creates a candidate) or
    rejected (terminal, but permits a fresh submission)
  - Voting ledger: atomic one-ballot-per-voter-per-position admission with a
    verifiable receipt code
  - Tally: per-position counts, percentages, competition ranking, winner
    flags, and election turnout, always from a consistent ledger read
  - Receipt verification: case-insensitive exact lookup that never reveals
    the selection
  - Alerts: listing and one-shot resolution of advisory anomaly alerts

# Admission Atomicity

Double admission is the one correctness-critical race. A check-then-insert
pattern is unsafe: two concurrent callers can both read "not yet voted"
before either writes. The engine therefore makes the INSERT itself the
check: the schema's UNIQUE constraints reject the loser, which surfaces as
AlreadyVoted (votes) or DuplicateApplication (applications). The same shape
protects review actions: terminal transitions are conditional UPDATEs that
match zero rows when repeated.

# Errors

Every failure is an *Error carrying a Kind from the fixed taxonomy
(PhaseViolation, DuplicateApplication, AlreadyVoted, InvalidCandidate,
InvalidTransition, NotFound, Validation, StorageUnavailable). Only
StorageUnavailable is safely retryable, and retry policy belongs to the
caller. Use KindOf to branch:

	vote, err := eng.CastVote(ctx, voter, election, position, candidate, src, time.Now())
	if engine.KindOf(err) == engine.KindAlreadyVoted {
		// tell the voter, don't retry
	}

# Clock Discipline

Every phase-gated operation takes now as a parameter instead of reading the
wall clock, so tests can drive an election through its whole timeline
deterministically.
*/
package engine
