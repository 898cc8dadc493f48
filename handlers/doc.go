/*
Package handlers contains HTTP request handlers for the civicballot API.

# Handler Types

Each handler is a struct with engine and config dependencies:

  - AdminHandler: administrator login
  - ElectionHandler: election definitions, windows, overrides
  - ApplicationHandler: candidacy applications and review
  - VotingHandler: voter registration and ballot admission
  - ResultsHandler: tallies, turnout, and receipt verification
  - AlertHandler: anomaly alert listing and resolution

Handlers are created via constructor functions that accept *engine.Engine
and Config:

	electionHandler := handlers.NewElectionHandler(eng, cfg)

# Authentication

Administrators log in with email and password and receive a JWT:

	POST /admin/login → {token}

Voters register during the registration window and receive an
election-scoped JWT:

	POST /elections/{id}/register → {voter_token}

Both travel as Authorization: Bearer headers. A voter token is only
accepted for the election it was issued against.

# Error Mapping

Handlers never branch on storage errors directly. Engine errors carry a
Kind which writeEngineError maps onto HTTP status codes: phase and review
conflicts and duplicate admissions become 409, invalid input 400, missing
resources 404, storage failures 503.

# Sealed Results

GET /elections/{id}/results returns 403 until the election reaches the
completed or archived phase. An admin token lifts the seal for live
monitoring during voting.
*/
package handlers
