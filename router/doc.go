/*
Package router defines HTTP routes for the civicballot API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(eng, cfg)

# Endpoints

Health:

	GET /health

Administrator session:

	POST /admin/login - Exchange email/password for a token

Election management (admin, requires admin Bearer token):

	POST /elections                    - Create election with positions
	PUT  /elections/{id}/windows       - Reschedule phase windows
	POST /elections/{id}/override      - Pause, complete, or archive
	GET  /elections/{id}/applications  - Review queue
	POST /applications/{id}/approve    - Approve, creating a candidate
	POST /applications/{id}/reject     - Reject with a reason
	GET  /elections/{id}/alerts        - Anomaly alerts
	POST /alerts/{id}/resolve          - Acknowledge an alert
	GET  /elections/{id}/turnout       - Participation figures

Voter operations (voter Bearer token, except registration):

	POST /elections/{id}/register      - Join the roll, get a voter token
	POST /elections/{id}/applications  - Apply for a position
	POST /elections/{id}/votes         - Cast a ballot, get a receipt

Public retrieval:

	GET /elections                 - All elections
	GET /elections/{id}            - Election, positions, current phase
	GET /elections/{id}/candidates - Approved candidates
	GET /elections/{id}/results    - Tally (sealed until completed)
	GET /receipts/{code}           - Verify a vote receipt

# Handler Initialization

The router creates handler instances with dependency injection:

	electionHandler := handlers.NewElectionHandler(eng, cfg)
	votingHandler := handlers.NewVotingHandler(eng, cfg)

All handlers receive the engine and configuration.
*/
package router
