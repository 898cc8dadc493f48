package router

import (
	"net/http"

	"github.com/civicballot/civicballot/cliparse"
	"github.com/civicballot/civicballot/engine"
	"github.com/civicballot/civicballot/handlers"
	"github.com/civicballot/civicballot/middleware"
)

func NewRouter(eng *engine.Engine, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	adminHandler := handlers.NewAdminHandler(eng, cfg)
	electionHandler := handlers.NewElectionHandler(eng, cfg)
	applicationHandler := handlers.NewApplicationHandler(eng, cfg)
	votingHandler := handlers.NewVotingHandler(eng, cfg)
	resultsHandler := handlers.NewResultsHandler(eng, cfg)
	alertHandler := handlers.NewAlertHandler(eng, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Administrator session
	mux.HandleFunc("POST /admin/login", middleware.WithLogging(adminHandler.Login))

	// Election management (admin operations)
	mux.HandleFunc("POST /elections", middleware.WithLogging(electionHandler.CreateElection))
	mux.HandleFunc("PUT /elections/{id}/windows", middleware.WithLogging(electionHandler.UpdateWindows))
	mux.HandleFunc("POST /elections/{id}/override", middleware.WithLogging(electionHandler.SetOverride))
	mux.HandleFunc("GET /elections/{id}/applications", middleware.WithLogging(applicationHandler.List))
	mux.HandleFunc("POST /applications/{id}/approve", middleware.WithLogging(applicationHandler.Approve))
	mux.HandleFunc("POST /applications/{id}/reject", middleware.WithLogging(applicationHandler.Reject))
	mux.HandleFunc("GET /elections/{id}/alerts", middleware.WithLogging(alertHandler.List))
	mux.HandleFunc("POST /alerts/{id}/resolve", middleware.WithLogging(alertHandler.Resolve))
	mux.HandleFunc("GET /elections/{id}/turnout", middleware.WithLogging(resultsHandler.GetTurnout))

	// Voter operations
	mux.HandleFunc("POST /elections/{id}/register", middleware.WithLogging(votingHandler.Register))
	mux.HandleFunc("POST /elections/{id}/applications", middleware.WithLogging(applicationHandler.Submit))
	mux.HandleFunc("POST /elections/{id}/votes", middleware.WithLogging(votingHandler.CastVote))

	// Public retrieval (results sealed until completion)
	mux.HandleFunc("GET /elections", middleware.WithLogging(electionHandler.ListElections))
	mux.HandleFunc("GET /elections/{id}", middleware.WithLogging(electionHandler.GetElection))
	mux.HandleFunc("GET /elections/{id}/candidates", middleware.WithLogging(applicationHandler.Candidates))
	mux.HandleFunc("GET /elections/{id}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /receipts/{code}", middleware.WithLogging(resultsHandler.VerifyReceipt))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("civicballot API v1"))
	})

	return mux
}
