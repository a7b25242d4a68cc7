// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"votesecure/blockchain"
	"votesecure/cliparse"
	"votesecure/handlers"
	"votesecure/middleware"
	"votesecure/ws"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, stamper blockchain.Stamper, hub *ws.Hub) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	voteHandler := handlers.NewVoteHandler(db, cfg, stamper, hub)
	classHandler := handlers.NewClassHandler(db, cfg)
	studentHandler := handlers.NewStudentHandler(db, cfg)
	electionHandler := handlers.NewElectionHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg)

	authed := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAuth(cfg.AuthSecret, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Real-time updates
	mux.HandleFunc("GET /ws", hub.HandleWS)

	// Voting (public: kiosks submit without a teacher token)
	mux.HandleFunc("POST /api/votes/submit", middleware.WithLogging(voteHandler.Submit))
	mux.HandleFunc("GET /api/votes/queue", authed(voteHandler.GetQueue))
	mux.HandleFunc("POST /api/votes/retry-queue", authed(voteHandler.RetryQueue))

	// Class management
	mux.HandleFunc("GET /api/classes", authed(classHandler.List))
	mux.HandleFunc("POST /api/classes", authed(classHandler.Create))
	mux.HandleFunc("PUT /api/classes/{id}", authed(classHandler.Update))
	mux.HandleFunc("DELETE /api/classes/{id}", authed(classHandler.Delete))
	mux.HandleFunc("POST /api/classes/{id}/toggle-voting", authed(classHandler.ToggleVoting))

	// Student rosters
	mux.HandleFunc("GET /api/students/class/{classId}", authed(studentHandler.ListByClass))
	mux.HandleFunc("POST /api/students", authed(studentHandler.Create))
	mux.HandleFunc("POST /api/students/bulk", authed(studentHandler.BulkCreate))
	mux.HandleFunc("PUT /api/students/{id}", authed(studentHandler.Update))
	mux.HandleFunc("DELETE /api/students/{id}", authed(studentHandler.Delete))
	mux.HandleFunc("POST /api/students/{id}/verify-pin", middleware.WithLogging(studentHandler.VerifyPIN))
	mux.HandleFunc("POST /api/students/class/{classId}/reset-votes", authed(studentHandler.ResetVotes))

	// Elections, positions, candidates
	mux.HandleFunc("GET /api/elections", authed(electionHandler.List))
	mux.HandleFunc("POST /api/elections", authed(electionHandler.Create))
	mux.HandleFunc("GET /api/elections/{id}", authed(electionHandler.Get))
	mux.HandleFunc("PUT /api/elections/{id}", authed(electionHandler.Update))
	mux.HandleFunc("DELETE /api/elections/{id}", authed(electionHandler.Delete))
	mux.HandleFunc("POST /api/elections/{id}/positions", authed(electionHandler.AddPosition))
	mux.HandleFunc("PUT /api/positions/{id}", authed(electionHandler.UpdatePosition))
	mux.HandleFunc("DELETE /api/positions/{id}", authed(electionHandler.DeletePosition))
	mux.HandleFunc("POST /api/positions/{id}/candidates", authed(electionHandler.AddCandidate))
	mux.HandleFunc("PUT /api/candidates/{id}", authed(electionHandler.UpdateCandidate))
	mux.HandleFunc("DELETE /api/candidates/{id}", authed(electionHandler.DeleteCandidate))

	// Results
	mux.HandleFunc("GET /api/results/class/{classId}", authed(resultsHandler.ClassResults))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("votesecure API v1"))
	})

	return mux
}
