// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the VoteSecure API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, stamper, hub)

# Endpoints

Health and real-time:

	GET /health
	GET /ws       - WebSocket endpoint (subscribe/unsubscribe/ping)

Voting:

	POST /api/votes/submit      - Submit a vote (public, kiosk devices)
	GET  /api/votes/queue       - Inspect pending queue entries
	POST /api/votes/retry-queue - Run a retry pass on demand

Class management (requires Bearer token):

	GET    /api/classes
	POST   /api/classes
	PUT    /api/classes/{id}
	DELETE /api/classes/{id}
	POST   /api/classes/{id}/toggle-voting

Student rosters (requires Bearer token except verify-pin):

	GET    /api/students/class/{classId}
	POST   /api/students
	POST   /api/students/bulk
	PUT    /api/students/{id}
	DELETE /api/students/{id}
	POST   /api/students/{id}/verify-pin  - Public, kiosk ballot gate
	POST   /api/students/class/{classId}/reset-votes

Elections (requires Bearer token):

	GET    /api/elections
	POST   /api/elections
	GET    /api/elections/{id}
	PUT    /api/elections/{id}
	DELETE /api/elections/{id}
	POST   /api/elections/{id}/positions
	PUT    /api/positions/{id}
	DELETE /api/positions/{id}
	POST   /api/positions/{id}/candidates
	PUT    /api/candidates/{id}
	DELETE /api/candidates/{id}

Results (requires Bearer token):

	GET /api/results/class/{classId}

# Handler Initialization

The router creates handler instances with dependency injection:

	voteHandler := handlers.NewVoteHandler(db, cfg, stamper, hub)
	classHandler := handlers.NewClassHandler(db, cfg)
	studentHandler := handlers.NewStudentHandler(db, cfg)
	electionHandler := handlers.NewElectionHandler(db, cfg)
	resultsHandler := handlers.NewResultsHandler(db, cfg)

All handlers receive the database connection and configuration; the vote
handler additionally takes the integrity stamper and the WebSocket hub.
*/
package router
