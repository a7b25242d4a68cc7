// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the VoteSecure API server.

VoteSecure runs school classroom elections: teachers manage class rosters
and ballots, students vote from kiosk devices, and every committed vote
carries a keccak256 integrity stamp. Votes that cannot be committed are
queued and retried rather than dropped.

# Starting the Server

The server reads configuration from a .env file, environment variables, or
CLI flags:

	AUTH_SECRET=... go run main.go

Or with flags:

	go run main.go -p 3001 -t sqlite -d data/voting.db -auth-secret ...

# Configuration

Required settings:

  - AUTH_SECRET (-auth-secret): Secret for verifying bearer tokens

Optional settings:

  - PORT (-p): Server port (default: 3001)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): File path or connection string (default: data/voting.db)
  - FRONTEND_URL (-origin): Allowed CORS/WebSocket origin (default: http://localhost:8080)
  - RETRY_INTERVAL (-retry-interval): Seconds between background queue
    retry passes; 0 leaves retries operator-triggered (default: 0)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (votes, classes, students, elections, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: Auth, CORS, logging, JSON helpers
  - models: Request/response types
  - auth: Token validation and PIN hashing
  - blockchain: Vote integrity stamping
  - ws: Class-scoped WebSocket fan-out
  - db: Connection setup and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
