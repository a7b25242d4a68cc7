// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and response helpers.

# Middleware

  - WithLogging: logs request start/completion with duration via slog
  - RequireAuth: validates the Authorization bearer token and stores the
    account claims in the request context
  - CORS: allows cross-origin requests from the configured frontend origin

# Helpers

  - JSONResponse: writes a JSON body with a status code
  - ErrorResponse: writes the standard {error, message} envelope
  - ParseJSONBody: decodes a JSON request body
  - ClaimsFrom: reads the claims stored by RequireAuth

# Usage

	mux.HandleFunc("POST /votes/submit",
		middleware.WithLogging(
			middleware.RequireAuth(cfg.AuthSecret, voteHandler.Submit)))
*/
package middleware
