// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3001)
  - DatabaseURL: SQLite file path or PostgreSQL connection string
  - DatabaseType: "sqlite" (default) or "postgres"
  - AuthSecret: Secret for bearer-token validation (required)
  - FrontendURL: Allowed CORS origin
  - RetryInterval: Background queue drain interval in seconds (0 disables)

# CLI Flags

	-p              Server port
	-d              Database URL or file path
	-t              Database type
	-origin         Allowed CORS origin
	-retry-interval Queue retry interval in seconds
	-auth-secret    Token signing secret

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	FRONTEND_URL   → -origin
	RETRY_INTERVAL → -retry-interval
	AUTH_SECRET    → -auth-secret

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if AUTH_SECRET is missing or a numeric env
variable does not parse.
*/
package cliparse
