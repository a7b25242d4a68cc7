// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections and schema creation.

# Opening a Connection

Open selects the driver from the configured type:

	conn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)

"sqlite" opens a modernc.org/sqlite file with WAL, busy_timeout and foreign
keys enabled and a single writer connection; "postgres" opens lib/pq.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

  - teachers: account mirror with explicit role (admin or teacher)
  - classes: class metadata and voting-open flag
  - students: roster with has_voted completion flag and optional PIN hash
  - elections: election lifecycle (draft → active → closed)
  - positions: ballot positions per election
  - candidates: candidates per position with approval flag
  - votes: committed ballots with integrity stamps
  - vote_queue: pending votes awaiting retry

# Invariants

votes carries UNIQUE (student_id, position_id, class_id): at most one
committed vote per student per position per class. Handlers treat a
uniqueness failure on insert as an authoritative duplicate signal;
IsUniqueViolation recognizes the error for both drivers.
*/
package db
