// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Open connects to the configured database. dbType is "sqlite" or
// "postgres"; url is a file path (sqlite) or connection string (postgres).
func Open(dbType, url string) (*sql.DB, error) {
	switch dbType {
	case "sqlite":
		dsn := url + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		conn, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		// SQLite allows a single writer; funneling all statements through
		// one connection avoids SQLITE_BUSY under concurrent handlers.
		conn.SetMaxOpenConns(1)
		return conn, nil
	case "postgres":
		conn, err := sql.Open("postgres", url)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("unknown database type %q", dbType)
	}
}

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// IsUniqueViolation reports whether err is a uniqueness-constraint failure
// from either supported driver. The constraint, not the handler pre-check,
// is the source of truth for duplicate detection.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

const schema = `
-- Teacher accounts (identity is established by the external auth service;
-- this table mirrors the fields the server needs for ownership checks)
CREATE TABLE IF NOT EXISTS teachers (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'teacher' CHECK (role IN ('admin', 'teacher')),
    created_at INTEGER NOT NULL
);

-- Classes
CREATE TABLE IF NOT EXISTS classes (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    grade TEXT NOT NULL,
    teacher_id TEXT NOT NULL REFERENCES teachers(id),
    voting_open INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

-- Students
CREATE TABLE IF NOT EXISTS students (
    id TEXT PRIMARY KEY,
    class_id TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    has_voted INTEGER NOT NULL DEFAULT 0,
    pin_hash TEXT,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_students_class ON students(class_id);

-- Elections
CREATE TABLE IF NOT EXISTS elections (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'active', 'closed')),
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Positions
CREATE TABLE IF NOT EXISTS positions (
    id TEXT PRIMARY KEY,
    election_id TEXT NOT NULL REFERENCES elections(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT 'single',
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_positions_election ON positions(election_id);

-- Candidates
CREATE TABLE IF NOT EXISTS candidates (
    id TEXT PRIMARY KEY,
    position_id TEXT NOT NULL REFERENCES positions(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    photo_url TEXT,
    profile TEXT,
    manifesto TEXT,
    motto TEXT,
    class_id TEXT,
    approved INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_candidates_position ON candidates(position_id);

-- Committed votes. The composite UNIQUE constraint enforces at most one
-- vote per student per position per class, even under concurrent submission.
CREATE TABLE IF NOT EXISTS votes (
    id TEXT PRIMARY KEY,
    class_id TEXT NOT NULL REFERENCES classes(id),
    student_id TEXT NOT NULL REFERENCES students(id),
    position_id TEXT NOT NULL REFERENCES positions(id),
    candidate_id TEXT NOT NULL REFERENCES candidates(id),
    timestamp INTEGER NOT NULL,
    transaction_hash TEXT,
    block_number INTEGER,
    ranked_order INTEGER,
    created_at INTEGER NOT NULL,
    UNIQUE (student_id, position_id, class_id)
);

CREATE INDEX IF NOT EXISTS idx_votes_class ON votes(class_id);
CREATE INDEX IF NOT EXISTS idx_votes_student ON votes(student_id);
CREATE INDEX IF NOT EXISTS idx_votes_position ON votes(position_id);

-- Pending votes awaiting retry
CREATE TABLE IF NOT EXISTS vote_queue (
    id TEXT PRIMARY KEY,
    class_id TEXT NOT NULL,
    student_id TEXT NOT NULL,
    position_id TEXT NOT NULL,
    candidate_id TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    retry_count INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'failed')),
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_vote_queue_status ON vote_queue(status, created_at);
`
