// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the VoteSecure API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - VoteHandler: Vote submission, queue inspection, queue retry
  - ClassHandler: Class roster lifecycle and voting-window toggle
  - StudentHandler: Student CRUD, bulk import, PIN verification, vote reset
  - ElectionHandler: Election, position, and candidate management
  - ResultsHandler: Per-class tally retrieval

Handlers are created via constructor functions that accept *sql.DB and Config:

	voteHandler := handlers.NewVoteHandler(db, cfg, stamper, hub)

# Vote Submission

POST /api/votes/submit runs the full pipeline:

 1. Validate the payload (classId, studentId, positionId, candidateId).
 2. Record the vote with the integrity stamper (keccak256 tuple hash).
 3. Insert the vote row; a unique-constraint hit means the student already
    voted for that position and the request is rejected.
 4. Recompute the student's completion flag.
 5. Broadcast vote_submitted to the class's WebSocket subscribers.

If the stamper or the insert fails for infrastructure reasons the vote is
parked in vote_queue instead of being dropped, and the client gets a 500
with queued:true and the queue entry id.

# Queue Retry

The retry path lives in retry.go:

	results, err := ProcessVoteQueue(db, stamper)

It drains up to 50 pending entries oldest-first, re-stamps each with its
original capture timestamp, and either promotes the entry to votes, leaves
it pending with a bumped retry_count, or marks it failed after the fifth
attempt. POST /api/votes/retry-queue triggers a pass on demand;
StartRetryLoop runs one on a timer when RETRY_INTERVAL is set.

# Authorization

Most routes sit behind middleware.RequireAuth and read the account claims
with middleware.ClaimsFrom. Admins manage every class; teachers only the
classes whose teacher_id matches their token. PIN verification and vote
submission are public so kiosk devices can reach them without a token.
*/
package handlers
