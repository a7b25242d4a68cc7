// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"votesecure/models"
	"votesecure/testutil"
)

// enqueueTestVote inserts a vote_queue row directly, bypassing the handler
func enqueueTestVote(t *testing.T, db *sql.DB, f *voteFixture, retryCount int, createdAt int64) string {
	t.Helper()

	id := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO vote_queue (id, class_id, student_id, position_id, candidate_id, timestamp, retry_count, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8)
	`, id, f.classID, f.studentID, f.positionID, f.candidateID, createdAt, retryCount, createdAt)
	if err != nil {
		t.Fatalf("Failed to enqueue test vote: %v", err)
	}
	return id
}

func TestProcessVoteQueueEmpty(t *testing.T) {
	f := setupVoteFixture(t)

	results, err := ProcessVoteQueue(f.db, &testutil.StaticStamper{})
	if err != nil {
		t.Fatalf("ProcessVoteQueue failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no outcomes for empty queue, got %d", len(results))
	}
}

func TestProcessVoteQueuePromotes(t *testing.T) {
	f := setupVoteFixture(t)

	captured := time.Now().Unix() - 600
	queueID := enqueueTestVote(t, f.db, f, 0, captured)

	results, err := ProcessVoteQueue(f.db, &testutil.StaticStamper{Hash: "0xdef", Block: 7})
	if err != nil {
		t.Fatalf("ProcessVoteQueue failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("Expected 1 outcome, got %d", len(results))
	}
	if results[0].ID != queueID || results[0].Status != "success" {
		t.Errorf("Unexpected outcome: %+v", results[0])
	}

	// The promoted vote keeps its original capture timestamp
	var ts int64
	var hash string
	err = f.db.QueryRow(`
		SELECT timestamp, transaction_hash FROM votes WHERE student_id = $1 AND position_id = $2
	`, f.studentID, f.positionID).Scan(&ts, &hash)
	if err != nil {
		t.Fatalf("Promoted vote not found: %v", err)
	}
	if ts != captured {
		t.Errorf("Expected original timestamp %d, got %d", captured, ts)
	}
	if hash != "0xdef" {
		t.Errorf("Expected re-stamped hash 0xdef, got %s", hash)
	}

	if n := testutil.CountQueueEntries(t, f.db, "pending"); n != 0 {
		t.Errorf("Promoted entry still in queue")
	}
}

func TestProcessVoteQueueStampFailureStaysPending(t *testing.T) {
	f := setupVoteFixture(t)
	queueID := enqueueTestVote(t, f.db, f, 0, time.Now().Unix())

	results, err := ProcessVoteQueue(f.db, testutil.FailStamper{})
	if err != nil {
		t.Fatalf("ProcessVoteQueue failed: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("Expected 1 outcome, got %d", len(results))
	}
	if results[0].Status != "failed" || !results[0].Retry {
		t.Errorf("Expected failed/retry outcome, got %+v", results[0])
	}

	var retryCount int
	var status string
	if err := f.db.QueryRow(`SELECT retry_count, status FROM vote_queue WHERE id = $1`, queueID).Scan(&retryCount, &status); err != nil {
		t.Fatalf("Queue entry missing: %v", err)
	}
	if retryCount != 1 {
		t.Errorf("Expected retry_count 1, got %d", retryCount)
	}
	if status != models.QueuePending {
		t.Errorf("Expected entry to stay pending, got %s", status)
	}
	if n := testutil.CountVotes(t, f.db, f.classID); n != 0 {
		t.Errorf("Failed stamp committed a vote")
	}
}

func TestProcessVoteQueueStampError(t *testing.T) {
	f := setupVoteFixture(t)
	queueID := enqueueTestVote(t, f.db, f, 0, time.Now().Unix())

	results, err := ProcessVoteQueue(f.db, testutil.ErrStamper{})
	if err != nil {
		t.Fatalf("ProcessVoteQueue failed: %v", err)
	}

	if len(results) != 1 || results[0].Status != "error" {
		t.Fatalf("Expected an error outcome, got %+v", results)
	}
	if results[0].Error == "" {
		t.Error("Expected the cause in the outcome")
	}

	var retryCount int
	if err := f.db.QueryRow(`SELECT retry_count FROM vote_queue WHERE id = $1`, queueID).Scan(&retryCount); err != nil {
		t.Fatalf("Queue entry missing: %v", err)
	}
	if retryCount != 1 {
		t.Errorf("Expected retry_count 1, got %d", retryCount)
	}
}

func TestProcessVoteQueueExhaustsRetries(t *testing.T) {
	f := setupVoteFixture(t)
	queueID := enqueueTestVote(t, f.db, f, 0, time.Now().Unix())

	// Five erroring passes burn the retry budget
	for i := 0; i < maxRetries; i++ {
		if _, err := ProcessVoteQueue(f.db, testutil.ErrStamper{}); err != nil {
			t.Fatalf("Pass %d failed: %v", i+1, err)
		}
	}

	var retryCount int
	var status string
	if err := f.db.QueryRow(`SELECT retry_count, status FROM vote_queue WHERE id = $1`, queueID).Scan(&retryCount, &status); err != nil {
		t.Fatalf("Queue entry missing: %v", err)
	}
	if retryCount != maxRetries {
		t.Errorf("Expected retry_count %d, got %d", maxRetries, retryCount)
	}
	if status != models.QueueFailed {
		t.Errorf("Expected terminal failed status, got %s", status)
	}

	// A terminal entry is never selected again
	results, err := ProcessVoteQueue(f.db, &testutil.StaticStamper{})
	if err != nil {
		t.Fatalf("ProcessVoteQueue failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Failed entry was re-selected: %+v", results)
	}
}

func TestProcessVoteQueueDuplicateResolvesAsCommitted(t *testing.T) {
	f := setupVoteFixture(t)

	// The vote already landed through the normal path
	w := f.submit(t, models.SubmitVoteRequest{
		ClassID: f.classID, StudentID: f.studentID, PositionID: f.positionID, CandidateID: f.candidateID,
	})
	testutil.AssertStatus(t, w, 200)

	// A stale queue entry for the same tuple
	enqueueTestVote(t, f.db, f, 1, time.Now().Unix())

	results, err := ProcessVoteQueue(f.db, &testutil.StaticStamper{})
	if err != nil {
		t.Fatalf("ProcessVoteQueue failed: %v", err)
	}
	if len(results) != 1 || results[0].Status != "success" {
		t.Fatalf("Expected dedup to resolve as success, got %+v", results)
	}

	if n := testutil.CountVotes(t, f.db, f.classID); n != 1 {
		t.Errorf("Expected exactly 1 vote after dedup, got %d", n)
	}
	if n := testutil.CountQueueEntries(t, f.db, "pending"); n != 0 {
		t.Errorf("Stale entry survived dedup")
	}
}

func TestProcessVoteQueueOldestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	teacherID, _ := testutil.CreateTestTeacher(t, db, cfg, "teacher")
	classID := testutil.CreateTestClass(t, db, teacherID)
	electionID := testutil.CreateTestElection(t, db, "active")
	candidateID := testutil.CreateTestCandidate(t, db,
		testutil.CreateTestPosition(t, db, electionID, "President"), "Bob")

	base := time.Now().Unix() - 1000
	var wantOrder []string
	for i := 0; i < 3; i++ {
		studentID := testutil.CreateTestStudent(t, db, classID, "Student")
		var positionID string
		if err := db.QueryRow(`SELECT position_id FROM candidates WHERE id = $1`, candidateID).Scan(&positionID); err != nil {
			t.Fatalf("Failed to read candidate: %v", err)
		}
		id := uuid.NewString()
		if _, err := db.Exec(`
			INSERT INTO vote_queue (id, class_id, student_id, position_id, candidate_id, timestamp, retry_count, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, 0, 'pending', $7)
		`, id, classID, studentID, positionID, candidateID, base+int64(i), base+int64(i)); err != nil {
			t.Fatalf("Failed to enqueue: %v", err)
		}
		wantOrder = append(wantOrder, id)
	}

	results, err := ProcessVoteQueue(db, &testutil.StaticStamper{})
	if err != nil {
		t.Fatalf("ProcessVoteQueue failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 outcomes, got %d", len(results))
	}
	for i, want := range wantOrder {
		if results[i].ID != want {
			t.Errorf("Outcome %d: expected %s, got %s", i, want, results[i].ID)
		}
	}
}

func TestProcessVoteQueueRecomputesCompletion(t *testing.T) {
	f := setupVoteFixture(t)
	enqueueTestVote(t, f.db, f, 0, time.Now().Unix())

	if _, err := ProcessVoteQueue(f.db, &testutil.StaticStamper{}); err != nil {
		t.Fatalf("ProcessVoteQueue failed: %v", err)
	}

	// One active position, now voted: the flag comes up via the retry path
	var hasVoted bool
	if err := f.db.QueryRow(`SELECT has_voted FROM students WHERE id = $1`, f.studentID).Scan(&hasVoted); err != nil {
		t.Fatalf("Failed to read student: %v", err)
	}
	if !hasVoted {
		t.Error("Completion flag not raised by queue promotion")
	}
}
