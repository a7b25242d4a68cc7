// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"votesecure/blockchain"
	"votesecure/db"
	"votesecure/models"
)

const (
	// retryBatchSize bounds one drain pass
	retryBatchSize = 50
	// maxRetries is the attempt ceiling per queue entry
	maxRetries = 5
)

// ProcessVoteQueue drains up to one batch of pending queue entries, oldest
// first. Each entry is handled independently:
//
//   - stamp succeeds: the vote is committed with the entry's original
//     timestamp and the entry is deleted
//   - stamp reports failure: retry_count is incremented, entry stays pending
//   - stamp errors: retry_count is incremented; on the 5th failed attempt
//     the entry transitions to the terminal "failed" status
//
// Safe to run concurrently with submissions and with itself: a duplicate
// promotion loses to the votes uniqueness constraint and resolves as
// already-committed.
func ProcessVoteQueue(dbc *sql.DB, stamper blockchain.Stamper) ([]models.RetryOutcome, error) {
	rows, err := dbc.Query(`
		SELECT id, class_id, student_id, position_id, candidate_id, timestamp, retry_count, created_at
		FROM vote_queue
		WHERE status = 'pending' AND retry_count < $1
		ORDER BY created_at ASC
		LIMIT $2
	`, maxRetries, retryBatchSize)
	if err != nil {
		return nil, err
	}

	var batch []models.PendingVote
	for rows.Next() {
		var pv models.PendingVote
		if err := rows.Scan(&pv.ID, &pv.ClassID, &pv.StudentID, &pv.PositionID, &pv.CandidateID,
			&pv.Timestamp, &pv.RetryCount, &pv.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		batch = append(batch, pv)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	results := make([]models.RetryOutcome, 0, len(batch))
	if len(batch) == 0 {
		return results, nil
	}

	slog.Info("draining vote queue",
		"batch", len(batch),
		"oldest", humanize.Time(time.Unix(batch[0].CreatedAt, 0)),
	)

	for _, entry := range batch {
		results = append(results, retryEntry(dbc, stamper, entry))
	}

	return results, nil
}

func retryEntry(dbc *sql.DB, stamper blockchain.Stamper, entry models.PendingVote) models.RetryOutcome {
	// Re-stamp with the original timestamp - the vote time is when the
	// student cast it, not when the retry happened to succeed.
	stamp, err := stamper.RecordVote(context.Background(), entry.ClassID, entry.StudentID,
		entry.PositionID, entry.CandidateID, entry.Timestamp)

	if err != nil {
		return markAttemptError(dbc, entry, err)
	}

	if !stamp.Success {
		if _, uerr := dbc.Exec(`
			UPDATE vote_queue SET retry_count = retry_count + 1 WHERE id = $1
		`, entry.ID); uerr != nil {
			slog.Error("failed to bump retry count", "error", uerr, "queue_id", entry.ID)
		}
		return models.RetryOutcome{ID: entry.ID, Status: "failed", Retry: true}
	}

	voteID := uuid.NewString()
	_, err = dbc.Exec(`
		INSERT INTO votes (id, class_id, student_id, position_id, candidate_id, timestamp, transaction_hash, block_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, voteID, entry.ClassID, entry.StudentID, entry.PositionID, entry.CandidateID,
		entry.Timestamp, stamp.TransactionHash, stamp.BlockNumber, time.Now().Unix())

	if err != nil && !db.IsUniqueViolation(err) {
		return markAttemptError(dbc, entry, err)
	}
	// A uniqueness violation means the vote is already durably committed
	// (double drain, or a client resubmission that succeeded); dropping the
	// entry is the correct dedup.

	if _, derr := dbc.Exec(`DELETE FROM vote_queue WHERE id = $1`, entry.ID); derr != nil {
		slog.Error("failed to delete promoted queue entry", "error", derr, "queue_id", entry.ID)
	}

	if cerr := recomputeCompletion(dbc, entry.StudentID, entry.ClassID); cerr != nil {
		slog.Warn("failed to recompute completion", "error", cerr, "student_id", entry.StudentID)
	}

	slog.Info("queued vote promoted", "queue_id", entry.ID, "vote_id", voteID)
	return models.RetryOutcome{ID: entry.ID, Status: "success"}
}

// markAttemptError records a failed attempt and retires the entry once it
// has burned all its retries.
func markAttemptError(dbc *sql.DB, entry models.PendingVote, cause error) models.RetryOutcome {
	_, err := dbc.Exec(`
		UPDATE vote_queue
		SET retry_count = retry_count + 1,
		    status = CASE WHEN retry_count >= $1 THEN 'failed' ELSE status END
		WHERE id = $2
	`, maxRetries-1, entry.ID)
	if err != nil {
		slog.Error("failed to record retry error", "error", err, "queue_id", entry.ID)
	}

	if entry.RetryCount >= maxRetries-1 {
		slog.Warn("queue entry exhausted retries", "queue_id", entry.ID, "student_id", entry.StudentID)
	}

	return models.RetryOutcome{ID: entry.ID, Status: "error", Error: cause.Error()}
}

// StartRetryLoop drains the queue on a fixed interval until ctx is
// cancelled. Used when the server is configured with a retry interval;
// otherwise drains are operator-triggered via POST /votes/retry-queue.
func StartRetryLoop(ctx context.Context, dbc *sql.DB, stamper blockchain.Stamper, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := ProcessVoteQueue(dbc, stamper); err != nil {
				slog.Error("scheduled queue drain failed", "error", err)
			}
		}
	}
}
