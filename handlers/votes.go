// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"votesecure/blockchain"
	"votesecure/cliparse"
	"votesecure/db"
	"votesecure/middleware"
	"votesecure/models"
)

// Notifier is the fan-out contract the pipeline depends on. Delivery is
// best-effort; implementations must not block.
type Notifier interface {
	BroadcastToClass(classID string, message interface{})
}

type VoteHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	stamper  blockchain.Stamper
	notifier Notifier
}

func NewVoteHandler(db *sql.DB, cfg cliparse.Config, stamper blockchain.Stamper, notifier Notifier) *VoteHandler {
	return &VoteHandler{db: db, cfg: cfg, stamper: stamper, notifier: notifier}
}

// Submit handles POST /votes/submit.
//
// Validation failures (unknown student, duplicate vote) are hard rejections
// and never enqueue anything. Once validation passes, the vote must end up
// either committed or in the retry queue - it is never dropped.
func (h *VoteHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.ClassID == "" || req.StudentID == "" || req.PositionID == "" || req.CandidateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "classId, studentId, positionId and candidateId are required")
		return
	}

	// Student must exist in the class
	var studentID string
	err := h.db.QueryRow(`
		SELECT id FROM students WHERE id = $1 AND class_id = $2
	`, req.StudentID, req.ClassID).Scan(&studentID)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Student not found")
		return
	}
	if err != nil {
		slog.Error("failed to query student", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Early duplicate check. The UNIQUE constraint on votes is the source
	// of truth; this read only short-circuits the common case.
	var alreadyVoted bool
	err = h.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM votes
			WHERE student_id = $1 AND position_id = $2 AND class_id = $3
		)
	`, req.StudentID, req.PositionID, req.ClassID).Scan(&alreadyVoted)

	if err != nil {
		slog.Error("failed to check existing vote", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if alreadyVoted {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Already voted for this position")
		return
	}

	// The server clock is the authoritative vote time
	timestamp := time.Now().Unix()

	stamp, err := h.stamper.RecordVote(r.Context(), req.ClassID, req.StudentID, req.PositionID, req.CandidateID, timestamp)
	if err != nil || !stamp.Success {
		if err != nil {
			slog.Error("integrity stamp failed", "error", err, "student_id", req.StudentID, "position_id", req.PositionID)
		} else {
			slog.Warn("integrity stamp unsuccessful", "student_id", req.StudentID, "position_id", req.PositionID)
		}
		h.enqueue(w, req, timestamp)
		return
	}

	voteID := uuid.NewString()
	_, err = h.db.Exec(`
		INSERT INTO votes (id, class_id, student_id, position_id, candidate_id, timestamp, transaction_hash, block_number, ranked_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, voteID, req.ClassID, req.StudentID, req.PositionID, req.CandidateID, timestamp,
		stamp.TransactionHash, stamp.BlockNumber, req.RankedOrder, time.Now().Unix())

	if err != nil {
		if db.IsUniqueViolation(err) {
			// A concurrent submission won the race
			middleware.ErrorResponse(w, http.StatusBadRequest, "Already voted for this position")
			return
		}
		slog.Error("failed to insert vote", "error", err, "student_id", req.StudentID)
		h.enqueue(w, req, timestamp)
		return
	}

	// Derived flag: the committed vote above is durable regardless of
	// whether this recomputation succeeds.
	if err := recomputeCompletion(h.db, req.StudentID, req.ClassID); err != nil {
		slog.Warn("failed to recompute completion", "error", err, "student_id", req.StudentID)
	}

	h.notifier.BroadcastToClass(req.ClassID, map[string]interface{}{
		"type": "vote_submitted",
		"payload": map[string]interface{}{
			"studentId":   req.StudentID,
			"positionId":  req.PositionID,
			"candidateId": req.CandidateID,
			"timestamp":   timestamp,
		},
	})

	slog.Info("vote committed", "vote_id", voteID, "class_id", req.ClassID, "position_id", req.PositionID)

	middleware.JSONResponse(w, http.StatusOK, models.SubmitVoteResponse{
		Success:         true,
		VoteID:          voteID,
		TransactionHash: stamp.TransactionHash,
		BlockNumber:     stamp.BlockNumber,
	})
}

// enqueue parks a validated vote in the retry queue and reports the soft
// failure to the caller.
func (h *VoteHandler) enqueue(w http.ResponseWriter, req models.SubmitVoteRequest, timestamp int64) {
	queueID := uuid.NewString()
	_, err := h.db.Exec(`
		INSERT INTO vote_queue (id, class_id, student_id, position_id, candidate_id, timestamp, retry_count, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, 'pending', $7)
	`, queueID, req.ClassID, req.StudentID, req.PositionID, req.CandidateID, timestamp, time.Now().Unix())

	if err != nil {
		slog.Error("failed to enqueue vote", "error", err, "student_id", req.StudentID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to submit vote")
		return
	}

	slog.Info("vote queued for retry", "queue_id", queueID, "class_id", req.ClassID, "student_id", req.StudentID)

	middleware.JSONResponse(w, http.StatusInternalServerError, models.QueuedVoteResponse{
		Error:   "Failed to submit vote, queued for retry",
		Queued:  true,
		QueueID: queueID,
	})
}

// GetQueue handles GET /votes/queue - operator visibility into pending
// entries, oldest first. Read-only.
func (h *VoteHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT id, class_id, student_id, position_id, candidate_id, timestamp, retry_count, status, created_at
		FROM vote_queue
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT 100
	`)
	if err != nil {
		slog.Error("failed to query vote queue", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	queue := make([]models.PendingVote, 0)
	for rows.Next() {
		var pv models.PendingVote
		if err := rows.Scan(&pv.ID, &pv.ClassID, &pv.StudentID, &pv.PositionID, &pv.CandidateID,
			&pv.Timestamp, &pv.RetryCount, &pv.Status, &pv.CreatedAt); err != nil {
			slog.Error("failed to scan queue entry", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		queue = append(queue, pv)
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoteQueueResponse{Queue: queue})
}

// RetryQueue handles POST /votes/retry-queue - an operator-triggered drain
// of the pending queue.
func (h *VoteHandler) RetryQueue(w http.ResponseWriter, r *http.Request) {
	results, err := ProcessVoteQueue(h.db, h.stamper)
	if err != nil {
		slog.Error("queue drain failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to process queue")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.RetryQueueResponse{
		Processed: len(results),
		Results:   results,
	})
}

// recomputeCompletion sets students.has_voted once the student holds a
// committed vote for every position under a currently active election.
// Idempotent and monotonic: this path never clears the flag.
func recomputeCompletion(dbc *sql.DB, studentID, classID string) error {
	var totalPositions int
	err := dbc.QueryRow(`
		SELECT COUNT(*) FROM positions p
		JOIN elections e ON p.election_id = e.id
		WHERE e.status = 'active'
	`).Scan(&totalPositions)
	if err != nil {
		return err
	}

	var votedPositions int
	err = dbc.QueryRow(`
		SELECT COUNT(DISTINCT position_id) FROM votes
		WHERE student_id = $1 AND class_id = $2
	`, studentID, classID).Scan(&votedPositions)
	if err != nil {
		return err
	}

	if totalPositions > 0 && votedPositions >= totalPositions {
		_, err = dbc.Exec(`UPDATE students SET has_voted = 1 WHERE id = $1`, studentID)
		return err
	}
	return nil
}
