// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"votesecure/cliparse"
	"votesecure/middleware"
	"votesecure/models"
)

type ResultsHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewResultsHandler(db *sql.DB, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{db: db, cfg: cfg}
}

// ClassResults handles GET /results/class/{classId} - per-position tallies
// for the committed votes of one class. Queued votes are not counted until
// the retry worker promotes them.
func (h *ResultsHandler) ClassResults(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	classID := r.PathValue("classId")

	ok, err := ownsClass(h.db, claims, classID)
	if err != nil {
		slog.Error("failed to check class ownership", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Class not found")
		return
	}

	rows, err := h.db.Query(`
		SELECT p.id, p.title, p.type, e.name,
		       c.id, c.name,
		       COUNT(v.id), COUNT(DISTINCT v.student_id)
		FROM votes v
		JOIN candidates c ON c.id = v.candidate_id
		JOIN positions p ON p.id = v.position_id
		JOIN elections e ON e.id = p.election_id
		WHERE v.class_id = $1
		GROUP BY p.id, p.title, p.type, e.name, c.id, c.name
		ORDER BY p.title, COUNT(v.id) DESC
	`, classID)
	if err != nil {
		slog.Error("failed to query results", "error", err, "class_id", classID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	results := make(map[string]models.PositionResult)
	for rows.Next() {
		var pos models.PositionSummary
		var tally models.CandidateTally
		if err := rows.Scan(&pos.ID, &pos.Title, &pos.Type, &pos.ElectionName,
			&tally.CandidateID, &tally.CandidateName, &tally.VoteCount, &tally.UniqueVoters); err != nil {
			slog.Error("failed to scan result row", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}

		entry, ok := results[pos.ID]
		if !ok {
			entry = models.PositionResult{Position: pos, Candidates: []models.CandidateTally{}}
		}
		entry.Candidates = append(entry.Candidates, tally)
		entry.TotalVotes += tally.VoteCount
		results[pos.ID] = entry
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read result rows", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ClassResultsResponse{Results: results})
}
