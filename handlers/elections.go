// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"votesecure/cliparse"
	"votesecure/middleware"
	"votesecure/models"
)

type ElectionHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewElectionHandler(db *sql.DB, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{db: db, cfg: cfg}
}

// List handles GET /elections - elections with nested positions and candidates
func (h *ElectionHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT id, name, COALESCE(description, ''), start_date, end_date, status
		FROM elections
		ORDER BY created_at DESC
	`)
	if err != nil {
		slog.Error("failed to query elections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	elections := make([]models.Election, 0)
	for rows.Next() {
		var e models.Election
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.StartDate, &e.EndDate, &e.Status); err != nil {
			slog.Error("failed to scan election", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		elections = append(elections, e)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to read elections", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	for i := range elections {
		positions, err := h.loadPositions(elections[i].ID, false)
		if err != nil {
			slog.Error("failed to load positions", "error", err, "election_id", elections[i].ID)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		elections[i].Positions = positions
	}

	middleware.JSONResponse(w, http.StatusOK, models.ElectionsResponse{Elections: elections})
}

// Get handles GET /elections/{id}. This is the ballot view: candidates
// still awaiting approval are filtered out.
func (h *ElectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")

	var e models.Election
	err := h.db.QueryRow(`
		SELECT id, name, COALESCE(description, ''), start_date, end_date, status
		FROM elections WHERE id = $1
	`, electionID).Scan(&e.ID, &e.Name, &e.Description, &e.StartDate, &e.EndDate, &e.Status)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	positions, err := h.loadPositions(e.ID, true)
	if err != nil {
		slog.Error("failed to load positions", "error", err, "election_id", e.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	e.Positions = positions

	middleware.JSONResponse(w, http.StatusOK, e)
}

// Create handles POST /elections
func (h *ElectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	status := req.Status
	if status == "" {
		status = models.ElectionDraft
	}

	id := uuid.NewString()
	now := time.Now().Unix()
	_, err := h.db.Exec(`
		INSERT INTO elections (id, name, description, start_date, end_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, id, req.Name, req.Description, req.StartDate, req.EndDate, status, now)
	if err != nil {
		slog.Error("failed to insert election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create election")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.Election{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      status,
		Positions:   []models.Position{},
	})
}

// Update handles PUT /elections/{id}
func (h *ElectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")

	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	res, err := h.db.Exec(`
		UPDATE elections
		SET name = $1, description = $2, start_date = $3, end_date = $4, status = $5, updated_at = $6
		WHERE id = $7
	`, req.Name, req.Description, req.StartDate, req.EndDate, req.Status, time.Now().Unix(), electionID)
	if err != nil {
		slog.Error("failed to update election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update election")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Election updated"})
}

// Delete handles DELETE /elections/{id}
func (h *ElectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")

	if _, err := h.db.Exec(`DELETE FROM elections WHERE id = $1`, electionID); err != nil {
		slog.Error("failed to delete election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete election")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Election deleted"})
}

// AddPosition handles POST /elections/{id}/positions
func (h *ElectionHandler) AddPosition(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")

	var req models.AddPositionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}

	posType := req.Type
	if posType == "" {
		posType = models.PositionSingle
	}

	var exists bool
	if err := h.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM elections WHERE id = $1)`, electionID).Scan(&exists); err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return
	}

	id := uuid.NewString()
	_, err := h.db.Exec(`
		INSERT INTO positions (id, election_id, title, type, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id, electionID, req.Title, posType, time.Now().Unix())
	if err != nil {
		slog.Error("failed to insert position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add position")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.Position{
		ID:         id,
		ElectionID: electionID,
		Title:      req.Title,
		Type:       posType,
		Candidates: []models.Candidate{},
	})
}

// UpdatePosition handles PUT /positions/{id}
func (h *ElectionHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	positionID := r.PathValue("id")

	var req models.AddPositionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	res, err := h.db.Exec(`UPDATE positions SET title = $1, type = $2 WHERE id = $3`,
		req.Title, req.Type, positionID)
	if err != nil {
		slog.Error("failed to update position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update position")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Position not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Position updated"})
}

// DeletePosition handles DELETE /positions/{id}
func (h *ElectionHandler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	positionID := r.PathValue("id")

	if _, err := h.db.Exec(`DELETE FROM positions WHERE id = $1`, positionID); err != nil {
		slog.Error("failed to delete position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete position")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Position deleted"})
}

// AddCandidate handles POST /positions/{id}/candidates. Admin submissions
// are live immediately; teacher submissions wait for approval.
func (h *ElectionHandler) AddCandidate(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	positionID := r.PathValue("id")

	var req models.AddCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	var exists bool
	if err := h.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM positions WHERE id = $1)`, positionID).Scan(&exists); err != nil {
		slog.Error("failed to query position", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Position not found")
		return
	}

	// Stored as 0/1 so the same statement works on both drivers
	approved := claims.IsAdmin()
	approvedInt := 0
	if approved {
		approvedInt = 1
	}

	id := uuid.NewString()
	_, err := h.db.Exec(`
		INSERT INTO candidates (id, position_id, name, photo_url, profile, manifesto, motto, class_id, approved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, id, positionID, req.Name, req.PhotoURL, req.Profile, req.Manifesto, req.Motto, req.ClassID,
		approvedInt, time.Now().Unix())
	if err != nil {
		slog.Error("failed to insert candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add candidate")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.Candidate{
		ID:         id,
		PositionID: positionID,
		Name:       req.Name,
		PhotoURL:   req.PhotoURL,
		Profile:    req.Profile,
		Manifesto:  req.Manifesto,
		Motto:      req.Motto,
		ClassID:    req.ClassID,
		Approved:   approved,
	})
}

// UpdateCandidate handles PUT /candidates/{id}. Only admins may change the
// approval flag.
func (h *ElectionHandler) UpdateCandidate(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	candidateID := r.PathValue("id")

	var req models.UpdateCandidateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Approved != nil && !claims.IsAdmin() {
		middleware.ErrorResponse(w, http.StatusForbidden, "Only admins can approve candidates")
		return
	}

	var approved *int
	if req.Approved != nil {
		v := 0
		if *req.Approved {
			v = 1
		}
		approved = &v
	}

	res, err := h.db.Exec(`
		UPDATE candidates
		SET name = $1, photo_url = $2, profile = $3, manifesto = $4, motto = $5,
		    class_id = CASE WHEN $6 = '' THEN class_id ELSE $6 END,
		    approved = COALESCE($7, approved)
		WHERE id = $8
	`, req.Name, req.PhotoURL, req.Profile, req.Manifesto, req.Motto, req.ClassID, approved, candidateID)
	if err != nil {
		slog.Error("failed to update candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update candidate")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Candidate not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Candidate updated"})
}

// DeleteCandidate handles DELETE /candidates/{id}
func (h *ElectionHandler) DeleteCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID := r.PathValue("id")

	if _, err := h.db.Exec(`DELETE FROM candidates WHERE id = $1`, candidateID); err != nil {
		slog.Error("failed to delete candidate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete candidate")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Candidate deleted"})
}

func (h *ElectionHandler) loadPositions(electionID string, approvedOnly bool) ([]models.Position, error) {
	rows, err := h.db.Query(`
		SELECT id, election_id, title, type FROM positions
		WHERE election_id = $1
		ORDER BY created_at
	`, electionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	positions := make([]models.Position, 0)
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.ID, &p.ElectionID, &p.Title, &p.Type); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range positions {
		candidates, err := h.loadCandidates(positions[i].ID, approvedOnly)
		if err != nil {
			return nil, err
		}
		positions[i].Candidates = candidates
	}
	return positions, nil
}

func (h *ElectionHandler) loadCandidates(positionID string, approvedOnly bool) ([]models.Candidate, error) {
	query := `
		SELECT id, position_id, name, COALESCE(photo_url, ''), COALESCE(profile, ''),
		       COALESCE(manifesto, ''), COALESCE(motto, ''), COALESCE(class_id, ''), approved
		FROM candidates
		WHERE position_id = $1
	`
	if approvedOnly {
		query += ` AND approved = 1`
	}
	query += ` ORDER BY name`

	rows, err := h.db.Query(query, positionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]models.Candidate, 0)
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.PositionID, &c.Name, &c.PhotoURL, &c.Profile,
			&c.Manifesto, &c.Motto, &c.ClassID, &c.Approved); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}
