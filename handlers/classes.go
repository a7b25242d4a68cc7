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

type ClassHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewClassHandler(db *sql.DB, cfg cliparse.Config) *ClassHandler {
	return &ClassHandler{db: db, cfg: cfg}
}

// List handles GET /classes - admins see every class, teachers their own
func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)

	var rows *sql.Rows
	var err error
	if claims.IsAdmin() {
		rows, err = h.db.Query(`
			SELECT id, name, grade, teacher_id, voting_open FROM classes ORDER BY name
		`)
	} else {
		rows, err = h.db.Query(`
			SELECT id, name, grade, teacher_id, voting_open FROM classes
			WHERE teacher_id = $1 ORDER BY name
		`, claims.TeacherID)
	}
	if err != nil {
		slog.Error("failed to query classes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	classes := make([]models.Class, 0)
	for rows.Next() {
		var c models.Class
		if err := rows.Scan(&c.ID, &c.Name, &c.Grade, &c.TeacherID, &c.VotingOpen); err != nil {
			slog.Error("failed to scan class", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		classes = append(classes, c)
	}

	middleware.JSONResponse(w, http.StatusOK, models.ClassesResponse{Classes: classes})
}

// Create handles POST /classes
func (h *ClassHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)

	var req models.CreateClassRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" || req.Grade == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name and grade are required")
		return
	}

	id := uuid.NewString()
	_, err := h.db.Exec(`
		INSERT INTO classes (id, name, grade, teacher_id, voting_open, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)
	`, id, req.Name, req.Grade, claims.TeacherID, time.Now().Unix())
	if err != nil {
		slog.Error("failed to insert class", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create class")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.Class{
		ID:        id,
		Name:      req.Name,
		Grade:     req.Grade,
		TeacherID: claims.TeacherID,
	})
}

// Update handles PUT /classes/{id}
func (h *ClassHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	classID := r.PathValue("id")

	var req models.CreateClassRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

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

	_, err = h.db.Exec(`UPDATE classes SET name = $1, grade = $2 WHERE id = $3`, req.Name, req.Grade, classID)
	if err != nil {
		slog.Error("failed to update class", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update class")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Class updated"})
}

// Delete handles DELETE /classes/{id}
func (h *ClassHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	classID := r.PathValue("id")

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

	if _, err := h.db.Exec(`DELETE FROM classes WHERE id = $1`, classID); err != nil {
		slog.Error("failed to delete class", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete class")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Class deleted"})
}

// ToggleVoting handles POST /classes/{id}/toggle-voting - opens or closes
// the ballot kiosk for a class
func (h *ClassHandler) ToggleVoting(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	classID := r.PathValue("id")

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

	var open bool
	err = h.db.QueryRow(`SELECT voting_open FROM classes WHERE id = $1`, classID).Scan(&open)
	if err != nil {
		slog.Error("failed to query class", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	newState := !open
	newStateInt := 0
	if newState {
		newStateInt = 1
	}
	if _, err := h.db.Exec(`UPDATE classes SET voting_open = $1 WHERE id = $2`, newStateInt, classID); err != nil {
		slog.Error("failed to toggle voting", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to toggle voting")
		return
	}

	slog.Info("voting toggled", "class_id", classID, "open", newState)

	middleware.JSONResponse(w, http.StatusOK, map[string]interface{}{"votingOpen": newState})
}
