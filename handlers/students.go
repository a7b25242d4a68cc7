// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"votesecure/auth"
	"votesecure/cliparse"
	"votesecure/middleware"
	"votesecure/models"
)

type StudentHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewStudentHandler(db *sql.DB, cfg cliparse.Config) *StudentHandler {
	return &StudentHandler{db: db, cfg: cfg}
}

// ownsClass reports whether the authenticated account may manage the class.
// Admins manage every class; teachers only their own.
func ownsClass(dbc *sql.DB, claims *auth.Claims, classID string) (bool, error) {
	if claims.IsAdmin() {
		var exists bool
		err := dbc.QueryRow(`SELECT EXISTS(SELECT 1 FROM classes WHERE id = $1)`, classID).Scan(&exists)
		return exists, err
	}

	var exists bool
	err := dbc.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM classes WHERE id = $1 AND teacher_id = $2)
	`, classID, claims.TeacherID).Scan(&exists)
	return exists, err
}

// ListByClass handles GET /students/class/{classId}
func (h *StudentHandler) ListByClass(w http.ResponseWriter, r *http.Request) {
	classID := r.PathValue("classId")

	rows, err := h.db.Query(`
		SELECT id, class_id, name, has_voted, COALESCE(pin_hash, '')
		FROM students
		WHERE class_id = $1
		ORDER BY name
	`, classID)
	if err != nil {
		slog.Error("failed to query students", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	students := make([]models.Student, 0)
	for rows.Next() {
		var s models.Student
		if err := rows.Scan(&s.ID, &s.ClassID, &s.Name, &s.HasVoted, &s.PINHash); err != nil {
			slog.Error("failed to scan student", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		students = append(students, s)
	}

	middleware.JSONResponse(w, http.StatusOK, models.StudentsResponse{Students: students})
}

// Create handles POST /students
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)

	var req models.CreateStudentRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ClassID == "" || req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "classId and name are required")
		return
	}

	ok, err := ownsClass(h.db, claims, req.ClassID)
	if err != nil {
		slog.Error("failed to check class ownership", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Class not found")
		return
	}

	var pinHash sql.NullString
	if req.PIN != "" {
		hash, err := auth.HashPIN(req.PIN)
		if err != nil {
			slog.Error("failed to hash pin", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add student")
			return
		}
		pinHash = sql.NullString{String: hash, Valid: true}
	}

	id := uuid.NewString()
	_, err = h.db.Exec(`
		INSERT INTO students (id, class_id, name, has_voted, pin_hash, created_at)
		VALUES ($1, $2, $3, 0, $4, $5)
	`, id, req.ClassID, req.Name, pinHash, time.Now().Unix())
	if err != nil {
		slog.Error("failed to insert student", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add student")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.Student{
		ID:      id,
		ClassID: req.ClassID,
		Name:    req.Name,
	})
}

// BulkCreate handles POST /students/bulk - roster import. The body is
// already-parsed JSON; file parsing happens client-side.
func (h *StudentHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)

	var req models.BulkStudentsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.ClassID == "" || len(req.Students) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "classId and students are required")
		return
	}

	ok, err := ownsClass(h.db, claims, req.ClassID)
	if err != nil {
		slog.Error("failed to check class ownership", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Class not found")
		return
	}

	now := time.Now().Unix()
	inserted := make([]models.Student, 0, len(req.Students))
	for _, entry := range req.Students {
		if entry.Name == "" {
			continue
		}
		id := uuid.NewString()
		if _, err := h.db.Exec(`
			INSERT INTO students (id, class_id, name, has_voted, created_at)
			VALUES ($1, $2, $3, 0, $4)
		`, id, req.ClassID, entry.Name, now); err != nil {
			slog.Error("failed to insert student", "error", err, "name", entry.Name)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add students")
			return
		}
		inserted = append(inserted, models.Student{ID: id, ClassID: req.ClassID, Name: entry.Name})
	}

	slog.Info("bulk roster import", "class_id", req.ClassID, "count", len(inserted))

	middleware.JSONResponse(w, http.StatusOK, models.BulkStudentsResponse{
		Count:    len(inserted),
		Students: inserted,
	})
}

// Update handles PUT /students/{id}
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	studentID := r.PathValue("id")

	var req models.UpdateStudentRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	student, err := h.findOwnedStudent(claims, studentID)
	if err != nil {
		slog.Error("failed to query student", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if student == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Student not found")
		return
	}

	pinHash := student.PINHash
	if req.PIN != "" {
		hash, err := auth.HashPIN(req.PIN)
		if err != nil {
			slog.Error("failed to hash pin", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update student")
			return
		}
		pinHash = hash
	}

	var pin sql.NullString
	if pinHash != "" {
		pin = sql.NullString{String: pinHash, Valid: true}
	}

	_, err = h.db.Exec(`UPDATE students SET name = $1, pin_hash = $2 WHERE id = $3`, req.Name, pin, studentID)
	if err != nil {
		slog.Error("failed to update student", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to update student")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Student updated"})
}

// Delete handles DELETE /students/{id}
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r)
	studentID := r.PathValue("id")

	student, err := h.findOwnedStudent(claims, studentID)
	if err != nil {
		slog.Error("failed to query student", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if student == nil {
		middleware.ErrorResponse(w, http.StatusNotFound, "Student not found")
		return
	}

	if _, err := h.db.Exec(`DELETE FROM students WHERE id = $1`, studentID); err != nil {
		slog.Error("failed to delete student", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete student")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Student deleted"})
}

// VerifyPIN handles POST /students/{id}/verify-pin. Public: students
// authenticate at the kiosk before the ballot, without a teacher token.
func (h *StudentHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")

	var req models.VerifyPINRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var pinHash sql.NullString
	err := h.db.QueryRow(`SELECT pin_hash FROM students WHERE id = $1`, studentID).Scan(&pinHash)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Student not found")
		return
	}
	if err != nil {
		slog.Error("failed to query student", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// No PIN configured means the roster does not gate this student
	if !pinHash.Valid || pinHash.String == "" {
		middleware.JSONResponse(w, http.StatusOK, models.VerifyPINResponse{Verified: true})
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VerifyPINResponse{
		Verified: auth.CheckPIN(req.PIN, pinHash.String),
	})
}

// ResetVotes handles POST /students/class/{classId}/reset-votes - clears
// all committed votes for the class and lowers every completion flag.
func (h *StudentHandler) ResetVotes(w http.ResponseWriter, r *http.Request) {
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

	if _, err := h.db.Exec(`UPDATE students SET has_voted = 0 WHERE class_id = $1`, classID); err != nil {
		slog.Error("failed to reset completion flags", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reset votes")
		return
	}
	if _, err := h.db.Exec(`DELETE FROM votes WHERE class_id = $1`, classID); err != nil {
		slog.Error("failed to delete votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to reset votes")
		return
	}

	slog.Info("votes reset", "class_id", classID, "by", claims.TeacherID)

	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "Votes reset"})
}

// findOwnedStudent loads a student if the account may manage their class.
// Returns (nil, nil) when missing or not owned.
func (h *StudentHandler) findOwnedStudent(claims *auth.Claims, studentID string) (*models.Student, error) {
	var s models.Student
	var err error
	if claims.IsAdmin() {
		err = h.db.QueryRow(`
			SELECT id, class_id, name, has_voted, COALESCE(pin_hash, '')
			FROM students WHERE id = $1
		`, studentID).Scan(&s.ID, &s.ClassID, &s.Name, &s.HasVoted, &s.PINHash)
	} else {
		err = h.db.QueryRow(`
			SELECT s.id, s.class_id, s.name, s.has_voted, COALESCE(s.pin_hash, '')
			FROM students s
			JOIN classes c ON s.class_id = c.id
			WHERE s.id = $1 AND c.teacher_id = $2
		`, studentID, claims.TeacherID).Scan(&s.ID, &s.ClassID, &s.Name, &s.HasVoted, &s.PINHash)
	}

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
