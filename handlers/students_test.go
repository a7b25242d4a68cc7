// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"votesecure/auth"
	"votesecure/models"
	"votesecure/testutil"
)

func TestListStudentsByClass(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewStudentHandler(db, cfg)

	teacherID, token := testutil.CreateTestTeacher(t, db, cfg, "teacher")
	classID := testutil.CreateTestClass(t, db, teacherID)
	testutil.CreateTestStudent(t, db, classID, "Alice")
	testutil.CreateTestStudent(t, db, classID, "Bob")

	req := testutil.MakeRequest("GET", "/api/students/class/"+classID, nil, testutil.AuthHeader(token))
	req.SetPathValue("classId", classID)
	w := callAuthed(handler.ListByClass, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.StudentsResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Students) != 2 {
		t.Fatalf("Expected 2 students, got %d", len(resp.Students))
	}
	if resp.Students[0].Name != "Alice" {
		t.Errorf("Expected name-ordered roster, got %s first", resp.Students[0].Name)
	}
}

func TestCreateStudent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewStudentHandler(db, cfg)

	teacherID, token := testutil.CreateTestTeacher(t, db, cfg, "teacher")
	classID := testutil.CreateTestClass(t, db, teacherID)

	t.Run("with pin", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/students",
			models.CreateStudentRequest{ClassID: classID, Name: "Carol", PIN: "1234"},
			testutil.AuthHeader(token))
		w := callAuthed(handler.Create, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.Student
		testutil.AssertJSON(t, w, &resp)

		// The PIN is stored hashed, never returned
		var pinHash string
		if err := db.QueryRow(`SELECT pin_hash FROM students WHERE id = $1`, resp.ID).Scan(&pinHash); err != nil {
			t.Fatalf("Failed to read student: %v", err)
		}
		if pinHash == "" || pinHash == "1234" {
			t.Error("Expected a bcrypt hash in pin_hash")
		}
	})

	t.Run("unknown class", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/students",
			models.CreateStudentRequest{ClassID: "no-such-class", Name: "Dave"},
			testutil.AuthHeader(token))
		w := callAuthed(handler.Create, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("foreign class", func(t *testing.T) {
		otherID, _ := testutil.CreateTestTeacher(t, db, cfg, "teacher")
		otherClass := testutil.CreateTestClass(t, db, otherID)

		req := testutil.MakeRequest("POST", "/api/students",
			models.CreateStudentRequest{ClassID: otherClass, Name: "Eve"},
			testutil.AuthHeader(token))
		w := callAuthed(handler.Create, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

func TestBulkCreateStudents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewStudentHandler(db, cfg)

	teacherID, token := testutil.CreateTestTeacher(t, db, cfg, "teacher")
	classID := testutil.CreateTestClass(t, db, teacherID)

	req := testutil.MakeRequest("POST", "/api/students/bulk", models.BulkStudentsRequest{
		ClassID: classID,
		Students: []models.BulkStudentEntry{
			{Name: "Alice"},
			{Name: ""}, // blank roster lines are skipped, not fatal
			{Name: "Bob"},
		},
	}, testutil.AuthHeader(token))
	w := callAuthed(handler.BulkCreate, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.BulkStudentsResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Count != 2 {
		t.Errorf("Expected 2 imported students, got %d", resp.Count)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM students WHERE class_id = $1`, classID).Scan(&n); err != nil {
		t.Fatalf("Failed to count students: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 students in database, got %d", n)
	}
}

func TestUpdateAndDeleteStudent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewStudentHandler(db, cfg)

	teacherID, token := testutil.CreateTestTeacher(t, db, cfg, "teacher")
	_, strangerToken := testutil.CreateTestTeacher(t, db, cfg, "teacher")
	classID := testutil.CreateTestClass(t, db, teacherID)
	studentID := testutil.CreateTestStudent(t, db, classID, "Alice")

	t.Run("stranger cannot update", func(t *testing.T) {
		req := testutil.MakeRequest("PUT", "/api/students/"+studentID,
			models.UpdateStudentRequest{Name: "Mallory"}, testutil.AuthHeader(strangerToken))
		req.SetPathValue("id", studentID)
		w := callAuthed(handler.Update, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("owner renames", func(t *testing.T) {
		req := testutil.MakeRequest("PUT", "/api/students/"+studentID,
			models.UpdateStudentRequest{Name: "Alicia"}, testutil.AuthHeader(token))
		req.SetPathValue("id", studentID)
		w := callAuthed(handler.Update, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var name string
		if err := db.QueryRow(`SELECT name FROM students WHERE id = $1`, studentID).Scan(&name); err != nil {
			t.Fatalf("Failed to read student: %v", err)
		}
		if name != "Alicia" {
			t.Errorf("Expected renamed student, got %s", name)
		}
	})

	t.Run("owner deletes", func(t *testing.T) {
		req := testutil.MakeRequest("DELETE", "/api/students/"+studentID, nil, testutil.AuthHeader(token))
		req.SetPathValue("id", studentID)
		w := callAuthed(handler.Delete, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var n int
		if err := db.QueryRow(`SELECT COUNT(*) FROM students WHERE id = $1`, studentID).Scan(&n); err != nil {
			t.Fatalf("Failed to count students: %v", err)
		}
		if n != 0 {
			t.Error("Student still present after delete")
		}
	})
}

func TestVerifyPIN(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewStudentHandler(db, cfg)

	teacherID, token := testutil.CreateTestTeacher(t, db, cfg, "teacher")
	classID := testutil.CreateTestClass(t, db, teacherID)

	// Student with a PIN, created through the handler so it gets hashed
	createReq := testutil.MakeRequest("POST", "/api/students",
		models.CreateStudentRequest{ClassID: classID, Name: "Alice", PIN: "4321"},
		testutil.AuthHeader(token))
	w := callAuthed(handler.Create, createReq)
	testutil.AssertStatus(t, w, http.StatusOK)
	var created models.Student
	testutil.AssertJSON(t, w, &created)

	verify := func(studentID, pin string) models.VerifyPINResponse {
		req := testutil.MakeRequest("POST", "/api/students/"+studentID+"/verify-pin",
			models.VerifyPINRequest{PIN: pin}, nil)
		req.SetPathValue("id", studentID)
		w := httptest.NewRecorder()
		handler.VerifyPIN(w, req) // public route, no middleware
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.VerifyPINResponse
		testutil.AssertJSON(t, w, &resp)
		return resp
	}

	if resp := verify(created.ID, "4321"); !resp.Verified {
		t.Error("Correct PIN rejected")
	}
	if resp := verify(created.ID, "0000"); resp.Verified {
		t.Error("Wrong PIN accepted")
	}

	t.Run("no pin configured", func(t *testing.T) {
		openStudent := testutil.CreateTestStudent(t, db, classID, "Bob")
		if resp := verify(openStudent, "anything"); !resp.Verified {
			t.Error("Student without a PIN should always verify")
		}
	})
}

func TestResetVotes(t *testing.T) {
	f := setupVoteFixture(t)
	cfg := testutil.GetTestConfig()
	handler := NewStudentHandler(f.db, cfg)

	// Commit a vote so there is something to reset
	w := f.submit(t, models.SubmitVoteRequest{
		ClassID: f.classID, StudentID: f.studentID, PositionID: f.positionID, CandidateID: f.candidateID,
	})
	testutil.AssertStatus(t, w, http.StatusOK)

	if n := testutil.CountVotes(t, f.db, f.classID); n != 1 {
		t.Fatalf("Expected 1 vote before reset, got %d", n)
	}

	var teacherID string
	if err := f.db.QueryRow(`SELECT teacher_id FROM classes WHERE id = $1`, f.classID).Scan(&teacherID); err != nil {
		t.Fatalf("Failed to read class: %v", err)
	}
	token, err := auth.GenerateToken(teacherID, "owner@example.com", "Owner", "teacher", cfg.AuthSecret)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	req := testutil.MakeRequest("POST", "/api/students/class/"+f.classID+"/reset-votes", nil, testutil.AuthHeader(token))
	req.SetPathValue("classId", f.classID)
	rw := callAuthed(handler.ResetVotes, req)
	testutil.AssertStatus(t, rw, http.StatusOK)

	if n := testutil.CountVotes(t, f.db, f.classID); n != 0 {
		t.Errorf("Expected 0 votes after reset, got %d", n)
	}

	var hasVoted bool
	if err := f.db.QueryRow(`SELECT has_voted FROM students WHERE id = $1`, f.studentID).Scan(&hasVoted); err != nil {
		t.Fatalf("Failed to read student: %v", err)
	}
	if hasVoted {
		t.Error("Completion flag survived the reset")
	}
}
