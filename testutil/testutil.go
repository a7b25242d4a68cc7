// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"votesecure/auth"
	"votesecure/blockchain"
	"votesecure/cliparse"
	"votesecure/db"
)

// SetupTestDB creates a fresh SQLite database with the full schema in a
// per-test temp directory. The file is removed with the directory when the
// test finishes.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "votesecure_test.db")
	dbc, err := db.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { dbc.Close() })

	if err := db.CreateSchema(dbc); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return dbc
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3001,
		DatabaseType: "sqlite",
		AuthSecret:   "test-auth-secret",
		FrontendURL:  "http://localhost:8080",
	}
}

// CreateTestTeacher inserts a teacher account and returns its ID and a
// signed token for the given role ("teacher" or "admin").
func CreateTestTeacher(t *testing.T, dbc *sql.DB, cfg cliparse.Config, role string) (teacherID, token string) {
	t.Helper()

	teacherID = uuid.NewString()
	email := teacherID + "@example.com"
	_, err := dbc.Exec(`
		INSERT INTO teachers (id, email, name, role, created_at)
		VALUES ($1, $2, 'Test Teacher', $3, $4)
	`, teacherID, email, role, time.Now().Unix())
	if err != nil {
		t.Fatalf("Failed to create test teacher: %v", err)
	}

	token, err = auth.GenerateToken(teacherID, email, "Test Teacher", role, cfg.AuthSecret)
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}

	return teacherID, token
}

// CreateTestClass inserts a class owned by the given teacher
func CreateTestClass(t *testing.T, dbc *sql.DB, teacherID string) string {
	t.Helper()

	classID := uuid.NewString()
	_, err := dbc.Exec(`
		INSERT INTO classes (id, name, grade, teacher_id, voting_open, created_at)
		VALUES ($1, 'Test Class', '5', $2, 1, $3)
	`, classID, teacherID, time.Now().Unix())
	if err != nil {
		t.Fatalf("Failed to create test class: %v", err)
	}

	return classID
}

// CreateTestStudent inserts a student into a class
func CreateTestStudent(t *testing.T, dbc *sql.DB, classID, name string) string {
	t.Helper()

	studentID := uuid.NewString()
	_, err := dbc.Exec(`
		INSERT INTO students (id, class_id, name, has_voted, created_at)
		VALUES ($1, $2, $3, 0, $4)
	`, studentID, classID, name, time.Now().Unix())
	if err != nil {
		t.Fatalf("Failed to create test student: %v", err)
	}

	return studentID
}

// CreateTestElection inserts an election with the given status
func CreateTestElection(t *testing.T, dbc *sql.DB, status string) string {
	t.Helper()

	electionID := uuid.NewString()
	now := time.Now().Unix()
	_, err := dbc.Exec(`
		INSERT INTO elections (id, name, description, start_date, end_date, status, created_at, updated_at)
		VALUES ($1, 'Test Election', '', '2025-01-01', '2025-12-31', $2, $3, $3)
	`, electionID, status, now)
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return electionID
}

// CreateTestPosition inserts a position into an election
func CreateTestPosition(t *testing.T, dbc *sql.DB, electionID, title string) string {
	t.Helper()

	positionID := uuid.NewString()
	_, err := dbc.Exec(`
		INSERT INTO positions (id, election_id, title, type, created_at)
		VALUES ($1, $2, $3, 'single', $4)
	`, positionID, electionID, title, time.Now().Unix())
	if err != nil {
		t.Fatalf("Failed to create test position: %v", err)
	}

	return positionID
}

// CreateTestCandidate inserts an approved candidate for a position
func CreateTestCandidate(t *testing.T, dbc *sql.DB, positionID, name string) string {
	t.Helper()

	candidateID := uuid.NewString()
	_, err := dbc.Exec(`
		INSERT INTO candidates (id, position_id, name, approved, created_at)
		VALUES ($1, $2, $3, 1, $4)
	`, candidateID, positionID, name, time.Now().Unix())
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return candidateID
}

// CountQueueEntries returns the number of vote_queue rows with the status
func CountQueueEntries(t *testing.T, dbc *sql.DB, status string) int {
	t.Helper()

	var n int
	if err := dbc.QueryRow(`SELECT COUNT(*) FROM vote_queue WHERE status = $1`, status).Scan(&n); err != nil {
		t.Fatalf("Failed to count queue entries: %v", err)
	}
	return n
}

// CountVotes returns the number of committed votes for a class
func CountVotes(t *testing.T, dbc *sql.DB, classID string) int {
	t.Helper()

	var n int
	if err := dbc.QueryRow(`SELECT COUNT(*) FROM votes WHERE class_id = $1`, classID).Scan(&n); err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AuthHeader builds the Authorization header map for a token
func AuthHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// StaticStamper always succeeds with fixed stamp values. Use it in handler
// tests that exercise the happy path.
type StaticStamper struct {
	Hash  string
	Block int64
}

func (s *StaticStamper) RecordVote(_ context.Context, _, _, _, _ string, _ int64) (blockchain.Stamp, error) {
	hash := s.Hash
	if hash == "" {
		hash = "0xtest"
	}
	block := s.Block
	if block == 0 {
		block = 1
	}
	return blockchain.Stamp{TransactionHash: hash, BlockNumber: block, Success: true}, nil
}

// FailStamper reports an unsuccessful stamp without an error, modelling a
// ledger that answered but declined the write.
type FailStamper struct{}

func (FailStamper) RecordVote(_ context.Context, _, _, _, _ string, _ int64) (blockchain.Stamp, error) {
	return blockchain.Stamp{Success: false}, nil
}

// ErrStamper returns an error from every stamp attempt, modelling an
// unreachable ledger.
type ErrStamper struct{}

func (ErrStamper) RecordVote(_ context.Context, _, _, _, _ string, _ int64) (blockchain.Stamp, error) {
	return blockchain.Stamp{}, errors.New("ledger unreachable")
}

// RecordingNotifier captures class broadcasts for assertions
type RecordingNotifier struct {
	Broadcasts []RecordedBroadcast
}

type RecordedBroadcast struct {
	ClassID string
	Message interface{}
}

func (n *RecordingNotifier) BroadcastToClass(classID string, message interface{}) {
	n.Broadcasts = append(n.Broadcasts, RecordedBroadcast{ClassID: classID, Message: message})
}
