// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"votesecure/auth"
	"votesecure/models"
	"votesecure/testutil"
)

func TestClassResults(t *testing.T) {
	f := setupVoteFixture(t)
	cfg := testutil.GetTestConfig()
	handler := NewResultsHandler(f.db, cfg)

	// Second candidate competing for the same position
	candidate2 := testutil.CreateTestCandidate(t, f.db, f.positionID, "Carol")

	// Three students: two for the fixture candidate, one for the rival
	student2 := testutil.CreateTestStudent(t, f.db, f.classID, "Bob")
	student3 := testutil.CreateTestStudent(t, f.db, f.classID, "Carl")

	for _, sub := range []struct {
		student   string
		candidate string
	}{
		{f.studentID, f.candidateID},
		{student2, f.candidateID},
		{student3, candidate2},
	} {
		w := f.submit(t, models.SubmitVoteRequest{
			ClassID: f.classID, StudentID: sub.student, PositionID: f.positionID, CandidateID: sub.candidate,
		})
		testutil.AssertStatus(t, w, http.StatusOK)
	}

	var teacherID string
	if err := f.db.QueryRow(`SELECT teacher_id FROM classes WHERE id = $1`, f.classID).Scan(&teacherID); err != nil {
		t.Fatalf("Failed to read class: %v", err)
	}
	token, err := auth.GenerateToken(teacherID, "owner@example.com", "Owner", "teacher", cfg.AuthSecret)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	req := testutil.MakeRequest("GET", "/api/results/class/"+f.classID, nil, testutil.AuthHeader(token))
	req.SetPathValue("classId", f.classID)
	w := callAuthed(handler.ClassResults, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.ClassResultsResponse
	testutil.AssertJSON(t, w, &resp)

	result, ok := resp.Results[f.positionID]
	if !ok {
		t.Fatalf("Position %s missing from results", f.positionID)
	}
	if result.TotalVotes != 3 {
		t.Errorf("Expected 3 total votes, got %d", result.TotalVotes)
	}
	if result.Position.Title != "President" {
		t.Errorf("Unexpected position title: %s", result.Position.Title)
	}

	tallies := map[string]models.CandidateTally{}
	for _, c := range result.Candidates {
		tallies[c.CandidateID] = c
	}
	if tallies[f.candidateID].VoteCount != 2 {
		t.Errorf("Expected 2 votes for leader, got %d", tallies[f.candidateID].VoteCount)
	}
	if tallies[candidate2].VoteCount != 1 {
		t.Errorf("Expected 1 vote for rival, got %d", tallies[candidate2].VoteCount)
	}
	if tallies[f.candidateID].UniqueVoters != 2 {
		t.Errorf("Expected 2 unique voters, got %d", tallies[f.candidateID].UniqueVoters)
	}

	// Ranked first within the position
	if result.Candidates[0].CandidateID != f.candidateID {
		t.Errorf("Expected the leader listed first, got %s", result.Candidates[0].CandidateID)
	}
}

func TestClassResultsOwnership(t *testing.T) {
	f := setupVoteFixture(t)
	cfg := testutil.GetTestConfig()
	handler := NewResultsHandler(f.db, cfg)

	_, strangerToken := testutil.CreateTestTeacher(t, f.db, cfg, "teacher")

	req := testutil.MakeRequest("GET", "/api/results/class/"+f.classID, nil, testutil.AuthHeader(strangerToken))
	req.SetPathValue("classId", f.classID)
	w := callAuthed(handler.ClassResults, req)

	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestClassResultsExcludesQueuedVotes(t *testing.T) {
	f := setupVoteFixture(t)
	cfg := testutil.GetTestConfig()
	handler := NewResultsHandler(f.db, cfg)

	// A queued vote is not a committed vote
	f.handler.stamper = testutil.FailStamper{}
	w := f.submit(t, models.SubmitVoteRequest{
		ClassID: f.classID, StudentID: f.studentID, PositionID: f.positionID, CandidateID: f.candidateID,
	})
	testutil.AssertStatus(t, w, http.StatusInternalServerError)

	_, adminToken := testutil.CreateTestTeacher(t, f.db, cfg, "admin")

	req := testutil.MakeRequest("GET", "/api/results/class/"+f.classID, nil, testutil.AuthHeader(adminToken))
	req.SetPathValue("classId", f.classID)
	rw := callAuthed(handler.ClassResults, req)

	testutil.AssertStatus(t, rw, http.StatusOK)

	var resp models.ClassResultsResponse
	testutil.AssertJSON(t, rw, &resp)
	if len(resp.Results) != 0 {
		t.Errorf("Queued vote leaked into results: %+v", resp.Results)
	}
}
