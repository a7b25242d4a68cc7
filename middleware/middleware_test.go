// Copyright (c) 2025 The VoteSecure Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"votesecure/auth"
	"votesecure/models"
)

func TestRequireAuth_MissingHeader(t *testing.T) {
	handler := RequireAuth("secret", func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called without a token")
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_BadToken(t *testing.T) {
	handler := RequireAuth("secret", func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called with a bad token")
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	token, err := auth.GenerateToken("t-1", "a@b.c", "A", "admin", "secret")
	if err != nil {
		t.Fatal(err)
	}

	called := false
	handler := RequireAuth("secret", func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims := ClaimsFrom(r)
		if claims == nil {
			t.Fatal("expected claims in context")
		}
		if claims.TeacherID != "t-1" {
			t.Errorf("expected teacher id t-1, got %s", claims.TeacherID)
		}
		if !claims.IsAdmin() {
			t.Error("expected admin claims")
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler(w, req)

	if !called {
		t.Fatal("handler was not called")
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(w, http.StatusNotFound, "Student not found")

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Message != "Student not found" {
		t.Errorf("unexpected message: %s", resp.Message)
	}
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS("http://localhost:8080", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight should not reach the handler")
	}))

	req := httptest.NewRequest("OPTIONS", "/votes/submit", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8080" {
		t.Errorf("unexpected allow-origin: %s", got)
	}
}
