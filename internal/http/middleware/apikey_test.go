package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestAPIKeyAccepted(t *testing.T) {
	next, called := okHandler()
	handler := APIKey("sekrit", nil)(next)

	req := httptest.NewRequest(http.MethodPost, "/book_appointment", nil)
	req.Header.Set("X-API-Key", "sekrit")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !*called {
		t.Fatal("expected next handler to be called")
	}
}

func TestAPIKeyRejected(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		provided string
	}{
		{"wrong key", "sekrit", "nope"},
		{"missing key", "sekrit", ""},
		{"unset server key rejects everything", "", "anything"},
		{"unset server key rejects empty too", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, called := okHandler()
			handler := APIKey(tt.expected, nil)(next)

			req := httptest.NewRequest(http.MethodPost, "/book_appointment", nil)
			if tt.provided != "" {
				req.Header.Set("X-API-Key", tt.provided)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			if *called {
				t.Fatal("next handler must not run on auth failure")
			}

			var payload map[string]any
			if err := json.NewDecoder(w.Body).Decode(&payload); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if payload["ok"] != false || payload["error"] != "unauthorized" {
				t.Fatalf("unexpected envelope %v", payload)
			}
		})
	}
}
