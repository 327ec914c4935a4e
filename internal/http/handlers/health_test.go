package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeChecker bool

func (f fakeChecker) Connected() bool { return bool(f) }

func TestHealth(t *testing.T) {
	h := NewHealthHandler(fakeChecker(true))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.Health(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var payload map[string]any
	if err := json.NewDecoder(w.Body).Decode(&payload); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if payload["ok"] != true {
		t.Errorf("expected ok true, got %v", payload["ok"])
	}
	if payload["service"] != "booking-server" {
		t.Errorf("expected service booking-server, got %v", payload["service"])
	}
	if payload["calendar_connected"] != true {
		t.Errorf("expected calendar_connected true, got %v", payload["calendar_connected"])
	}
}

func TestHealthWithoutChecker(t *testing.T) {
	h := NewHealthHandler(nil)

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var payload map[string]any
	if err := json.NewDecoder(w.Body).Decode(&payload); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if _, ok := payload["calendar_connected"]; ok {
		t.Error("calendar_connected should be omitted without a checker")
	}
}
