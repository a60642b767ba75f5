package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetReveal_Locked(t *testing.T) {
	t.Parallel()

	sessions := &mockSessions{state: testState(12, false)}
	h := NewRevealHandler(sessions)

	rec := httptest.NewRecorder()
	h.GetReveal(rec, authedRequest("GET", "/api/v1/reveal", testUser()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := decodeData(t, rec)
	if data["unlocked"].(bool) {
		t.Error("unlocked = true, want false at 12 days")
	}
	if data["days_completed"].(float64) != 12 {
		t.Errorf("days_completed = %v, want 12", data["days_completed"])
	}
	if data["days_remaining"].(float64) != 18 {
		t.Errorf("days_remaining = %v, want 18", data["days_remaining"])
	}
	if _, present := data["partner"]; present {
		t.Error("partner identity leaked before unlock")
	}
}

func TestGetReveal_Unlocked(t *testing.T) {
	t.Parallel()

	sessions := &mockSessions{state: testState(30, true)}
	h := NewRevealHandler(sessions)

	rec := httptest.NewRecorder()
	h.GetReveal(rec, authedRequest("GET", "/api/v1/reveal", testUser()))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := decodeData(t, rec)
	if !data["unlocked"].(bool) {
		t.Fatal("unlocked = false, want true at 30 days")
	}
	partner, ok := data["partner"].(map[string]any)
	if !ok {
		t.Fatal("partner missing after unlock")
	}
	if partner["name"] != PartnerName {
		t.Errorf("partner name = %v, want %q", partner["name"], PartnerName)
	}
}

func TestGetReveal_BeyondThreshold(t *testing.T) {
	t.Parallel()

	// A cumulative count can pass 30 with missed days in between; the reveal
	// stays unlocked.
	sessions := &mockSessions{state: testState(45, true)}
	h := NewRevealHandler(sessions)

	rec := httptest.NewRecorder()
	h.GetReveal(rec, authedRequest("GET", "/api/v1/reveal", testUser()))

	data := decodeData(t, rec)
	if !data["unlocked"].(bool) {
		t.Error("unlocked = false, want true past the threshold")
	}
}

func TestGetReveal_Unauthenticated(t *testing.T) {
	t.Parallel()

	h := NewRevealHandler(&mockSessions{})
	rec := httptest.NewRecorder()
	h.GetReveal(rec, httptest.NewRequest("GET", "/api/v1/reveal", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
