package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/formcoach/internal/models"
	"github.com/claude/formcoach/internal/session"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Verifies the HTTP client sends correct paths and query params.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-API-Key"); got != "k" {
			t.Errorf("X-API-Key = %q, want k", got)
		}
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

// TestQueryWorkouts verifies the HTTP client sends the time range and user
// and parses the JSON array response.
func TestQueryWorkouts(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if got := q.Get("user_id"); got != "alice" {
				t.Errorf("user_id=%q, want alice", got)
			}
			if got := q.Get("start"); got != "2026-01-01T00:00:00Z" {
				t.Errorf("start=%q", got)
			}
			writeTestJSON(t, w, []models.WorkoutRow{{Exercise: "Squat", Reps: 20, FormScore: 88}})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL+"/", "k")
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows, err := client.QueryWorkouts(context.Background(), start, start.AddDate(0, 0, 7), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].FormScore != 88 {
		t.Errorf("rows = %+v", rows)
	}
}

// TestRecentWorkouts verifies the limit parameter is forwarded.
func TestRecentWorkouts(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/recent": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("limit"); got != "3" {
				t.Errorf("limit=%q, want 3", got)
			}
			writeTestJSON(t, w, []models.WorkoutRow{})
		},
	})
	defer ts.Close()

	rows, err := NewHTTPClient(ts.URL, "k").RecentWorkouts(context.Background(), "", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

// TestListExercisesAndSessions verifies both listing endpoints decode.
func TestListExercisesAndSessions(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/exercises": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []models.ExerciseInfo{
				{ExerciseRow: models.ExerciseRow{Name: "Squat", Muscles: []string{"Quadriceps"}}, Realtime: true},
			})
		},
		"/api/v1/sessions": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, []session.Info{{ID: "abc", Exercise: "Lunge", Stage: "down"}})
		},
	})
	defer ts.Close()

	client := NewHTTPClient(ts.URL, "k")
	list, err := client.ListExercises(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || !list[0].Realtime || list[0].Name != "Squat" {
		t.Errorf("exercises = %+v", list)
	}

	sessions, err := client.ListSessions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].Stage != "down" {
		t.Errorf("sessions = %+v", sessions)
	}
}

// TestHTTPError verifies non-200 responses become errors.
func TestHTTPError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/sessions": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
		},
	})
	defer ts.Close()

	if _, err := NewHTTPClient(ts.URL, "k").ListSessions(context.Background()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
