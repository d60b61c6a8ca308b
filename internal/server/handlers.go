package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/formcoach/internal/session"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": len(s.dispatcher.Sessions()),
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	list, err := s.catalog.Available(r.Context())
	if err != nil {
		s.log.Error("listing exercises", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dispatcher.Sessions())
}

// handleEndSession finalizes a live session on behalf of its connection.
// The connection, if still open, receives the same summary event it would
// have got from ending the session itself.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	summary, err := s.dispatcher.End(r.Context(), id)
	if errors.Is(err, session.ErrNoSession) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	if err != nil {
		s.conns.notify(r.Context(), id, EventError, errorData{Message: msgSaveFailed})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msgSaveFailed})
		return
	}
	s.conns.notify(r.Context(), id, EventSessionSummary, summaryData{Message: msgSaved, Summary: summary})
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleQueryWorkouts(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid time range: " + err.Error()})
		return
	}
	rows, err := s.store.QueryWorkouts(r.Context(), start, end, queryUser(r))
	if err != nil {
		s.log.Error("querying workouts", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleRecentWorkouts(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}
	rows, err := s.store.RecentWorkouts(r.Context(), queryUser(r), limit)
	if err != nil {
		s.log.Error("querying recent workouts", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type weightRequest struct {
	WeightKg float64 `json:"weight_kg"`
}

func (s *Server) handleSetWeight(w http.ResponseWriter, r *http.Request) {
	var req weightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.WeightKg <= 0 || req.WeightKg > 500 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "weight_kg must be between 0 and 500"})
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.store.SetUserWeight(r.Context(), id, req.WeightKg); err != nil {
		s.log.Error("setting user weight", "user", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": id, "weight_kg": req.WeightKg})
}

// queryUser returns the user_id query parameter, defaulting to the caller.
func queryUser(r *http.Request) string {
	if u := r.URL.Query().Get("user_id"); u != "" {
		return u
	}
	return userInfoFromContext(r).Login
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 7 days
		end = time.Now()
		start = end.AddDate(0, 0, -7)
		return
	}

	start, err = time.Parse(time.RFC3339, startStr)
	if err != nil {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			end, err = time.Parse("2006-01-02", endStr)
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			// End of day for date-only
			end = end.Add(24 * time.Hour)
		}
	}
	return
}
