// Package session owns the live exercise sessions: the registry keyed by
// connection, the dispatcher that routes frames to processors, the
// finalizer that hands finished sessions to the workout store, and the
// idle reaper.
package session

import (
	"sync"
	"time"

	"github.com/claude/formcoach/internal/exercise"
	"github.com/claude/formcoach/internal/pose"
)

// RepMark records when a rep was counted.
type RepMark struct {
	Rep int       `json:"rep"`
	At  time.Time `json:"at"`
}

// Info is a read-only snapshot of a session.
type Info struct {
	ID        string         `json:"sessionId"`
	Exercise  string         `json:"exercise"`
	UserID    string         `json:"userId"`
	StartTime time.Time      `json:"startTime"`
	LastSeen  time.Time      `json:"lastSeen"`
	Frames    int            `json:"frames"`
	RepCount  int            `json:"repCount"`
	Stage     exercise.Stage `json:"stage"`
	Score     int            `json:"score"`
}

// Session is one connection's exercise in progress. Only the Dispatcher
// touches it; mu serializes frames.
type Session struct {
	id       string
	exercise string
	userID   string
	start    time.Time

	mu       sync.Mutex
	lastSeen time.Time
	frames   int
	proc     exercise.Processor
	history  []RepMark
}

func newSession(id, name, userID string, proc exercise.Processor, now time.Time) *Session {
	return &Session{
		id:       id,
		exercise: name,
		userID:   userID,
		start:    now,
		lastSeen: now,
		proc:     proc,
	}
}

// process runs one frame under the session lock and appends to the rep
// history when the count moved.
func (s *Session) process(f pose.Frame, now time.Time) (res exercise.Result, newReps int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.proc.Snapshot().RepCount
	s.lastSeen = now
	s.frames++
	res = s.proc.Process(f)
	for rep := before + 1; rep <= res.RepCount; rep++ {
		s.history = append(s.history, RepMark{Rep: rep, At: now})
	}
	return res, res.RepCount - before
}

func (s *Session) info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.proc.Snapshot()
	return Info{
		ID:        s.id,
		Exercise:  s.exercise,
		UserID:    s.userID,
		StartTime: s.start,
		LastSeen:  s.lastSeen,
		Frames:    s.frames,
		RepCount:  snap.RepCount,
		Stage:     snap.Stage,
		Score:     snap.Score,
	}
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}

// record captures what the finalizer needs.
func (s *Session) record(end time.Time) Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.proc.Snapshot()
	history := make([]RepMark, len(s.history))
	copy(history, s.history)
	return Record{
		Exercise: s.exercise,
		UserID:   s.userID,
		Reps:     snap.RepCount,
		Score:    snap.Score,
		Start:    s.start,
		End:      end,
		History:  history,
	}
}
