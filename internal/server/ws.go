package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/claude/formcoach/internal/pose"
	"github.com/claude/formcoach/internal/session"
)

// Websocket event types.
const (
	EventSessionStart   = "session:start"
	EventPoseUpdate     = "pose:update"
	EventSessionEnd     = "session:end"
	EventSessionReady   = "session:ready"
	EventFeedback       = "feedback:new"
	EventSessionSummary = "session:summary"
	EventError          = "error"
)

const (
	msgStartFailed   = "A server error occurred while starting the session."
	msgFrameFailed   = "A server error occurred while analyzing your movement."
	msgSaveFailed    = "Failed to save your workout session."
	msgSaved         = "Workout saved successfully!"
	msgNoSession     = "No active workout session to end."
	msgSessionActive = "A workout session is already running on this connection."
	msgMalformed     = "Malformed message."

	maxMessageBytes = 1 << 20
	writeTimeout    = 5 * time.Second
)

// envelope is the wire format of every websocket message.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type poseUpdate struct {
	PoseLandmarks pose.Frame `json:"poseLandmarks"`
}

type readyData struct {
	SessionID string `json:"sessionId"`
	Exercise  string `json:"exercise"`
}

type errorData struct {
	Message string `json:"message"`
}

type summaryData struct {
	Message string           `json:"message"`
	Summary *session.Summary `json:"summary"`
}

// wsConn is one accepted websocket. The connection ID doubles as the
// session ID in the dispatcher.
type wsConn struct {
	id   string
	c    *websocket.Conn
	user UserInfo
	log  *slog.Logger
}

func (c *wsConn) send(ctx context.Context, typ string, data any) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := wsjson.Write(ctx, c.c, outbound{Type: typ, Data: data}); err != nil {
		c.log.Debug("websocket write failed", "session", c.id, "type", typ, "error", err)
	}
}

// connSet tracks open connections so REST calls can reach them.
type connSet struct {
	mu sync.Mutex
	m  map[string]*wsConn
}

func newConnSet() *connSet {
	return &connSet{m: make(map[string]*wsConn)}
}

func (cs *connSet) add(c *wsConn) {
	cs.mu.Lock()
	cs.m[c.id] = c
	cs.mu.Unlock()
}

func (cs *connSet) remove(id string) {
	cs.mu.Lock()
	delete(cs.m, id)
	cs.mu.Unlock()
}

func (cs *connSet) notify(ctx context.Context, id, typ string, data any) {
	cs.mu.Lock()
	c, ok := cs.m[id]
	cs.mu.Unlock()
	if ok {
		c.send(ctx, typ, data)
	}
}

// handleWS upgrades the request and runs the connection's read loop.
// Messages of a connection are handled one at a time in arrival order.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.opts.AllowedOrigins,
	})
	if err != nil {
		s.log.Warn("websocket accept failed", "error", err)
		return
	}
	defer c.CloseNow()
	c.SetReadLimit(maxMessageBytes)

	conn := &wsConn{
		id:   uuid.NewString(),
		c:    c,
		user: userInfoFromContext(r),
		log:  s.log,
	}
	s.conns.add(conn)
	s.metrics.GaugeWSConnections.Inc()
	s.log.Info("websocket connected", "session", conn.id, "user", conn.user.Login)
	defer func() {
		s.conns.remove(conn.id)
		s.dispatcher.Disconnect(conn.id)
		s.metrics.GaugeWSConnections.Dec()
		s.log.Info("websocket disconnected", "session", conn.id)
	}()

	ctx := r.Context()
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if !errors.Is(err, context.Canceled) {
					s.log.Debug("websocket read ended", "session", conn.id, "error", err)
				}
			}
			return
		}
		if typ != websocket.MessageText {
			conn.send(ctx, EventError, errorData{Message: msgMalformed})
			continue
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			conn.send(ctx, EventError, errorData{Message: msgMalformed})
			continue
		}
		s.handleEvent(ctx, conn, env)
	}
}

func (s *Server) handleEvent(ctx context.Context, conn *wsConn, env envelope) {
	switch env.Type {
	case EventSessionStart:
		var req session.StartRequest
		if err := decodeData(env.Data, &req); err != nil {
			conn.send(ctx, EventError, errorData{Message: msgMalformed})
			return
		}
		if req.UserID == "" {
			req.UserID = conn.user.Login
		}
		info, err := s.dispatcher.Start(ctx, conn.id, req)
		if err != nil {
			conn.send(ctx, EventError, errorData{Message: startErrorMessage(req.Exercise, err)})
			if !errors.Is(err, session.ErrExerciseNotFound) && !errors.Is(err, session.ErrProcessorUnavailable) {
				s.log.Error("starting session", "session", conn.id, "exercise", req.Exercise, "error", err)
			}
			return
		}
		conn.send(ctx, EventSessionReady, readyData{SessionID: info.ID, Exercise: info.Exercise})

	case EventPoseUpdate:
		var upd poseUpdate
		if err := decodeData(env.Data, &upd); err != nil {
			conn.send(ctx, EventError, errorData{Message: msgMalformed})
			return
		}
		res, err := s.dispatcher.Update(conn.id, upd.PoseLandmarks)
		switch {
		case errors.Is(err, session.ErrNoSession):
			// Dropped; frames may still be in flight after an end.
		case err != nil:
			conn.send(ctx, EventError, errorData{Message: msgFrameFailed})
		default:
			conn.send(ctx, EventFeedback, res)
		}

	case EventSessionEnd:
		summary, err := s.dispatcher.End(ctx, conn.id)
		switch {
		case errors.Is(err, session.ErrNoSession):
			conn.send(ctx, EventError, errorData{Message: msgNoSession})
		case err != nil:
			conn.send(ctx, EventError, errorData{Message: msgSaveFailed})
		default:
			conn.send(ctx, EventSessionSummary, summaryData{Message: msgSaved, Summary: summary})
		}

	default:
		conn.send(ctx, EventError, errorData{Message: fmt.Sprintf("Unknown event type %q.", env.Type)})
	}
}

// startErrorMessage maps Start failures to client-facing text.
func startErrorMessage(name string, err error) string {
	switch {
	case errors.Is(err, session.ErrExerciseNotFound):
		return fmt.Sprintf("Exercise '%s' not found in the library.", name)
	case errors.Is(err, session.ErrProcessorUnavailable):
		return fmt.Sprintf("Sorry, real-time analysis for '%s' is not available yet.", name)
	case errors.Is(err, session.ErrSessionActive):
		return msgSessionActive
	default:
		return msgStartFailed
	}
}

func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
