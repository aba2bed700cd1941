package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/terra-clan/circular-readiness/internal/models"
	"github.com/terra-clan/circular-readiness/internal/scoring"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Live message types
const (
	LiveAnswer    = "answer"
	LiveWeights   = "weights"
	LiveReset     = "reset"
	LiveConnected = "connected"
	LiveResults   = "results"
	LiveError     = "error"
)

// LiveMessage is the envelope exchanged on the live scoring socket.
// Clients send answer, weights or reset; the server answers with results
// or error.
type LiveMessage struct {
	Type string `json:"type"`

	// inbound
	Answer  *models.SetAnswerRequest `json:"answer,omitempty"`
	Weights map[string]float64       `json:"weights,omitempty"`

	// outbound
	Session *models.Session `json:"session,omitempty"`
	Results *scoring.Result `json:"results,omitempty"`
	Error   *apiError       `json:"error,omitempty"`
}

func (s *Server) handleLiveSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.manager.GetSession(r.Context(), id); err != nil {
		respondManagerError(w, err, "get session", "id", id)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("live session connected", "session_id", id, "client", ClientName(r.Context()))

	if !s.sendLiveState(conn, r, LiveConnected, id) {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			break
		}

		var msg LiveMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("invalid message format", "error", err)
			if !s.sendLiveError(conn, "invalid_request", "invalid message format") {
				break
			}
			continue
		}

		if code, err := s.applyLive(r, id, msg); err != nil {
			if !s.sendLiveError(conn, code, err.Error()) {
				break
			}
			continue
		}

		if !s.sendLiveState(conn, r, LiveResults, id) {
			break
		}
	}

	slog.Info("live session disconnected", "session_id", id)
}

// applyLive performs one inbound message and returns the error code on failure
func (s *Server) applyLive(r *http.Request, id string, msg LiveMessage) (string, error) {
	var err error
	switch msg.Type {
	case LiveAnswer:
		if msg.Answer == nil {
			return "validation_error", errors.New("answer payload is required")
		}
		_, err = s.manager.SetAnswer(r.Context(), id, *msg.Answer)
	case LiveWeights:
		_, err = s.manager.SetWeights(r.Context(), id, msg.Weights)
	case LiveReset:
		_, err = s.manager.Reset(r.Context(), id)
	default:
		return "invalid_request", fmt.Errorf("unknown message type: %q", msg.Type)
	}
	if err != nil {
		status, code := errorStatus(err)
		if status >= http.StatusInternalServerError {
			slog.Error("failed to apply live message", "error", err, "type", msg.Type, "session_id", id)
		}
		return code, err
	}
	return "", nil
}

// sendLiveState pushes the current session and its results; false ends the loop
func (s *Server) sendLiveState(conn *websocket.Conn, r *http.Request, typ, id string) bool {
	session, err := s.manager.GetSession(r.Context(), id)
	if err != nil {
		_, code := errorStatus(err)
		s.sendLiveError(conn, code, err.Error())
		return false
	}
	result, err := s.manager.Results(r.Context(), id)
	if err != nil {
		_, code := errorStatus(err)
		s.sendLiveError(conn, code, err.Error())
		return false
	}
	return s.sendLiveMessage(conn, LiveMessage{Type: typ, Session: session, Results: result}) == nil
}

func (s *Server) sendLiveMessage(conn *websocket.Conn, msg LiveMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal live message", "error", err)
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send live message", "error", err)
		return err
	}
	return nil
}

func (s *Server) sendLiveError(conn *websocket.Conn, code, message string) bool {
	return s.sendLiveMessage(conn, LiveMessage{
		Type:  LiveError,
		Error: &apiError{Code: code, Message: message},
	}) == nil
}
