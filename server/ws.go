package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Message is the websocket envelope for both directions.
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Data    any    `json:"data,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			s.logger.Debug("websocket closed", zap.Error(err))
			break
		}
		s.handleWSMessage(r, conn, msg)
	}
}

func (s *Server) handleWSMessage(r *http.Request, conn *websocket.Conn, msg Message) {
	switch msg.Type {
	case "search":
		s.sendWS(conn, Message{Type: "status", Content: "searching"})
		answer, err := s.search.Run(r.Context(), msg.Content)
		if err != nil {
			s.sendWS(conn, Message{Type: "error", Content: err.Error()})
			return
		}
		s.sendWS(conn, Message{Type: "result", Content: answer.Answer, Data: answer})
	case "query":
		answer, err := s.kb.Ask(r.Context(), msg.Content, 0)
		if err != nil {
			s.sendWS(conn, Message{Type: "error", Content: err.Error()})
			return
		}
		s.sendWS(conn, Message{Type: "result", Content: answer.Answer, Data: answer})
	default:
		s.sendWS(conn, Message{Type: "error", Content: "unknown message type: " + msg.Type})
	}
}

func (s *Server) sendWS(conn *websocket.Conn, msg Message) {
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Warn("failed to send websocket message", zap.Error(err))
	}
}
