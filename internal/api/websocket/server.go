package websocket

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fortuna/matchday/internal/domain"
	"github.com/fortuna/matchday/internal/store"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server streams resolved fixtures to websocket clients.
type Server struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewServer creates a websocket server around a new hub.
func NewServer(logger zerolog.Logger) *Server {
	return &Server{
		hub:    NewHub(logger),
		logger: logger.With().Str("component", "websocket").Logger(),
	}
}

// Start runs the hub until ctx is cancelled.
func (s *Server) Start(ctx context.Context) {
	go s.hub.Run(ctx)
}

// HandleResolutions upgrades the request and subscribes it to the resolution feed.
func (s *Server) HandleResolutions(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to upgrade connection")
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// BroadcastResolution sends a resolution to every client.
func (s *Server) BroadcastResolution(res store.Resolution) {
	s.send("fixture.resolved", "resolution", res)
}

// BroadcastUpcoming sends a refreshed upcoming listing to every client.
func (s *Server) BroadcastUpcoming(fixtures []domain.UpcomingFixture) {
	s.send("upcoming.refreshed", "fixtures", fixtures)
}

func (s *Server) send(kind, field string, payload interface{}) {
	data, err := json.Marshal(map[string]interface{}{
		"type": kind,
		field:  payload,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("type", kind).Msg("failed to encode message")
		return
	}
	s.hub.Broadcast(data)
}

// ClientCount reports the number of connected clients.
func (s *Server) ClientCount() int {
	return s.hub.ClientCount()
}
