// Package server exposes the chat façade over a WebSocket endpoint. Each
// inbound text frame is one user message; the reply is streamed back as
// ChatMessage JSON records, ending with the single final record.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tripmesh/tripmesh"
	"github.com/tripmesh/tripmesh/core"
	"github.com/tripmesh/tripmesh/logging"
)

const writeTimeout = 10 * time.Second

// inbound is the client frame format. SessionID is optional; a missing ID
// binds the connection to a fresh session on first use.
type inbound struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// Options configures a Server.
type Options struct {
	Logger logging.Logger

	// CheckOrigin overrides the upgrader origin policy. The default accepts
	// every origin; put auth and CORS in front of the server.
	CheckOrigin func(r *http.Request) bool
}

// Server serves the WebSocket chat endpoint.
type Server struct {
	mesh     *tripmesh.TripMesh
	upgrader websocket.Upgrader
	logger   logging.Logger
}

// New creates a Server over the façade.
func New(mesh *tripmesh.TripMesh, optFns ...func(o *Options)) *Server {
	opts := Options{
		Logger:      logging.NoOpLogger{},
		CheckOrigin: func(*http.Request) bool { return true },
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Server{
		mesh: mesh,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     opts.CheckOrigin,
		},
		logger: opts.Logger,
	}
}

// Handler returns the mux for the server: /ws for chat, /healthz for probes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// ListenAndServe blocks serving the handler on addr until the context ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.logger.Info("listening", "addr", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	sessionID := core.NewID()
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("websocket read failed", "error", err.Error())
			}
			return
		}

		var in inbound
		if err := json.Unmarshal(payload, &in); err != nil {
			// Treat a non-JSON frame as the bare message text.
			in = inbound{Message: string(payload)}
		}
		if in.SessionID != "" {
			sessionID = in.SessionID
		}
		if in.Message == "" {
			continue
		}

		if err := s.relay(r.Context(), conn, sessionID, in.Message); err != nil {
			s.logger.Warn("relay failed", "session_id", sessionID, "error", err.Error())
			return
		}
	}
}

// relay streams one reply over the connection. Connection write failures end
// the exchange; orchestration failures already surface as a final record.
func (s *Server) relay(ctx context.Context, conn *websocket.Conn, sessionID, message string) error {
	records, err := s.mesh.Chat(ctx, sessionID, message)
	if err != nil {
		return err
	}
	for m := range records {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(m); err != nil {
			// Drain the remaining records so the producer can finish.
			for range records {
			}
			return err
		}
	}
	return nil
}
