package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/coopermor/hive/internal/config"
	"github.com/coopermor/hive/internal/event"
	"github.com/coopermor/hive/internal/fleet"
	"github.com/coopermor/hive/internal/roster"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HttpServer exposes the fleet over a JSON API plus a websocket that pushes
// session events to connected dashboards.
type HttpServer struct {
	logger   *slog.Logger
	server   *http.Server
	manager  *fleet.Manager
	store    roster.Store
	wsServer *WebSocketServer

	// commandLimiter throttles remote command dispatch across all bots;
	// a misbehaving front-end must not be able to spam the game server.
	commandLimiter *rate.Limiter
}

func New(logger *slog.Logger, manager *fleet.Manager, store roster.Store) (*HttpServer, error) {
	return &HttpServer{
		logger:         logger,
		manager:        manager,
		store:          store,
		wsServer:       NewWebSocketServer(),
		commandLimiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}, nil
}

func (s *HttpServer) Listen(port int) error {
	go s.wsServer.Run()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/bots", s.handleBots)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/connect", s.handleConnect)
	mux.HandleFunc("POST /api/disconnect", s.handleDisconnect)
	mux.HandleFunc("POST /api/remove", s.handleRemove)
	mux.HandleFunc("POST /api/command", s.handleCommand)
	mux.HandleFunc("POST /api/roster", s.handleRosterAdd)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *HttpServer) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// HandleEvent is registered on the event listener; every session event is
// fanned out to the websocket dashboards.
func (s *HttpServer) HandleEvent(_ context.Context, e event.Event) error {
	msg, err := json.Marshal(map[string]any{
		"bot":        e.Bot(),
		"message":    e.Message(),
		"occurredAt": e.OccurredAt(),
	})
	if err != nil {
		return err
	}
	s.wsServer.Broadcast(msg)
	return nil
}

func (s *HttpServer) handleBots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.StatusAll())
}

func (s *HttpServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, s.manager.Status(name))
}

func (s *HttpServer) handleConnect(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	// the dial blocks until the transport answers; don't hold the request
	go func() {
		if err := s.manager.Connect(context.Background(), name); err != nil {
			s.logger.Error("connect failed", slog.String("bot", name), slog.Any("error", err))
		}
	}()
	w.WriteHeader(http.StatusAccepted)
}

func (s *HttpServer) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := s.manager.Disconnect(name); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *HttpServer) handleRemove(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	s.manager.Remove(name)
	if s.store != nil {
		if err := s.store.Delete(r.Context(), name); err != nil {
			s.logger.Error("error removing roster entry", slog.String("bot", name), slog.Any("error", err))
		}
	}
	w.WriteHeader(http.StatusOK)
}

type commandRequest struct {
	Name    string `json:"name"`
	Command string `json:"command"`
}

func (s *HttpServer) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Command == "" {
		http.Error(w, "name and command are required", http.StatusBadRequest)
		return
	}
	if !s.commandLimiter.Allow() {
		http.Error(w, "too many commands", http.StatusTooManyRequests)
		return
	}
	if err := s.manager.SendCommand(req.Name, req.Command); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type rosterAddRequest struct {
	Name string        `json:"name"`
	Bot  config.BotCfg `json:"bot"`
}

func (s *HttpServer) handleRosterAdd(w http.ResponseWriter, r *http.Request) {
	var req rosterAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := config.AddBot(req.Name, &req.Bot); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.store != nil {
		entry := roster.Bot{Name: req.Name, Config: req.Bot, CreatedAt: time.Now().UTC()}
		if err := s.store.Save(r.Context(), entry); err != nil {
			s.logger.Error("error persisting roster entry", slog.String("bot", req.Name), slog.Any("error", err))
		}
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *HttpServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}
	client := &Client{conn: conn, send: make(chan []byte, 16)}
	s.wsServer.register <- client

	go client.writePump()
	go func() {
		defer func() { s.wsServer.unregister <- client }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
