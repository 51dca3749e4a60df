// Package gateway exposes the booking agent over WebSocket and plain
// HTTP. Connections authenticate with an HMAC challenge-response on a
// shared secret before any prompt is accepted.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/harun/temu/internal/metrics"
	"github.com/harun/temu/pkg/agent"
	"github.com/harun/temu/pkg/preferences"
	"github.com/harun/temu/pkg/session"
)

// Server is the network front of the agent.
type Server struct {
	port         int
	sharedSecret string
	server       *http.Server
	upgrader     websocket.Upgrader
	authHandler  *AuthHandler
	hub          *agent.Hub
	prefs        *preferences.Store
	metrics      *metrics.Metrics
	logger       zerolog.Logger

	clientsMu sync.Mutex
	clients   map[string]*Client

	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// Config holds server configuration.
type Config struct {
	Port         int
	SharedSecret string
	Hub          *agent.Hub
	Preferences  *preferences.Store
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

// NewServer creates a gateway server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.SharedSecret == "" {
		return nil, fmt.Errorf("shared secret is required")
	}
	if cfg.Hub == nil {
		return nil, fmt.Errorf("agent hub is required")
	}

	return &Server{
		port:         cfg.Port,
		sharedSecret: cfg.SharedSecret,
		authHandler:  NewAuthHandler(cfg.SharedSecret),
		hub:          cfg.Hub,
		prefs:        cfg.Preferences,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		clients:      make(map[string]*Client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}, nil
}

// Handler builds the HTTP mux. Split out so tests can serve it without
// binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/prompt", s.handlePrompt)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

// Start starts serving. Non-blocking.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	s.logger.Info().Int("port", s.port).Msg("Starting gateway server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Gateway server error")
		}
	}()
	return nil
}

// Stop drains in-flight requests and shuts the server down.
func (s *Server) Stop() error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down gateway server")

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("Shutdown timeout reached, forcing close")
	}

	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Conn.Close()
	}
	s.clientsMu.Unlock()

	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info().Msg("Gateway server stopped")
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	if s.isShuttingDown {
		s.shutdownMu.RUnlock()
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.shutdownMu.RUnlock()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	clientID, _ := gonanoid.New()
	client := &Client{
		ID:          clientID,
		Conn:        conn,
		ConnectedAt: time.Now(),
		IPAddress:   r.RemoteAddr,
		RateLimiter: NewClientRateLimiter(),
		State:       StateConnecting,
	}

	s.clientsMu.Lock()
	s.clients[clientID] = client
	s.clientsMu.Unlock()

	s.logger.Info().Str("clientId", clientID).Str("ip", r.RemoteAddr).Msg("Client connected")

	if err := s.sendAuthChallenge(client); err != nil {
		s.logger.Error().Err(err).Str("clientId", clientID).Msg("Failed to send auth challenge")
		conn.Close()
		s.removeClient(clientID)
		return
	}

	go s.handleClient(client)
}

func (s *Server) removeClient(id string) {
	s.clientsMu.Lock()
	delete(s.clients, id)
	s.clientsMu.Unlock()
}

func (s *Server) sendAuthChallenge(client *Client) error {
	challenge, err := s.authHandler.GenerateChallenge()
	if err != nil {
		return err
	}
	client.Challenge = challenge
	client.State = StateAuthenticating
	return client.WriteJSON(AuthChallenge{Event: "auth.challenge", Challenge: challenge})
}

func (s *Server) handleClient(client *Client) {
	defer func() {
		client.Conn.Close()
		s.removeClient(client.ID)
		s.logger.Info().Str("clientId", client.ID).Msg("Client disconnected")
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Error().Err(err).Str("clientId", client.ID).Msg("WebSocket error")
			}
			return
		}
		s.handleMessage(client, message)
	}
}

func (s *Server) handleMessage(client *Client, message []byte) {
	var authResp AuthResponse
	if err := json.Unmarshal(message, &authResp); err == nil && authResp.Method == "auth.response" {
		s.handleAuthMessage(client, authResp)
		return
	}

	if !client.Authenticated {
		s.sendError(client, "", AuthenticationRequired, "Authentication required")
		return
	}

	var req Request
	if err := json.Unmarshal(message, &req); err != nil {
		s.sendError(client, "", ParseError, "invalid request")
		return
	}

	allowed, reason := client.RateLimiter.CheckRequestAllowed()
	if !allowed {
		code := RateLimitExceeded
		if reason == "too many concurrent requests" {
			code = TooManyConcurrent
		}
		s.sendError(client, req.ID, code, reason)
		return
	}

	client.RateLimiter.RecordRequestStart()
	s.inFlightReqs.Add(1)

	go func() {
		defer client.RateLimiter.RecordRequestEnd()
		defer s.inFlightReqs.Done()

		resp := s.dispatch(context.Background(), req)
		if err := client.WriteJSON(resp); err != nil {
			s.logger.Error().
				Err(err).
				Str("clientId", client.ID).
				Str("requestId", req.ID).
				Msg("Failed to send response")
		}
	}()
}

// dispatch routes one authenticated request.
func (s *Server) dispatch(ctx context.Context, req Request) Response {
	switch req.Method {
	case "prompt":
		return s.handlePromptRequest(ctx, req)

	case "session.new":
		key, err := session.NewKey()
		if err != nil {
			return Response{ID: req.ID, Error: &ReqError{Code: InternalError, Message: err.Error()}}
		}
		return Response{ID: req.ID, Result: map[string]string{"session_key": key}}

	case "preferences.supply":
		if s.prefs == nil {
			return Response{ID: req.ID, Error: &ReqError{Code: InternalError, Message: "preferences not configured"}}
		}
		if req.Params.UserID == "" {
			return Response{ID: req.ID, Error: &ReqError{Code: InvalidParams, Message: "user_id is required"}}
		}
		s.prefs.Supply(req.Params.UserID, preferences.Preferences{
			Duration:       req.Params.Duration,
			PreferredTimes: req.Params.PreferredTimes,
			Buffer:         req.Params.Buffer,
		})
		return Response{ID: req.ID, Result: map[string]bool{"ok": true}}

	default:
		return Response{ID: req.ID, Error: &ReqError{
			Code:    UnknownMethod,
			Message: fmt.Sprintf("unknown method: %s", req.Method),
		}}
	}
}

func (s *Server) handlePromptRequest(ctx context.Context, req Request) Response {
	if req.Params.Prompt == "" {
		return Response{ID: req.ID, Error: &ReqError{Code: InvalidParams, Message: "prompt is required"}}
	}
	userID := req.Params.UserID
	if userID == "" {
		userID = "primary"
	}
	sessionKey := req.Params.SessionKey
	oneShot := sessionKey == ""
	if oneShot {
		sessionKey, _ = gonanoid.New()
	}

	ag := s.hub.Get(sessionKey)
	if oneShot {
		// Keyless prompts are single-shot; without this the hub would
		// retain one agent per prompt for the life of the daemon.
		defer s.hub.Drop(sessionKey)
	}
	resp, err := ag.ProcessUserPrompt(ctx, req.Params.Prompt, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("session", sessionKey).Msg("Prompt processing failed")
		return Response{ID: req.ID, Error: &ReqError{Code: InternalError, Message: err.Error()}}
	}

	return Response{ID: req.ID, Result: map[string]any{
		"message":     resp.Message,
		"status":      string(resp.Status),
		"session_key": sessionKey,
		"pending":     ag.Pending() != nil,
	}}
}

// handlePrompt is the single-shot HTTP variant of the prompt method,
// authenticated by header instead of challenge-response.
func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.Header.Get("X-Temu-Secret") != s.sharedSecret {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.Method == "" {
		req.Method = "prompt"
	}

	s.inFlightReqs.Add(1)
	defer s.inFlightReqs.Done()

	resp := s.dispatch(r.Context(), req)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) handleAuthMessage(client *Client, authResp AuthResponse) {
	result := s.authHandler.HandleAuthResponse(client, authResp.Signature)

	if err := client.WriteJSON(result); err != nil {
		s.logger.Error().Err(err).Str("clientId", client.ID).Msg("Failed to send auth result")
		return
	}

	if !result.Success {
		s.logger.Warn().
			Str("clientId", client.ID).
			Str("reason", result.Message).
			Msg("Authentication failed")
		if client.AuthAttempts >= maxAuthAttempts {
			client.Conn.Close()
		}
		return
	}
	s.logger.Info().Str("clientId", client.ID).Msg("Client authenticated")
}

func (s *Server) sendError(client *Client, requestID string, code int, message string) {
	resp := Response{ID: requestID, Error: &ReqError{Code: code, Message: message}}
	if err := client.WriteJSON(resp); err != nil {
		s.logger.Error().Err(err).Str("clientId", client.ID).Msg("Failed to send error response")
	}
}
