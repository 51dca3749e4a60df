package gateway

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ClientState tracks where a connection is in its lifecycle.
type ClientState string

const (
	StateConnecting     ClientState = "connecting"
	StateAuthenticating ClientState = "authenticating"
	StateAuthenticated  ClientState = "authenticated"
)

// Client is one WebSocket connection.
type Client struct {
	ID            string
	Conn          *websocket.Conn
	Authenticated bool
	Challenge     string
	AuthAttempts  int
	ConnectedAt   time.Time
	IPAddress     string
	RateLimiter   *ClientRateLimiter
	State         ClientState

	// Gorilla connections allow one concurrent writer.
	writeMu sync.Mutex
}

// WriteJSON serializes the write side of the connection.
func (c *Client) WriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteJSON(v)
}

// Request is a client message after authentication.
type Request struct {
	ID     string        `json:"id"`
	Method string        `json:"method"`
	Params RequestParams `json:"params"`
}

// RequestParams carries the union of parameters across methods.
type RequestParams struct {
	Prompt     string `json:"prompt,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	SessionKey string `json:"session_key,omitempty"`

	// preferences.supply
	Duration       int      `json:"duration,omitempty"`
	PreferredTimes []string `json:"preferred_times,omitempty"`
	Buffer         int      `json:"buffer,omitempty"`
}

// Response answers one request.
type Response struct {
	ID     string    `json:"id"`
	Result any       `json:"result,omitempty"`
	Error  *ReqError `json:"error,omitempty"`
}

// ReqError is a structured request failure.
type ReqError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Request error codes.
const (
	ParseError             = -32700
	UnknownMethod          = -32601
	InvalidParams          = -32602
	InternalError          = -32603
	AuthenticationRequired = -32000
	RateLimitExceeded      = -32001
	TooManyConcurrent      = -32002
)

// AuthChallenge is sent to a client right after connecting.
type AuthChallenge struct {
	Event     string `json:"event"`
	Challenge string `json:"challenge"`
}

// AuthResponse is the client's answer to a challenge.
type AuthResponse struct {
	Method    string `json:"method"`
	Signature string `json:"signature"`
}

// AuthResult reports the outcome of an authentication attempt.
type AuthResult struct {
	Event   string `json:"event"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
