package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/temu/pkg/agent"
	"github.com/harun/temu/pkg/executor"
	"github.com/harun/temu/pkg/intent"
	"github.com/harun/temu/pkg/plan"
	"github.com/harun/temu/pkg/preferences"
)

type stubParser struct{ intent intent.Intent }

func (s stubParser) Parse(_ context.Context, _ string) (intent.Intent, error) {
	return s.intent, nil
}

type stubExecutor struct{}

func (stubExecutor) Execute(_ context.Context, api plan.API, action string, _ map[string]any) executor.StepResult {
	switch string(api) + "_" + action {
	case "contacts_find_contact":
		return executor.StepResult{Success: true, Payload: map[string]any{"contact_id": "c123"}}
	case "calendar_get_free_slots":
		return executor.StepResult{Success: true, Payload: map[string]any{
			"date":  "2025-06-12",
			"slots": []any{map[string]any{"start_time": "2025-06-12T09:00:00Z"}},
		}}
	default:
		return executor.StepResult{Success: false, Error: "unscripted"}
	}
}

func newTestServer(t *testing.T) (*Server, *preferences.Store) {
	t.Helper()
	prefs := preferences.NewStore()
	hub := agent.NewHub(stubParser{intent: intent.Intent{
		Action:      intent.ActionBookMeeting,
		ContactName: "John",
	}}, stubExecutor{}, nil, nil)

	s, err := NewServer(Config{
		Port:         18080,
		SharedSecret: "test-secret",
		Hub:          hub,
		Preferences:  prefs,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	return s, prefs
}

func TestNewServerValidation(t *testing.T) {
	_, err := NewServer(Config{Port: 0, SharedSecret: "x", Hub: &agent.Hub{}})
	assert.Error(t, err)

	_, err = NewServer(Config{Port: 8080, SharedSecret: "", Hub: &agent.Hub{}})
	assert.Error(t, err)

	_, err = NewServer(Config{Port: 8080, SharedSecret: "x"})
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPPromptRequiresSecret(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	body := `{"id":"1","method":"prompt","params":{"prompt":"book a meeting with John"}}`

	resp, err := http.Post(ts.URL+"/prompt", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHTTPPrompt(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	body := `{"id":"1","method":"prompt","params":{"prompt":"book a meeting with John","session_key":"s1"}}`
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/prompt", bytes.NewReader([]byte(body)))
	req.Header.Set("X-Temu-Secret", "test-secret")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Nil(t, out.Error)

	result := out.Result.(map[string]any)
	assert.Equal(t, "Meeting slots found and processed.", result["message"])
	assert.Equal(t, "success", result["status"])
	assert.Equal(t, "s1", result["session_key"])
	assert.Equal(t, false, result["pending"])
}

func TestHTTPPromptKeylessDoesNotRetainAgents(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	body := `{"id":"1","method":"prompt","params":{"prompt":"book a meeting with John"}}`
	for i := 0; i < 10; i++ {
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/prompt", bytes.NewReader([]byte(body)))
		req.Header.Set("X-Temu-Secret", "test-secret")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out Response
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		resp.Body.Close()
		require.Nil(t, out.Error)
		result := out.Result.(map[string]any)
		assert.NotEmpty(t, result["session_key"], "one-shot prompts still report their session key")
	}

	assert.Equal(t, 0, s.hub.Len(), "keyless prompts must not accumulate agents")

	// A keyed prompt keeps its agent for the session's lifetime.
	keyed := `{"id":"2","method":"prompt","params":{"prompt":"book a meeting with John","session_key":"sticky"}}`
	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/prompt", bytes.NewReader([]byte(keyed)))
	req.Header.Set("X-Temu-Secret", "test-secret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1, s.hub.Len())
}

func TestDispatchPreferencesSupply(t *testing.T) {
	s, prefs := newTestServer(t)

	resp := s.dispatch(context.Background(), Request{
		ID:     "1",
		Method: "preferences.supply",
		Params: RequestParams{
			UserID:         "primary",
			Duration:       60,
			PreferredTimes: []string{"morning"},
			Buffer:         5,
		},
	})
	require.Nil(t, resp.Error)

	got, err := prefs.Get(context.Background(), "primary", true)
	require.NoError(t, err)
	assert.Equal(t, 60, got.Duration)
	assert.False(t, got.NeedsInput)
}

func TestDispatchUnknownMethod(t *testing.T) {
	s, _ := newTestServer(t)

	resp := s.dispatch(context.Background(), Request{ID: "1", Method: "nope"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, UnknownMethod, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "nope")
}

func TestWebSocketFlow(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var challenge AuthChallenge
	require.NoError(t, conn.ReadJSON(&challenge))
	assert.Equal(t, "auth.challenge", challenge.Event)

	// A request before authenticating is rejected.
	require.NoError(t, conn.WriteJSON(Request{ID: "0", Method: "prompt", Params: RequestParams{Prompt: "hi"}}))
	var denied Response
	require.NoError(t, conn.ReadJSON(&denied))
	require.NotNil(t, denied.Error)
	assert.Equal(t, AuthenticationRequired, denied.Error.Code)

	require.NoError(t, conn.WriteJSON(AuthResponse{
		Method:    "auth.response",
		Signature: Sign("test-secret", challenge.Challenge),
	}))
	var authResult AuthResult
	require.NoError(t, conn.ReadJSON(&authResult))
	require.True(t, authResult.Success)

	require.NoError(t, conn.WriteJSON(Request{
		ID:     "1",
		Method: "prompt",
		Params: RequestParams{Prompt: "book a meeting with John", SessionKey: "ws1"},
	}))
	var out Response
	require.NoError(t, conn.ReadJSON(&out))
	require.Nil(t, out.Error)

	result := out.Result.(map[string]any)
	assert.Equal(t, "Meeting slots found and processed.", result["message"])
}

func TestWebSocketBadSignature(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var challenge AuthChallenge
	require.NoError(t, conn.ReadJSON(&challenge))

	require.NoError(t, conn.WriteJSON(AuthResponse{Method: "auth.response", Signature: "bogus"}))
	var authResult AuthResult
	require.NoError(t, conn.ReadJSON(&authResult))
	assert.False(t, authResult.Success)
	assert.Equal(t, "Invalid signature", authResult.Message)
}
