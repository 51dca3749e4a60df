package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/temu/pkg/executor"
	"github.com/harun/temu/pkg/intent"
	"github.com/harun/temu/pkg/plan"
	"github.com/harun/temu/pkg/responder"
	"github.com/harun/temu/pkg/session"
)

type stubParser struct {
	intent intent.Intent
	err    error
}

func (s stubParser) Parse(_ context.Context, _ string) (intent.Intent, error) {
	return s.intent, s.err
}

// scriptedExecutor serves canned results per "{api}_{action}" key.
type scriptedExecutor struct {
	results map[string]executor.StepResult
	calls   []string
}

func (s *scriptedExecutor) Execute(_ context.Context, api plan.API, action string, _ map[string]any) executor.StepResult {
	key := string(api) + "_" + action
	s.calls = append(s.calls, key)
	if res, ok := s.results[key]; ok {
		return res
	}
	return executor.StepResult{Success: false, Error: "unscripted step"}
}

func happyExecutor() *scriptedExecutor {
	return &scriptedExecutor{results: map[string]executor.StepResult{
		"contacts_find_contact": {Success: true, Payload: map[string]any{
			"contact_id": "c123", "name": "John", "email": "john@example.com",
		}},
		"calendar_get_free_slots": {Success: true, Payload: map[string]any{
			"date": "2025-06-12",
			"slots": []any{
				map[string]any{"start_time": "2025-06-12T09:00:00Z", "end_time": "2025-06-12T09:30:00Z"},
			},
		}},
	}}
}

func TestProcessUserPromptUnknownIntent(t *testing.T) {
	exec := happyExecutor()
	a := New(stubParser{intent: intent.Intent{Action: intent.ActionUnknown}}, exec, "s1")

	resp, err := a.ProcessUserPrompt(context.Background(), "what's the weather", "primary")

	require.NoError(t, err)
	assert.Equal(t, "I'm not sure what you want to do. Can you clarify?", resp.Message)
	assert.Equal(t, responder.StatusError, resp.Status)
	assert.Empty(t, exec.calls, "no plan should run for a non-booking prompt")
}

func TestProcessUserPromptParserErrorClarifies(t *testing.T) {
	a := New(stubParser{
		intent: intent.Intent{Action: intent.ActionUnknown},
		err:    assert.AnError,
	}, happyExecutor(), "s1")

	resp, err := a.ProcessUserPrompt(context.Background(), "asdf", "primary")

	require.NoError(t, err)
	assert.Equal(t, responder.StatusError, resp.Status)
}

func TestProcessUserPromptBooksMeeting(t *testing.T) {
	exec := happyExecutor()
	a := New(stubParser{intent: intent.Intent{
		Action:      intent.ActionBookMeeting,
		ContactName: "John",
	}}, exec, "s1")

	resp, err := a.ProcessUserPrompt(context.Background(), "book a meeting with John", "primary")

	require.NoError(t, err)
	assert.Equal(t, "Meeting slots found and processed.", resp.Message)
	assert.Equal(t, responder.StatusSuccess, resp.Status)
	assert.Equal(t, []string{"contacts_find_contact", "calendar_get_free_slots"}, exec.calls)
	assert.Nil(t, a.Pending())
}

func TestProcessUserPromptSuspendsOnSlotFailure(t *testing.T) {
	exec := happyExecutor()
	exec.results["calendar_get_free_slots"] = executor.StepResult{
		Success: false, Error: "could not find contact email",
	}
	a := New(stubParser{intent: intent.Intent{
		Action:      intent.ActionBookMeeting,
		ContactName: "John",
	}}, exec, "s1")

	resp, err := a.ProcessUserPrompt(context.Background(), "book a meeting with John", "primary")

	require.NoError(t, err)
	assert.Equal(t, "Failed to find available slots. Please specify a date.", resp.Message)
	require.NotNil(t, a.Pending())
	assert.Equal(t, plan.ActionGetFreeSlots, a.Pending().Action)
}

func TestProcessUserPromptPersistsSession(t *testing.T) {
	store, err := session.Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer store.Close()

	exec := happyExecutor()
	exec.results["calendar_get_free_slots"] = executor.StepResult{
		Success: false, Error: "could not find contact email",
	}
	a := New(stubParser{intent: intent.Intent{
		Action:      intent.ActionBookMeeting,
		ContactName: "John",
	}}, exec, "s1")
	a.SetStore(store)

	ctx := context.Background()
	_, err = a.ProcessUserPrompt(ctx, "book a meeting with John", "primary")
	require.NoError(t, err)

	turns, err := store.Turns(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "agent", turns[1].Role)

	pending, err := store.Pending(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, plan.ActionGetFreeSlots, pending.Action)

	// A successful retry clears the persisted pending action.
	exec.results["calendar_get_free_slots"] = executor.StepResult{
		Success: true,
		Payload: map[string]any{"date": "2025-06-12", "slots": []any{}},
	}
	_, err = a.ProcessUserPrompt(ctx, "try 2025-06-12", "primary")
	require.NoError(t, err)

	pending, err = store.Pending(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestHubIsolatesSessions(t *testing.T) {
	hub := NewHub(stubParser{intent: intent.Intent{Action: intent.ActionBookMeeting, ContactName: "John"}}, happyExecutor(), nil, nil)

	a := hub.Get("s1")
	b := hub.Get("s2")
	assert.NotSame(t, a, b)
	assert.Same(t, a, hub.Get("s1"))

	exec := &scriptedExecutor{results: map[string]executor.StepResult{
		"calendar_get_free_slots": {Success: false, Error: "no date"},
	}}
	hub2 := NewHub(stubParser{intent: intent.Intent{Action: intent.ActionBookMeeting}}, exec, nil, nil)

	_, err := hub2.Get("s1").ProcessUserPrompt(context.Background(), "book a meeting", "primary")
	require.NoError(t, err)

	assert.NotNil(t, hub2.Get("s1").Pending())
	assert.Nil(t, hub2.Get("s2").Pending(), "pending state must not leak across sessions")
}

func TestHubDropReleasesAgents(t *testing.T) {
	hub := NewHub(stubParser{intent: intent.Intent{Action: intent.ActionUnknown}}, happyExecutor(), nil, nil)

	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("one-shot-%d", i)
		_, err := hub.Get(key).ProcessUserPrompt(context.Background(), "hi", "primary")
		require.NoError(t, err)
		hub.Drop(key)
	}

	assert.Equal(t, 0, hub.Len(), "dropped agents must not accumulate")
}

func TestHubEvictsIdleAgents(t *testing.T) {
	hub := NewHub(stubParser{}, happyExecutor(), nil, nil)

	hub.Get("s1")
	hub.Get("s2")
	require.Equal(t, 2, hub.Len())

	assert.Equal(t, 0, hub.EvictIdle(time.Hour), "fresh agents survive eviction")
	assert.Equal(t, 2, hub.Len())

	time.Sleep(10 * time.Millisecond)
	old := hub.Get("s1") // touching s1 keeps it alive
	time.Sleep(10 * time.Millisecond)
	hub.Get("s1")

	assert.Equal(t, 1, hub.EvictIdle(15*time.Millisecond))
	assert.Equal(t, 1, hub.Len())
	assert.Same(t, old, hub.Get("s1"))
}

// overlapExecutor records the highest number of concurrently running
// Execute calls it observes.
type overlapExecutor struct {
	mu          sync.Mutex
	inFlight    int
	maxInFlight int
}

func (o *overlapExecutor) Execute(_ context.Context, _ plan.API, _ string, _ map[string]any) executor.StepResult {
	o.mu.Lock()
	o.inFlight++
	if o.inFlight > o.maxInFlight {
		o.maxInFlight = o.inFlight
	}
	o.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	o.mu.Lock()
	o.inFlight--
	o.mu.Unlock()

	return executor.StepResult{Success: true, Payload: map[string]any{
		"date": "2025-06-12", "slots": []any{},
	}}
}

func TestProcessUserPromptSerializesPerAgent(t *testing.T) {
	exec := &overlapExecutor{}
	a := New(stubParser{intent: intent.Intent{Action: intent.ActionBookMeeting}}, exec, "s1")

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.ProcessUserPrompt(context.Background(), "book a meeting", "primary")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, exec.maxInFlight, "prompts on one agent must not interleave")
}
