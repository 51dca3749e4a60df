// Package agent is the top of the pipeline: one agent per conversation
// session, turning a raw user prompt into a user-facing response via
// intent parsing, plan construction, plan execution, and response
// synthesis.
package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/harun/temu/internal/metrics"
	"github.com/harun/temu/pkg/intent"
	"github.com/harun/temu/pkg/plan"
	"github.com/harun/temu/pkg/responder"
	"github.com/harun/temu/pkg/runner"
	"github.com/harun/temu/pkg/session"
)

// Agent processes prompts for one conversation session. The runner it
// owns carries per-session state (the pending action of a suspended
// run), so agents must not be shared across sessions.
type Agent struct {
	parser     intent.Parser
	runner     *runner.Runner
	sessionKey string

	// Serializes prompt processing: two prompts racing through one
	// runner would leave whichever run finished last as the session's
	// pending state.
	mu sync.Mutex

	store   *session.Store
	metrics *metrics.Metrics
}

// New creates an agent for one session over the given parser and step
// executor.
func New(parser intent.Parser, exec runner.StepExecutor, sessionKey string) *Agent {
	return &Agent{
		parser:     parser,
		runner:     runner.New(exec),
		sessionKey: sessionKey,
	}
}

// SetStore attaches a session store for turn history and pending-action
// persistence. Optional; without it the agent keeps state in memory
// only.
func (a *Agent) SetStore(s *session.Store) {
	a.store = s
}

// SetMetrics attaches a metrics registry. Optional.
func (a *Agent) SetMetrics(m *metrics.Metrics) {
	a.metrics = m
	a.runner.SetMetrics(m)
}

// Pending exposes the session's pending action, if the last run
// suspended.
func (a *Agent) Pending() *runner.PendingAction {
	return a.runner.Pending()
}

// ProcessUserPrompt runs the full pipeline for one prompt. Prompts the
// parser cannot map to a booking request short-circuit to a
// clarification response before any plan is built. The error return is
// reserved for infrastructure failures; domain-level failures surface
// in the response message instead. Concurrent prompts on the same
// agent are processed one at a time.
func (a *Agent) ProcessUserPrompt(ctx context.Context, prompt, userID string) (responder.Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.recordTurn(ctx, "user", prompt, userID)

	it, err := a.parser.Parse(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("Intent parsing failed, asking for clarification")
	}
	if it.Action != intent.ActionBookMeeting {
		resp := responder.Clarification()
		a.finish(ctx, resp, userID)
		return resp, nil
	}

	p, err := plan.Build(it, userID)
	if err != nil {
		return responder.Response{}, fmt.Errorf("failed to build plan: %w", err)
	}

	log.Info().
		Str("plan_id", p.ID).
		Str("session", a.sessionKey).
		Int("steps", len(p.Steps)).
		Msg("Executing plan")

	results := a.runner.Run(ctx, p)
	a.persistPending(ctx)

	resp := responder.Synthesize(results)
	a.finish(ctx, resp, userID)
	return resp, nil
}

// persistPending mirrors the runner's pending action into the session
// store so a restart does not lose a suspended conversation.
func (a *Agent) persistPending(ctx context.Context) {
	if a.store == nil {
		return
	}
	if pending := a.runner.Pending(); pending != nil {
		if err := a.store.SetPending(ctx, a.sessionKey, *pending); err != nil {
			log.Error().Err(err).Msg("Failed to persist pending action")
		}
		return
	}
	if err := a.store.ClearPending(ctx, a.sessionKey); err != nil {
		log.Error().Err(err).Msg("Failed to clear pending action")
	}
}

func (a *Agent) finish(ctx context.Context, resp responder.Response, userID string) {
	a.recordTurn(ctx, "agent", resp.Message, userID)
	a.metrics.ObservePrompt(string(resp.Status))
}

func (a *Agent) recordTurn(ctx context.Context, role, content, userID string) {
	if a.store == nil {
		return
	}
	if err := a.store.Ensure(ctx, a.sessionKey, userID); err != nil {
		log.Error().Err(err).Msg("Failed to ensure session")
		return
	}
	if err := a.store.AppendTurn(ctx, a.sessionKey, role, content); err != nil {
		log.Error().Err(err).Msg("Failed to record turn")
	}
}
