// Package runner drives a plan's steps through the step executor in
// strict order, implementing the partial-failure semantics of the
// pipeline: most step failures are recorded and execution continues,
// but a failed free-slot lookup suspends the run and leaves a pending
// action for the conversation to resolve.
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/harun/temu/internal/metrics"
	"github.com/harun/temu/pkg/executor"
	"github.com/harun/temu/pkg/plan"
)

// State is the lifecycle of one plan run.
type State string

const (
	StateRunning   State = "running"
	StateSuspended State = "suspended"
	StateDone      State = "done"
)

// PendingAction marks a run that stopped early awaiting externally
// supplied information, such as an explicit date. It belongs to one
// conversation session and is never shared across sessions.
type PendingAction struct {
	Action    string `json:"action"`
	SubjectID string `json:"subject_id"`
}

// Results accumulates step outcomes keyed by "{api}_{action}". Keys
// are unique per run; if a pair repeats, the last write wins. A step
// missing from the map after a run means the run suspended before
// reaching it.
type Results map[string]executor.StepResult

// StepExecutor executes one step. Satisfied by *executor.Executor.
type StepExecutor interface {
	Execute(ctx context.Context, api plan.API, action string, params map[string]any) executor.StepResult
}

// Runner executes plans sequentially for a single conversation
// session. It is not meant to be shared across sessions: the pending
// action it tracks is session state.
type Runner struct {
	exec    StepExecutor
	metrics *metrics.Metrics

	mu      sync.Mutex
	state   State
	pending *PendingAction
}

// New creates a runner over the given step executor.
func New(exec StepExecutor) *Runner {
	return &Runner{exec: exec, state: StateDone}
}

// SetMetrics attaches a metrics registry. Optional.
func (r *Runner) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
}

// State returns the state left by the last run.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Pending returns the pending action of a suspended run, or nil.
func (r *Runner) Pending() *PendingAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Run executes the plan's steps in insertion order. Any pending action
// from an earlier run is cleared first; a new one is recorded if this
// run suspends. The returned results hold one entry per executed step.
func (r *Runner) Run(ctx context.Context, p *plan.Plan) Results {
	start := time.Now()

	r.mu.Lock()
	r.state = StateRunning
	r.pending = nil
	r.mu.Unlock()

	results := make(Results, len(p.Steps))
	state := StateDone

	for _, step := range p.Steps {
		params := r.bindParams(step, results)
		res := r.exec.Execute(ctx, step.API, step.Action, params)
		results[step.Key()] = res

		if !res.Success && step.Action == plan.ActionGetFreeSlots {
			// The free-slot lookup is the only step whose failure is
			// fatal to the turn: without a resolvable date and contact
			// email there is nothing left to do but ask the user.
			// Other failures are recorded and execution continues.
			subject, _ := params["other_user_id"].(string)
			r.suspend(plan.ActionGetFreeSlots, subject)
			state = StateSuspended
			break
		}
	}

	r.mu.Lock()
	r.state = state
	r.mu.Unlock()

	r.metrics.ObservePlanRun(string(state), time.Since(start))
	log.Debug().
		Str("plan_id", p.ID).
		Str("state", string(state)).
		Int("steps", len(p.Steps)).
		Int("executed", len(results)).
		Msg("Plan run finished")

	return results
}

// bindParams resolves late-bound parameters just before execution. The
// free-slot step's other_user_id placeholder is filled from the
// contact step's output when that step succeeded. The plan itself is
// never mutated.
func (r *Runner) bindParams(step plan.Step, results Results) map[string]any {
	params := make(map[string]any, len(step.Params))
	for k, v := range step.Params {
		params[k] = v
	}

	if step.Action == plan.ActionGetFreeSlots && params["other_user_id"] == plan.PlaceholderOtherUser {
		if contact, ok := results[string(plan.APIContacts)+"_"+plan.ActionFindContact]; ok && contact.Success {
			if id, ok := contact.Payload["contact_id"].(string); ok && id != "" {
				params["other_user_id"] = id
			}
		}
	}

	return params
}

func (r *Runner) suspend(action, subjectID string) {
	r.mu.Lock()
	r.pending = &PendingAction{Action: action, SubjectID: subjectID}
	r.mu.Unlock()

	r.metrics.ObserveSuspension()
	log.Info().
		Str("action", action).
		Str("subject_id", subjectID).
		Msg("Plan run suspended on pending action")
}
