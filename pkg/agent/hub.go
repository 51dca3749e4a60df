package agent

import (
	"sync"
	"time"

	"github.com/harun/temu/internal/metrics"
	"github.com/harun/temu/pkg/intent"
	"github.com/harun/temu/pkg/runner"
	"github.com/harun/temu/pkg/session"
)

// Hub hands out one agent per session key. All agents share the parser
// and step executor; the runner inside each agent is what keeps
// sessions isolated from each other.
type Hub struct {
	parser  intent.Parser
	exec    runner.StepExecutor
	store   *session.Store
	metrics *metrics.Metrics

	mu     sync.Mutex
	agents map[string]*hubEntry
}

type hubEntry struct {
	agent    *Agent
	lastUsed time.Time
}

// NewHub creates an empty hub over shared collaborators. Store and
// metrics may be nil.
func NewHub(parser intent.Parser, exec runner.StepExecutor, store *session.Store, m *metrics.Metrics) *Hub {
	return &Hub{
		parser:  parser,
		exec:    exec,
		store:   store,
		metrics: m,
		agents:  make(map[string]*hubEntry),
	}
}

// Get returns the session's agent, creating it on first use.
func (h *Hub) Get(sessionKey string) *Agent {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e, ok := h.agents[sessionKey]; ok {
		e.lastUsed = time.Now()
		return e.agent
	}

	a := New(h.parser, h.exec, sessionKey)
	if h.store != nil {
		a.SetStore(h.store)
	}
	if h.metrics != nil {
		a.SetMetrics(h.metrics)
	}
	h.agents[sessionKey] = &hubEntry{agent: a, lastUsed: time.Now()}
	h.metrics.SetActiveSessions(len(h.agents))
	return a
}

// Drop removes the session's agent, if any. Session history and any
// persisted pending action stay in the store; a later Get recreates
// the agent over them.
func (h *Hub) Drop(sessionKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.agents, sessionKey)
	h.metrics.SetActiveSessions(len(h.agents))
}

// Len reports the number of live agents.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.agents)
}

// EvictIdle removes agents that have not been fetched for longer than
// maxIdle and returns how many were removed. An in-flight prompt on an
// evicted agent finishes normally; its session state lives in the
// store, not the agent.
func (h *Hub) EvictIdle(maxIdle time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	evicted := 0
	for key, e := range h.agents {
		if e.lastUsed.Before(cutoff) {
			delete(h.agents, key)
			evicted++
		}
	}
	if evicted > 0 {
		h.metrics.SetActiveSessions(len(h.agents))
	}
	return evicted
}
