// Package preferences serves meeting preferences. Values are
// config-like defaults; the ask-user path is resumable rather than
// blocking: the first call reports that input is needed and returns
// the override defaults, and a later call can supply the user's actual
// answer out of band.
package preferences

import (
	"context"
	"sync"
)

// Preferences are the scheduling knobs a user can tune.
type Preferences struct {
	Duration       int      `json:"duration"` // minutes
	PreferredTimes []string `json:"preferred_times"`
	Buffer         int      `json:"buffer"` // minutes between meetings
}

// Result is a preference lookup outcome. NeedsInput is set when the
// ask-user path ran without a previously supplied answer; the values
// are then the override defaults, usable as-is until the user answers.
type Result struct {
	Preferences
	NeedsInput bool `json:"needs_input,omitempty"`
}

// Store serves per-user preferences. Answers supplied through Supply
// take precedence over the built-in defaults on later ask-user calls.
type Store struct {
	mu       sync.RWMutex
	supplied map[string]Preferences
}

// NewStore creates an empty preference store.
func NewStore() *Store {
	return &Store{supplied: make(map[string]Preferences)}
}

// defaults are served when the caller does not ask the user.
func defaults() Preferences {
	return Preferences{
		Duration:       30,
		PreferredTimes: []string{"morning", "afternoon"},
		Buffer:         15,
	}
}

// askDefaults are served on the ask-user path until an answer arrives.
func askDefaults() Preferences {
	return Preferences{
		Duration:       45,
		PreferredTimes: []string{"afternoon"},
		Buffer:         10,
	}
}

// Get returns the user's meeting preferences. With askUser unset the
// static defaults come back. With askUser set, a previously supplied
// answer wins; otherwise the override defaults are returned together
// with NeedsInput so the caller can request the real answer without
// blocking the pipeline.
func (s *Store) Get(_ context.Context, userID string, askUser bool) (*Result, error) {
	if !askUser {
		return &Result{Preferences: defaults()}, nil
	}

	s.mu.RLock()
	answered, ok := s.supplied[userID]
	s.mu.RUnlock()

	if ok {
		return &Result{Preferences: answered}, nil
	}
	return &Result{Preferences: askDefaults(), NeedsInput: true}, nil
}

// Supply records the user's answer for later ask-user lookups.
func (s *Store) Supply(userID string, prefs Preferences) {
	s.mu.Lock()
	s.supplied[userID] = prefs
	s.mu.Unlock()
}

// Clear forgets a previously supplied answer.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	delete(s.supplied, userID)
	s.mu.Unlock()
}
