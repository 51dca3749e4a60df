package intent

import "context"

// Action is the user goal extracted from a prompt.
type Action string

const (
	// ActionBookMeeting asks the agent to schedule a meeting.
	ActionBookMeeting Action = "book_meeting"

	// ActionUnknown covers everything the parser could not map to a
	// supported action. The agent answers with a clarification request
	// instead of building a plan.
	ActionUnknown Action = "unknown"
)

// Intent is the structured form of a user prompt. It is produced once
// per prompt, never mutated, and consumed only by the plan builder.
type Intent struct {
	Action         Action `json:"action"`
	ContactName    string `json:"contact_name,omitempty"`
	AskPreferences bool   `json:"ask_preferences"`
	Date           string `json:"date,omitempty"` // ISO date (2006-01-02), optional
}

// Parser turns a raw prompt into an Intent. Implementations must not
// return an error for prompts they merely fail to understand; those
// map to ActionUnknown. Errors are reserved for transport failures.
type Parser interface {
	Parse(ctx context.Context, prompt string) (Intent, error)
}
