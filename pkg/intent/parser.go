// Package intent turns natural-language meeting requests into a
// structured Intent. The LLM-backed parser is the production path;
// the rule parser covers offline use and tests. Both are opaque to
// the rest of the pipeline, which only sees the Intent type.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

const systemPrompt = `You are an intent extraction service for a meeting-booking assistant.
Analyze the user's prompt and respond with a single JSON object, no prose, no code fences:
{"action": "book_meeting" | "unknown", "contact_name": "<name or omit>", "ask_preferences": true|false, "date": "<YYYY-MM-DD or omit>"}
Use "unknown" when the prompt is not a meeting-booking request.`

// intentSchema validates the model reply before it is trusted.
const intentSchema = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"action": {"type": "string", "enum": ["book_meeting", "unknown"]},
		"contact_name": {"type": "string"},
		"ask_preferences": {"type": "boolean"},
		"date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"}
	},
	"required": ["action"]
}`

// LLMParser extracts intents with an LLM provider and validates the
// reply against a JSON Schema before unmarshalling.
type LLMParser struct {
	provider Provider
	model    string
	schema   *gojsonschema.Schema
}

// NewLLMParser creates a parser backed by the given provider and model.
func NewLLMParser(provider Provider, model string) (*LLMParser, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(intentSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile intent schema: %w", err)
	}
	return &LLMParser{
		provider: provider,
		model:    model,
		schema:   schema,
	}, nil
}

// Parse sends the prompt to the model and decodes the structured reply.
// A reply that fails schema validation yields ActionUnknown rather than
// an error; only transport failures surface as errors.
func (p *LLMParser) Parse(ctx context.Context, prompt string) (Intent, error) {
	raw, err := p.provider.Complete(ctx, CompletionRequest{
		Model:        p.model,
		SystemPrompt: systemPrompt,
		UserPrompt:   fmt.Sprintf("Analyze this prompt: %s", prompt),
		MaxTokens:    256,
	})
	if err != nil {
		return Intent{Action: ActionUnknown}, fmt.Errorf("intent completion failed: %w", err)
	}

	it, ok := p.decode(raw)
	if !ok {
		log.Warn().
			Str("provider", p.provider.Provider()).
			Msg("Intent reply failed validation, treating as unknown")
		return Intent{Action: ActionUnknown}, nil
	}

	return it, nil
}

// decode strips code fences, validates against the schema and
// unmarshals the reply.
func (p *LLMParser) decode(raw string) (Intent, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	result, err := p.schema.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil || !result.Valid() {
		return Intent{}, false
	}

	var it Intent
	if err := json.Unmarshal([]byte(cleaned), &it); err != nil {
		return Intent{}, false
	}

	// Dates must be real, not just well-formed.
	if it.Date != "" {
		if _, err := time.Parse("2006-01-02", it.Date); err != nil {
			it.Date = ""
		}
	}

	return it, true
}
