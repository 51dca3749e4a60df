package executor

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/harun/temu/pkg/plan"
)

// rawSchemas hold one JSON Schema per known (api, action) pair.
// Unknown pairs pass through so dispatch can report them with the
// structured unknown-operation error instead.
var rawSchemas = map[string]string{
	"contacts_" + plan.ActionFindContact: `{
		"type": "object",
		"properties": {"name": {"type": "string", "minLength": 1}},
		"required": ["name"]
	}`,
	"contacts_" + plan.ActionGetContactDetails: `{
		"type": "object",
		"properties": {"contact_id": {"type": "string", "minLength": 1}},
		"required": ["contact_id"]
	}`,
	"calendar_" + plan.ActionCheckAvailability: `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"start_time": {"type": "string", "minLength": 1},
			"end_time": {"type": "string", "minLength": 1}
		},
		"required": ["user_id", "start_time", "end_time"]
	}`,
	"calendar_" + plan.ActionGetFreeSlots: `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"other_user_id": {"type": "string", "minLength": 1},
			"date": {"type": "string"}
		},
		"required": ["user_id", "other_user_id"]
	}`,
	"calendar_" + plan.ActionBookMeeting: `{
		"type": "object",
		"properties": {
			"title": {"type": "string", "minLength": 1},
			"attendees": {"type": "array", "items": {"type": "string"}},
			"start_time": {"type": "string", "minLength": 1},
			"end_time": {"type": "string", "minLength": 1},
			"description": {"type": "string"}
		},
		"required": ["title", "attendees", "start_time", "end_time"]
	}`,
	"preferences_" + plan.ActionGetPreferences: `{
		"type": "object",
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"ask_user": {"type": "boolean"}
		},
		"required": ["user_id"]
	}`,
}

var schemas = compileSchemas()

func compileSchemas() map[string]*gojsonschema.Schema {
	compiled := make(map[string]*gojsonschema.Schema, len(rawSchemas))
	for key, raw := range rawSchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			panic(fmt.Sprintf("invalid step schema %s: %v", key, err))
		}
		compiled[key] = schema
	}
	return compiled
}

// validateParams checks the step parameters against the action's
// schema, if one is registered.
func validateParams(api plan.API, action string, params map[string]any) error {
	schema, ok := schemas[fmt.Sprintf("%s_%s", api, action)]
	if !ok {
		return nil
	}
	if params == nil {
		params = map[string]any{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return err
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("validation errors: %v", msgs)
	}

	return nil
}
