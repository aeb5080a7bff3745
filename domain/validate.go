package domain

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	MaxTitleLength       = 50
	MaxDescriptionLength = 100
)

var draftSchemaSource = fmt.Sprintf(`{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["title", "description", "dueDate", "priority"],
  "properties": {
    "title":       {"type": "string", "minLength": 1, "maxLength": %d},
    "description": {"type": "string", "minLength": 1, "maxLength": %d},
    "dueDate":     {"type": "string", "format": "date-time"},
    "priority":    {"type": "string", "minLength": 1}
  }
}`, MaxTitleLength, MaxDescriptionLength)

var (
	draftSchemaOnce sync.Once
	draftSchema     *jsonschema.Schema
	draftSchemaErr  error
)

func compiledDraftSchema() (*jsonschema.Schema, error) {
	draftSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource("draft.json", strings.NewReader(draftSchemaSource)); err != nil {
			draftSchemaErr = err
			return
		}
		draftSchema, draftSchemaErr = compiler.Compile("draft.json")
	})
	return draftSchema, draftSchemaErr
}

// ValidationError lists rejected draft fields with a message each.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid task: " + strings.Join(parts, "; ")
}

// ValidateDraft checks a draft at the input boundary. Lengths are counted in
// characters, not bytes.
func ValidateDraft(d Draft) error {
	schema, err := compiledDraftSchema()
	if err != nil {
		return fmt.Errorf("draft schema: %w", err)
	}
	due := ""
	if !d.DueDate.IsZero() {
		due = d.DueDate.Format(time.RFC3339)
	}
	doc := map[string]interface{}{
		"title":       d.Title,
		"description": d.Description,
		"dueDate":     due,
		"priority":    d.Priority,
	}
	if err := schema.Validate(doc); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return err
		}
		out := &ValidationError{Fields: map[string]string{}}
		collectDraftErrors(out, ve)
		return out
	}
	return nil
}

func collectDraftErrors(out *ValidationError, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		field := strings.TrimPrefix(err.InstanceLocation, "/")
		if field == "" {
			field = "task"
		}
		if _, exists := out.Fields[field]; !exists {
			out.Fields[field] = err.Message
		}
		return
	}
	for _, cause := range err.Causes {
		collectDraftErrors(out, cause)
	}
}

// DraftReady mirrors the add form's submit guard: both text fields filled in.
func DraftReady(d Draft) bool {
	return d.Title != "" && d.Description != ""
}
