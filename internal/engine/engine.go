package engine

import (
	"context"
	"sort"
)

// Engine is a language model backend. The interview stages only need chat
// with optional structured output; readiness is checked at startup.
type Engine interface {
	// Chat sends messages to model and returns the assistant reply. When
	// schema is non-nil the backend is asked for JSON matching it.
	Chat(ctx context.Context, model string, messages []Message, schema *Schema) (string, error)

	// IsRunning reports whether the backend is reachable.
	IsRunning(ctx context.Context) bool

	// Name identifies the backend in logs and status output.
	Name() string
}

// Puller is implemented by backends that host models locally and can
// download missing ones.
type Puller interface {
	HasModel(ctx context.Context, name string) bool
	PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error
}

// Message is a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Schema is a JSON schema fragment describing structured output.
type Schema struct {
	Type                 string             `json:"type"`
	Description          string             `json:"description,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	Enum                 []string           `json:"enum,omitempty"`
	Minimum              *float64           `json:"minimum,omitempty"`
	Maximum              *float64           `json:"maximum,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty"`
}

// Object builds a closed object schema where every property is required.
func Object(props map[string]*Schema) *Schema {
	req := make([]string, 0, len(props))
	for k := range props {
		req = append(req, k)
	}
	sort.Strings(req)
	no := false
	return &Schema{Type: "object", Properties: props, Required: req, AdditionalProperties: &no}
}

// String builds a string schema, optionally restricted to enum values.
func String(desc string, enum ...string) *Schema {
	return &Schema{Type: "string", Description: desc, Enum: enum}
}

// Bool builds a boolean schema.
func Bool(desc string) *Schema {
	return &Schema{Type: "boolean", Description: desc}
}

// Number builds a numeric schema bounded to [lo,hi].
func Number(desc string, lo, hi float64) *Schema {
	return &Schema{Type: "number", Description: desc, Minimum: &lo, Maximum: &hi}
}

// Integer builds an integer schema bounded to [lo,hi].
func Integer(desc string, lo, hi float64) *Schema {
	return &Schema{Type: "integer", Description: desc, Minimum: &lo, Maximum: &hi}
}

// StringList builds an array-of-strings schema.
func StringList(desc string) *Schema {
	return &Schema{Type: "array", Description: desc, Items: &Schema{Type: "string"}}
}

// PullProgress reports download progress for a model pull.
type PullProgress struct {
	Status    string `json:"status"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
}
