package stage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kalambet/intervue/internal/engine"
)

var (
	// ErrNoJSON is returned when a reply contains no JSON object.
	ErrNoJSON = errors.New("no JSON object in response")
	// ErrMissingField is returned when a reply omits a required key or sets
	// it to null.
	ErrMissingField = errors.New("missing required field")
)

// ExtractJSON returns the outermost JSON object in resp. Markdown code fences
// and surrounding prose are discarded.
func ExtractJSON(resp string) (string, error) {
	s := strings.TrimSpace(resp)

	if idx := strings.Index(s, "```"); idx != -1 {
		s = s[idx+3:]
		s = strings.TrimPrefix(s, "json")
		if end := strings.Index(s, "```"); end != -1 {
			s = s[:end]
		}
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return "", ErrNoJSON
	}
	return s[start : end+1], nil
}

// Decode extracts the JSON object from resp, checks it against schema and
// decodes it into v. Every key the schema requires must be present and
// non-null at every object level. Unknown fields and trailing data are
// errors. A nil schema skips the required-key check.
func Decode(resp string, schema *engine.Schema, v any) error {
	obj, err := ExtractJSON(resp)
	if err != nil {
		return err
	}
	if err := checkRequired(json.RawMessage(obj), schema, ""); err != nil {
		return fmt.Errorf("decoding output: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(obj)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding output: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("decoding output: trailing data")
	}
	return nil
}

// checkRequired walks raw alongside s. Objects must carry every required key
// with a non-null value; arrays are checked element by element.
func checkRequired(raw json.RawMessage, s *engine.Schema, path string) error {
	if s == nil {
		return nil
	}
	switch s.Type {
	case "object":
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return fmt.Errorf("%s: want object: %w", displayPath(path), err)
		}
		if fields == nil {
			return fmt.Errorf("%w: %s", ErrMissingField, displayPath(path))
		}
		for _, key := range s.Required {
			val, ok := fields[key]
			if !ok || isNull(val) {
				return fmt.Errorf("%w: %s", ErrMissingField, join(path, key))
			}
		}
		for key, prop := range s.Properties {
			val, ok := fields[key]
			if !ok || isNull(val) {
				continue
			}
			if err := checkRequired(val, prop, join(path, key)); err != nil {
				return err
			}
		}
	case "array":
		if s.Items == nil || s.Items.Type != "object" && s.Items.Type != "array" {
			return nil
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return fmt.Errorf("%s: want array: %w", displayPath(path), err)
		}
		for i, item := range items {
			if err := checkRequired(item, s.Items, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func displayPath(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}
