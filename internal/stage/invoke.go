// Package stage runs one model-backed interview stage: a bounded model call
// whose reply is decoded strictly into the stage's output type, with a
// deterministic fallback whenever the call or the decoding fails.
package stage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/intervue/internal/engine"
	"github.com/kalambet/intervue/internal/interview"
)

// Chatter is the language model capability the stages need.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []engine.Message, schema *engine.Schema) (string, error)
}

// ErrNoBackend is reported when a stage runs without a model backend.
var ErrNoBackend = errors.New("no model backend configured")

// CallError describes why a stage fell back.
type CallError struct {
	Stage string
	Err   error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *CallError) Unwrap() []error {
	return []error{interview.ErrStageCall, e.Err}
}

// Spec describes one stage call.
type Spec[T any] struct {
	Name    string
	Model   string
	Timeout time.Duration
	Schema  *engine.Schema
	// Validate rejects decoded values that are well-formed JSON but unusable.
	// It may also normalise the value in place.
	Validate func(*T) error
}

// Result is the stage output and how it was obtained.
type Result[T any] struct {
	Value    T
	Fallback bool
	Err      error
	Duration time.Duration
}

// Invoke calls the model with messages under spec.Timeout and decodes the
// reply into T. On any failure it logs a warning and returns fallback()
// instead; the returned Result is always usable.
func Invoke[T any](ctx context.Context, c Chatter, spec Spec[T], messages []engine.Message, fallback func() T) Result[T] {
	start := time.Now()

	v, err := call(ctx, c, spec, messages)
	if err != nil {
		cerr := &CallError{Stage: spec.Name, Err: err}
		slog.Warn(spec.Name+" stage fell back", "error", err, "model", spec.Model)
		return Result[T]{Value: fallback(), Fallback: true, Err: cerr, Duration: time.Since(start)}
	}
	return Result[T]{Value: v, Duration: time.Since(start)}
}

func call[T any](ctx context.Context, c Chatter, spec Spec[T], messages []engine.Message) (T, error) {
	var zero T
	if c == nil {
		return zero, ErrNoBackend
	}

	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	raw, err := c.Chat(ctx, spec.Model, messages, spec.Schema)
	if err != nil {
		return zero, fmt.Errorf("chat: %w", err)
	}

	var v T
	if err := Decode(raw, spec.Schema, &v); err != nil {
		return zero, err
	}
	if spec.Validate != nil {
		if err := spec.Validate(&v); err != nil {
			return zero, fmt.Errorf("validating output: %w", err)
		}
	}
	return v, nil
}
