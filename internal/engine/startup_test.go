package engine

import (
	"context"
	"io"
	"testing"
)

type mockEngine struct {
	isRunning bool
	models    map[string]bool
	pulled    []string
}

func (m *mockEngine) Chat(_ context.Context, _ string, _ []Message, _ *Schema) (string, error) {
	return "", nil
}
func (m *mockEngine) IsRunning(_ context.Context) bool              { return m.isRunning }
func (m *mockEngine) Name() string                                  { return "mock" }
func (m *mockEngine) HasModel(_ context.Context, name string) bool { return m.models[name] }
func (m *mockEngine) PullModel(_ context.Context, name string, cb func(PullProgress)) error {
	m.pulled = append(m.pulled, name)
	if cb != nil {
		cb(PullProgress{Status: "success"})
	}
	return nil
}

// hostedEngine has no local models.
type hostedEngine struct{ up bool }

func (h hostedEngine) Chat(_ context.Context, _ string, _ []Message, _ *Schema) (string, error) {
	return "", nil
}
func (h hostedEngine) IsRunning(_ context.Context) bool { return h.up }
func (h hostedEngine) Name() string                     { return "hosted" }

func TestEnsureReady_AllModelsPresent(t *testing.T) {
	m := &mockEngine{isRunning: true, models: map[string]bool{"llama3.1": true, "qwen2.5:14b": true}}
	if err := EnsureReady(context.Background(), m, []string{"llama3.1", "qwen2.5:14b"}, io.Discard); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if len(m.pulled) != 0 {
		t.Errorf("expected no pulls, got %v", m.pulled)
	}
}

func TestEnsureReady_PullsMissingOnce(t *testing.T) {
	m := &mockEngine{isRunning: true, models: map[string]bool{"llama3.1": true}}
	models := []string{"llama3.1", "qwen2.5:14b", "qwen2.5:14b", ""}
	if err := EnsureReady(context.Background(), m, models, io.Discard); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if len(m.pulled) != 1 || m.pulled[0] != "qwen2.5:14b" {
		t.Errorf("pulled = %v, want [qwen2.5:14b]", m.pulled)
	}
}

func TestEnsureReady_EngineDown(t *testing.T) {
	m := &mockEngine{isRunning: false}
	if err := EnsureReady(context.Background(), m, []string{"llama3.1"}, io.Discard); err == nil {
		t.Fatal("expected error when engine is down")
	}
}

func TestEnsureReady_HostedSkipsPull(t *testing.T) {
	if err := EnsureReady(context.Background(), hostedEngine{up: true}, []string{"x"}, io.Discard); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if err := EnsureReady(context.Background(), hostedEngine{}, []string{"x"}, io.Discard); err == nil {
		t.Fatal("expected error for unreachable hosted engine")
	}
}
