package engine

import (
	"errors"
	"testing"
)

func TestDetect_DefaultsToOllama(t *testing.T) {
	e, err := Detect(DetectConfig{OllamaBaseURL: "http://localhost:11434"})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if _, ok := e.(*OllamaEngine); !ok {
		t.Errorf("Detect returned %T, want *OllamaEngine", e)
	}
}

func TestDetect_OpenRouter(t *testing.T) {
	e, err := Detect(DetectConfig{Backend: BackendOpenRouter, OpenRouterAPIKey: "k"})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if _, ok := e.(*OpenRouterEngine); !ok {
		t.Errorf("Detect returned %T, want *OpenRouterEngine", e)
	}
}

func TestDetect_OpenRouterWithoutKey(t *testing.T) {
	_, err := Detect(DetectConfig{Backend: BackendOpenRouter})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestDetect_None(t *testing.T) {
	e, err := Detect(DetectConfig{Backend: BackendNone})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if e != nil {
		t.Errorf("Detect(none) = %T, want nil", e)
	}
}

func TestDetect_Unknown(t *testing.T) {
	if _, err := Detect(DetectConfig{Backend: "mlx"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
