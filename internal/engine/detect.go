package engine

import (
	"errors"
	"fmt"
)

// Backend names accepted by Detect.
const (
	BackendOllama     = "ollama"
	BackendOpenRouter = "openrouter"
	BackendNone       = "none"
)

// ErrMissingAPIKey is returned when the hosted backend has no key.
var ErrMissingAPIKey = errors.New("missing OpenRouter API key")

// DetectConfig holds parameters for backend selection.
type DetectConfig struct {
	Backend           string
	OllamaBaseURL     string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
}

// Detect returns the Engine named by cfg.Backend. BackendNone returns a nil
// Engine, which makes every stage use its deterministic fallback.
func Detect(cfg DetectConfig) (Engine, error) {
	switch cfg.Backend {
	case "", BackendOllama:
		return NewOllamaEngine(cfg.OllamaBaseURL), nil
	case BackendOpenRouter:
		if cfg.OpenRouterAPIKey == "" {
			return nil, fmt.Errorf("%w: set INTERVUE_OPENROUTER_API_KEY", ErrMissingAPIKey)
		}
		return NewOpenRouterEngine(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL), nil
	case BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown engine backend %q", cfg.Backend)
	}
}
