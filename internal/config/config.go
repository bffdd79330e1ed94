// Package config loads intervue settings from defaults, a JSON config file,
// a .env file and INTERVUE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Engine     EngineConfig
	Ollama     OllamaConfig
	OpenRouter OpenRouterConfig
	Models     ModelsConfig
	Interview  InterviewConfig
	Session    SessionConfig
	Redis      RedisConfig
	Storage    StorageConfig
	Delivery   DeliveryConfig
}

type ServerConfig struct {
	Port     int
	MaxConns int
}

type LogConfig struct {
	Level  string
	Format string
}

type EngineConfig struct {
	// Backend is ollama, openrouter or none.
	Backend string
}

type OllamaConfig struct {
	BaseURL string
}

type OpenRouterConfig struct {
	BaseURL string
	APIKey  string
}

type ModelsConfig struct {
	Fast string
	Deep string
}

type InterviewConfig struct {
	MaxQuestions      int
	HardThreshold     float64
	HintThreshold     float64
	StageTimeout      time.Duration
	EvaluationTimeout time.Duration
	QuestionBank      string
}

type SessionConfig struct {
	// Store is memory, sqlite or redis.
	Store string
	TTL   time.Duration
}

type RedisConfig struct {
	URL string
}

type StorageConfig struct {
	DataDir string
}

type DeliveryConfig struct {
	WebhookURL   string
	PollInterval time.Duration
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:     4100,
			MaxConns: 256,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Engine: EngineConfig{
			Backend: "ollama",
		},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
		},
		OpenRouter: OpenRouterConfig{
			BaseURL: "https://openrouter.ai/api/v1",
		},
		Models: ModelsConfig{
			Fast: "phi3.5",
			Deep: "mistral-nemo",
		},
		Interview: InterviewConfig{
			MaxQuestions:      8,
			HardThreshold:     7,
			HintThreshold:     4,
			StageTimeout:      15 * time.Second,
			EvaluationTimeout: 60 * time.Second,
		},
		Session: SessionConfig{
			Store: "memory",
			TTL:   24 * time.Hour,
		},
		Redis: RedisConfig{
			URL: "redis://localhost:6379/0",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Delivery: DeliveryConfig{
			PollInterval: 2 * time.Second,
		},
	}
}

// Load reads the configuration.
//
// The config file is a JSON object at $XDG_CONFIG_HOME/intervue/config.json;
// a stored value that does not parse as its key's type fails Load. A .env
// file in the working directory is loaded into the environment without
// replacing variables that are already set. INTERVUE_* environment variables
// override file values, and secrets fall back to the secrets file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "[WARN] could not load .env: %v\n", err)
	}
	f, err := openFileStore(configFilePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] %v. Using default values.\n", err)
	}
	return loadWith(f, NewKeychain())
}

func loadWith(f *fileStore, kc Keychain) (Config, error) {
	cfg := defaults()

	if err := applyFile(&cfg, f); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.OpenRouter.APIKey == "" {
		if key, err := kc.Get(keychainService, openRouterAccount); err == nil && key != "" {
			cfg.OpenRouter.APIKey = key
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated and range-bound settings.
func (c Config) Validate() error {
	var errs []error
	if !oneOf(c.Engine.Backend, "ollama", "openrouter", "none") {
		errs = append(errs, fmt.Errorf("engine.backend: unknown backend %q", c.Engine.Backend))
	}
	if !oneOf(c.Session.Store, "memory", "sqlite", "redis") {
		errs = append(errs, fmt.Errorf("session.store: unknown store %q", c.Session.Store))
	}
	if !oneOf(c.Log.Format, "text", "json") {
		errs = append(errs, fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: %d out of range", c.Server.Port))
	}
	if c.Interview.MaxQuestions < 3 {
		errs = append(errs, fmt.Errorf("interview.max_questions: %d is below 3", c.Interview.MaxQuestions))
	}
	if c.Interview.StageTimeout <= 0 || c.Interview.EvaluationTimeout <= 0 {
		errs = append(errs, errors.New("interview timeouts must be positive"))
	}
	if c.Session.TTL < 0 {
		errs = append(errs, errors.New("session.ttl must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
