package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	// ErrUnknownKey is returned for a key outside the key table.
	ErrUnknownKey = errors.New("unknown config key")
	// ErrSecretKey is returned when a secret is written to the config file.
	ErrSecretKey = errors.New("secrets are not stored in the config file")
	// ErrInvalidValue is returned when a value does not parse as its key's type.
	ErrInvalidValue = errors.New("invalid value")
)

// KeyError reports a failure tied to a single config key.
type KeyError struct {
	Key string
	Err error
}

func (e *KeyError) Error() string {
	if errors.Is(e.Err, ErrUnknownKey) {
		return fmt.Sprintf("unknown config key: %q", e.Key)
	}
	return fmt.Sprintf("config key %s: %v", e.Key, e.Err)
}

func (e *KeyError) Unwrap() error { return e.Err }

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kFloat
	kDuration
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "INTERVUE_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.max_conns", typ: kInt, env: "INTERVUE_SERVER_MAX_CONNS",
		apply:   func(cfg *Config, v any) { cfg.Server.MaxConns = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MaxConns },
	},
	{
		key: "log.level", typ: kString, env: "INTERVUE_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "log.format", typ: kString, env: "INTERVUE_LOG_FORMAT",
		apply:   func(cfg *Config, v any) { cfg.Log.Format = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Format },
	},
	{
		key: "engine.backend", typ: kString, env: "INTERVUE_ENGINE_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Engine.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Engine.Backend },
	},
	{
		key: "ollama.base_url", typ: kString, env: "INTERVUE_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.BaseURL },
	},
	{
		key: "openrouter.base_url", typ: kString, env: "INTERVUE_OPENROUTER_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.OpenRouter.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.OpenRouter.BaseURL },
	},
	{
		key: "openrouter.api_key", typ: kString, env: "INTERVUE_OPENROUTER_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.OpenRouter.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.OpenRouter.APIKey },
	},
	{
		key: "models.fast", typ: kString, env: "INTERVUE_MODELS_FAST",
		apply:   func(cfg *Config, v any) { cfg.Models.Fast = v.(string) },
		extract: func(cfg Config) any { return cfg.Models.Fast },
	},
	{
		key: "models.deep", typ: kString, env: "INTERVUE_MODELS_DEEP",
		apply:   func(cfg *Config, v any) { cfg.Models.Deep = v.(string) },
		extract: func(cfg Config) any { return cfg.Models.Deep },
	},
	{
		key: "interview.max_questions", typ: kInt, env: "INTERVUE_INTERVIEW_MAX_QUESTIONS",
		apply:   func(cfg *Config, v any) { cfg.Interview.MaxQuestions = v.(int) },
		extract: func(cfg Config) any { return cfg.Interview.MaxQuestions },
	},
	{
		key: "interview.hard_threshold", typ: kFloat, env: "INTERVUE_INTERVIEW_HARD_THRESHOLD",
		apply:   func(cfg *Config, v any) { cfg.Interview.HardThreshold = v.(float64) },
		extract: func(cfg Config) any { return cfg.Interview.HardThreshold },
	},
	{
		key: "interview.hint_threshold", typ: kFloat, env: "INTERVUE_INTERVIEW_HINT_THRESHOLD",
		apply:   func(cfg *Config, v any) { cfg.Interview.HintThreshold = v.(float64) },
		extract: func(cfg Config) any { return cfg.Interview.HintThreshold },
	},
	{
		key: "interview.stage_timeout", typ: kDuration, env: "INTERVUE_INTERVIEW_STAGE_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Interview.StageTimeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Interview.StageTimeout },
	},
	{
		key: "interview.evaluation_timeout", typ: kDuration, env: "INTERVUE_INTERVIEW_EVALUATION_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Interview.EvaluationTimeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Interview.EvaluationTimeout },
	},
	{
		key: "interview.question_bank", typ: kString, env: "INTERVUE_INTERVIEW_QUESTION_BANK",
		apply:   func(cfg *Config, v any) { cfg.Interview.QuestionBank = v.(string) },
		extract: func(cfg Config) any { return cfg.Interview.QuestionBank },
	},
	{
		key: "session.store", typ: kString, env: "INTERVUE_SESSION_STORE",
		apply:   func(cfg *Config, v any) { cfg.Session.Store = v.(string) },
		extract: func(cfg Config) any { return cfg.Session.Store },
	},
	{
		key: "session.ttl", typ: kDuration, env: "INTERVUE_SESSION_TTL",
		apply:   func(cfg *Config, v any) { cfg.Session.TTL = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Session.TTL },
	},
	{
		key: "redis.url", typ: kString, env: "INTERVUE_REDIS_URL",
		apply:   func(cfg *Config, v any) { cfg.Redis.URL = v.(string) },
		extract: func(cfg Config) any { return cfg.Redis.URL },
	},
	{
		key: "storage.data_dir", typ: kString, env: "INTERVUE_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "delivery.webhook_url", typ: kString, env: "INTERVUE_DELIVERY_WEBHOOK_URL",
		apply:   func(cfg *Config, v any) { cfg.Delivery.WebhookURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Delivery.WebhookURL },
	},
	{
		key: "delivery.poll_interval", typ: kDuration, env: "INTERVUE_DELIVERY_POLL_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Delivery.PollInterval = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Delivery.PollInterval },
	},
}

// parse converts raw into the key's type.
func (s keySpec) parse(raw string) (any, error) {
	var (
		v   any
		err error
	)
	switch s.typ {
	case kInt:
		v, err = strconv.Atoi(raw)
	case kBool:
		v, err = strconv.ParseBool(raw)
	case kFloat:
		v, err = strconv.ParseFloat(raw, 64)
	case kDuration:
		v, err = time.ParseDuration(raw)
	default:
		return raw, nil
	}
	if err != nil {
		return nil, s.invalid(err)
	}
	return v, nil
}

// decode converts a stored value. Strings go through parse; numbers and
// booleans must match the key's type.
func (s keySpec) decode(raw json.RawMessage) (any, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return s.parse(str)
	}
	var (
		v   any
		err error
	)
	switch s.typ {
	case kInt:
		var n json.Number
		if err = json.Unmarshal(raw, &n); err == nil {
			v, err = strconv.Atoi(n.String())
		}
	case kFloat:
		var f float64
		err = json.Unmarshal(raw, &f)
		v = f
	case kBool:
		var b bool
		err = json.Unmarshal(raw, &b)
		v = b
	default:
		err = fmt.Errorf("want a string, got %s", raw)
	}
	if err != nil {
		return nil, s.invalid(err)
	}
	return v, nil
}

// encode renders a parsed value the way the config file stores it.
func (s keySpec) encode(v any) (json.RawMessage, error) {
	if d, ok := v.(time.Duration); ok {
		return json.Marshal(d.String())
	}
	return json.Marshal(v)
}

func (s keySpec) invalid(err error) error {
	return &KeyError{Key: s.key, Err: fmt.Errorf("%w: %w", ErrInvalidValue, err)}
}

func lookupKey(key string) (keySpec, error) {
	for _, s := range specs {
		if s.key == key {
			return s, nil
		}
	}
	return keySpec{}, &KeyError{Key: key, Err: ErrUnknownKey}
}

// applyFile copies stored values onto cfg. Secrets in the file are ignored
// and every value that fails to decode is reported.
func applyFile(cfg *Config, f *fileStore) error {
	var errs []error
	for _, s := range specs {
		if s.secret {
			continue
		}
		raw, ok := f.lookup(s)
		if !ok {
			continue
		}
		v, err := s.decode(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.apply(cfg, v)
	}
	if len(errs) > 0 {
		return fmt.Errorf("config file %s: %w", f.path, errors.Join(errs...))
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		v, err := s.parse(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] ignoring %s: %v\n", s.env, err)
			continue
		}
		s.apply(cfg, v)
	}
}

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll returns all non-secret config key/value pairs from cfg.
func ShowAll(cfg Config) []KeyInfo {
	var result []KeyInfo
	for _, s := range specs {
		if s.secret {
			continue
		}
		result = append(result, KeyInfo{Key: s.key, EnvVar: s.env, Value: fmt.Sprint(s.extract(cfg))})
	}
	return result
}

// ValidKeys returns the names of keys that SetKey accepts.
func ValidKeys() []string {
	var keys []string
	for _, s := range specs {
		if !s.secret {
			keys = append(keys, s.key)
		}
	}
	return keys
}

// SetKey parses value as key's type and writes it to the config file.
// Key failures are *KeyError values wrapping one of the Err sentinels.
func SetKey(key, value string) error {
	f, err := openFileStore(configFilePath())
	if err != nil {
		return err
	}
	return setKey(f, key, value)
}

func setKey(f *fileStore, key, value string) error {
	s, err := lookupKey(key)
	if err != nil {
		return err
	}
	if s.secret {
		return &KeyError{Key: key, Err: fmt.Errorf("%w; set %s instead", ErrSecretKey, s.env)}
	}
	v, err := s.parse(value)
	if err != nil {
		return err
	}
	raw, err := s.encode(v)
	if err != nil {
		return &KeyError{Key: key, Err: err}
	}
	return f.set(key, raw)
}
