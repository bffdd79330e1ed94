package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kalambet/intervue/internal/analyzer"
	"github.com/kalambet/intervue/internal/config"
	"github.com/kalambet/intervue/internal/coordinator"
	"github.com/kalambet/intervue/internal/decision"
	"github.com/kalambet/intervue/internal/engine"
	"github.com/kalambet/intervue/internal/feedback"
	"github.com/kalambet/intervue/internal/interviewer"
	"github.com/kalambet/intervue/internal/metrics"
	"github.com/kalambet/intervue/internal/reports"
	"github.com/kalambet/intervue/internal/session"
	"github.com/kalambet/intervue/internal/stage"
	"github.com/kalambet/intervue/internal/storage"
)

// stack is the wired interview service shared by serve and mcp.
type stack struct {
	coord    *coordinator.Coordinator
	archive  *reports.Archive
	metrics  *metrics.Metrics
	store    *storage.Store
	sessions session.Store
	engine   engine.Engine
}

// buildStack opens storage, the session store and the model backend and
// wires the coordinator. Startup progress goes to w.
func buildStack(ctx context.Context, cfg config.Config, w io.Writer) (*stack, error) {
	eng, err := engine.Detect(engine.DetectConfig{
		Backend:           cfg.Engine.Backend,
		OllamaBaseURL:     cfg.Ollama.BaseURL,
		OpenRouterAPIKey:  cfg.OpenRouter.APIKey,
		OpenRouterBaseURL: cfg.OpenRouter.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("detecting inference engine: %w", err)
	}
	if eng != nil {
		if err := engine.EnsureReady(ctx, eng, []string{cfg.Models.Fast, cfg.Models.Deep}, w); err != nil {
			return nil, err
		}
	} else {
		slog.Warn("no model backend configured, every stage uses its fallback")
	}

	var bank *interviewer.Bank
	if cfg.Interview.QuestionBank != "" {
		if bank, err = interviewer.LoadBank(cfg.Interview.QuestionBank); err != nil {
			return nil, fmt.Errorf("loading question bank: %w", err)
		}
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	sessions, err := openSessions(ctx, cfg, store)
	if err != nil {
		store.Close()
		return nil, err
	}

	// A nil Engine must stay a nil Chatter so the stages see no client.
	var chat stage.Chatter
	if eng != nil {
		chat = eng
	}

	policy := decision.Policy{
		MaxQuestions:  cfg.Interview.MaxQuestions,
		HardThreshold: cfg.Interview.HardThreshold,
		HintThreshold: cfg.Interview.HintThreshold,
	}
	m := metrics.New()
	archive := reports.NewArchive(store, cfg.Delivery.WebhookURL)

	coord, err := coordinator.New(coordinator.Deps{
		Store:       sessions,
		Analyzer:    analyzer.New(chat, cfg.Models.Fast, cfg.Interview.StageTimeout),
		Decider:     decision.New(chat, cfg.Models.Fast, cfg.Interview.StageTimeout, policy),
		Interviewer: interviewer.New(chat, cfg.Models.Fast, cfg.Interview.StageTimeout, bank),
		Evaluator:   feedback.New(chat, cfg.Models.Deep, cfg.Interview.EvaluationTimeout),
		Sink:        archive,
		Metrics:     m,
	})
	if err != nil {
		sessions.Close()
		store.Close()
		return nil, err
	}

	return &stack{
		coord:    coord,
		archive:  archive,
		metrics:  m,
		store:    store,
		sessions: sessions,
		engine:   eng,
	}, nil
}

func openSessions(ctx context.Context, cfg config.Config, store *storage.Store) (session.Store, error) {
	opts := []session.Option{session.WithTTL(cfg.Session.TTL)}

	kind := session.Kind(cfg.Session.Store)
	switch kind {
	case session.KindRedis:
		ropts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis.url: %w", err)
		}
		client := redis.NewClient(ropts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		opts = append(opts, session.WithRedisClient(client))
	case session.KindSQLite:
		opts = append(opts, session.WithSQLite(store))
	}

	sessions, err := session.NewStore(kind, opts...)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}
	slog.Info("session store ready", "kind", kind, "ttl", cfg.Session.TTL)
	return sessions, nil
}

func (s *stack) Close() error {
	return errors.Join(s.sessions.Close(), s.store.Close())
}
