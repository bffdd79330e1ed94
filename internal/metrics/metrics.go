// Package metrics keeps in-process counters for the interview workflow.
package metrics

import (
	"maps"
	"sync"
	"time"
)

// Metrics is safe for concurrent use.
type Metrics struct {
	mu                  sync.RWMutex
	sessionsStarted     int64
	sessionsEnded       int64
	turns               int64
	questionsAsked      int64
	evaluations         int64
	degradedEvaluations int64
	stageCalls          map[string]int64
	stageFallbacks      map[string]int64
	startedAt           time.Time
	lastUpdate          time.Time
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	SessionsStarted     int64            `json:"sessions_started"`
	SessionsEnded       int64            `json:"sessions_ended"`
	ActiveSessions      int64            `json:"active_sessions"`
	Turns               int64            `json:"turns"`
	QuestionsAsked      int64            `json:"questions_asked"`
	Evaluations         int64            `json:"evaluations"`
	DegradedEvaluations int64            `json:"degraded_evaluations"`
	StageCalls          map[string]int64 `json:"stage_calls"`
	StageFallbacks      map[string]int64 `json:"stage_fallbacks"`
	Uptime              string           `json:"uptime"`
	LastUpdate          time.Time        `json:"last_update"`
}

// New returns zeroed counters.
func New() *Metrics {
	now := time.Now()
	return &Metrics{
		stageCalls:     make(map[string]int64),
		stageFallbacks: make(map[string]int64),
		startedAt:      now,
		lastUpdate:     now,
	}
}

func (m *Metrics) update(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn()
	m.lastUpdate = time.Now()
}

func (m *Metrics) SessionStarted() { m.update(func() { m.sessionsStarted++ }) }

func (m *Metrics) SessionEnded() { m.update(func() { m.sessionsEnded++ }) }

func (m *Metrics) Turn() { m.update(func() { m.turns++ }) }

func (m *Metrics) QuestionAsked() { m.update(func() { m.questionsAsked++ }) }

// Evaluation counts a produced evaluation; degraded marks one that used any
// fallback.
func (m *Metrics) Evaluation(degraded bool) {
	m.update(func() {
		m.evaluations++
		if degraded {
			m.degradedEvaluations++
		}
	})
}

// StageCall counts one invocation of stage and whether it fell back.
func (m *Metrics) StageCall(stage string, fallback bool) {
	m.update(func() {
		m.stageCalls[stage]++
		if fallback {
			m.stageFallbacks[stage]++
		}
	})
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		SessionsStarted:     m.sessionsStarted,
		SessionsEnded:       m.sessionsEnded,
		ActiveSessions:      m.sessionsStarted - m.sessionsEnded,
		Turns:               m.turns,
		QuestionsAsked:      m.questionsAsked,
		Evaluations:         m.evaluations,
		DegradedEvaluations: m.degradedEvaluations,
		StageCalls:          maps.Clone(m.stageCalls),
		StageFallbacks:      maps.Clone(m.stageFallbacks),
		Uptime:              time.Since(m.startedAt).Truncate(time.Second).String(),
		LastUpdate:          m.lastUpdate,
	}
}
