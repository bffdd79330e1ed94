package storage

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when inserting a record whose id is taken.
	ErrExists = errors.New("already exists")
	// ErrConflict is returned when an update carries a stale version.
	ErrConflict = errors.New("version conflict")
)

// SessionRecord is a serialised interview session.
type SessionRecord struct {
	ID        string
	StateJSON string
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt *time.Time
}

// EvaluationRecord is an archived interview report.
type EvaluationRecord struct {
	ID             string
	SessionID      string
	Role           string
	Seniority      string
	OverallScore   int
	Recommendation string
	Degraded       bool
	ReportJSON     string
	CreatedAt      time.Time
}

// EvaluationStats summarises the archive.
type EvaluationStats struct {
	Total            int            `json:"total"`
	Degraded         int            `json:"degraded"`
	AverageOverall   float64        `json:"average_overall"`
	ByRecommendation map[string]int `json:"by_recommendation"`
}

// Job statuses.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// Job is a unit of background work.
type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
