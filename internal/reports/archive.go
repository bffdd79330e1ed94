// Package reports archives finished interview reports and delivers them to
// an optional webhook through the durable job queue.
package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/intervue/internal/interview"
	"github.com/kalambet/intervue/internal/storage"
)

// JobDeliver is the job type for webhook delivery.
const JobDeliver = "deliver_report"

// ErrNotFound is returned for unknown report ids.
var ErrNotFound = errors.New("report not found")

// Store is the persistence the archive needs. *storage.Store satisfies it.
type Store interface {
	SaveEvaluation(ctx context.Context, e storage.EvaluationRecord) error
	GetEvaluation(ctx context.Context, id string) (storage.EvaluationRecord, error)
	ListEvaluations(ctx context.Context, limit int) ([]storage.EvaluationRecord, error)
	EvaluationStats(ctx context.Context) (storage.EvaluationStats, error)
	EnqueueJob(ctx context.Context, job storage.Job) error
}

// Summary is the list view of an archived report.
type Summary struct {
	ID             string                   `json:"id"`
	SessionID      string                   `json:"session_id"`
	Role           interview.Role           `json:"role"`
	Seniority      interview.Seniority      `json:"seniority"`
	OverallScore   int                      `json:"overall_score"`
	Recommendation interview.Recommendation `json:"recommendation"`
	Degraded       bool                     `json:"degraded"`
	CreatedAt      time.Time                `json:"created_at"`
}

// Archive stores reports in SQLite.
type Archive struct {
	store   Store
	webhook string
}

// NewArchive returns an Archive. When webhookURL is set every saved report is
// also queued for delivery.
func NewArchive(store Store, webhookURL string) *Archive {
	return &Archive{store: store, webhook: webhookURL}
}

// SaveReport archives r and, with a webhook configured, enqueues its
// delivery.
func (a *Archive) SaveReport(ctx context.Context, r interview.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	rec := storage.EvaluationRecord{
		ID:             r.ID,
		SessionID:      r.SessionID,
		Role:           string(r.Role),
		Seniority:      string(r.Seniority),
		OverallScore:   r.Evaluation.OverallScore,
		Recommendation: string(r.Evaluation.Recommendation),
		Degraded:       r.Degraded,
		ReportJSON:     string(data),
		CreatedAt:      time.Now().UTC(),
	}
	if err := a.store.SaveEvaluation(ctx, rec); err != nil {
		return err
	}

	if a.webhook == "" {
		return nil
	}
	payload, _ := json.Marshal(deliverPayload{ReportID: r.ID})
	job := storage.Job{
		ID:          uuid.NewString(),
		Type:        JobDeliver,
		PayloadJSON: string(payload),
	}
	if err := a.store.EnqueueJob(ctx, job); err != nil {
		return fmt.Errorf("queueing delivery of report %s: %w", r.ID, err)
	}
	return nil
}

// Get returns the archived report with the given id.
func (a *Archive) Get(ctx context.Context, id string) (interview.Report, error) {
	rec, err := a.store.GetEvaluation(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return interview.Report{}, ErrNotFound
	}
	if err != nil {
		return interview.Report{}, fmt.Errorf("loading report %s: %w", id, err)
	}
	var r interview.Report
	if err := json.Unmarshal([]byte(rec.ReportJSON), &r); err != nil {
		return interview.Report{}, fmt.Errorf("decoding report %s: %w", id, err)
	}
	return r, nil
}

// List returns up to limit summaries, newest first.
func (a *Archive) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	recs, err := a.store.ListEvaluations(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	out := make([]Summary, 0, len(recs))
	for _, r := range recs {
		out = append(out, Summary{
			ID:             r.ID,
			SessionID:      r.SessionID,
			Role:           interview.Role(r.Role),
			Seniority:      interview.Seniority(r.Seniority),
			OverallScore:   r.OverallScore,
			Recommendation: interview.Recommendation(r.Recommendation),
			Degraded:       r.Degraded,
			CreatedAt:      r.CreatedAt,
		})
	}
	return out, nil
}

// Stats aggregates the archive.
func (a *Archive) Stats(ctx context.Context) (storage.EvaluationStats, error) {
	return a.store.EvaluationStats(ctx)
}
