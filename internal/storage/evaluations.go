package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SaveEvaluation archives a report.
func (s *Store) SaveEvaluation(ctx context.Context, e EvaluationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evaluations (id, session_id, role, seniority, overall_score, recommendation, degraded, report_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Role, e.Seniority, e.OverallScore, e.Recommendation,
		e.Degraded, e.ReportJSON, formatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("saving evaluation: %w", err)
	}
	return nil
}

// GetEvaluation returns the report with the given id.
func (s *Store) GetEvaluation(ctx context.Context, id string) (EvaluationRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, role, seniority, overall_score, recommendation, degraded, report_json, created_at
		FROM evaluations WHERE id = ?`, id)
	e, err := scanEvaluation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return EvaluationRecord{}, ErrNotFound
	}
	return e, err
}

// ListEvaluations returns up to limit reports, newest first.
func (s *Store) ListEvaluations(ctx context.Context, limit int) ([]EvaluationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, seniority, overall_score, recommendation, degraded, report_json, created_at
		FROM evaluations ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []EvaluationRecord
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	return results, rows.Err()
}

// EvaluationStats aggregates the archive.
func (s *Store) EvaluationStats(ctx context.Context) (EvaluationStats, error) {
	st := EvaluationStats{ByRecommendation: make(map[string]int)}

	var avg sql.NullFloat64
	var degraded sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), AVG(overall_score), SUM(degraded) FROM evaluations`,
	).Scan(&st.Total, &avg, &degraded)
	if err != nil {
		return st, fmt.Errorf("aggregating evaluations: %w", err)
	}
	st.AverageOverall = avg.Float64
	st.Degraded = int(degraded.Int64)

	rows, err := s.db.QueryContext(ctx, `SELECT recommendation, COUNT(*) FROM evaluations GROUP BY recommendation`)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var rec string
		var n int
		if err := rows.Scan(&rec, &n); err != nil {
			return st, err
		}
		st.ByRecommendation[rec] = n
	}
	return st, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvaluation(sc scanner) (EvaluationRecord, error) {
	var e EvaluationRecord
	var createdAt string
	if err := sc.Scan(&e.ID, &e.SessionID, &e.Role, &e.Seniority, &e.OverallScore,
		&e.Recommendation, &e.Degraded, &e.ReportJSON, &createdAt); err != nil {
		return EvaluationRecord{}, err
	}
	t, err := parseTime("created_at", createdAt)
	if err != nil {
		return EvaluationRecord{}, err
	}
	e.CreatedAt = t
	return e, nil
}
