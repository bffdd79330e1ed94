package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InsertSession stores a new session at version 1. ttl <= 0 means the
// session never expires.
func (s *Store) InsertSession(ctx context.Context, id, stateJSON string, ttl time.Duration) (SessionRecord, error) {
	now := time.Now().UTC()
	rec := SessionRecord{ID: id, StateJSON: stateJSON, Version: 1, CreatedAt: now, UpdatedAt: now}
	if ttl > 0 {
		exp := now.Add(ttl)
		rec.ExpiresAt = &exp
	}

	// An expired row with the same id is dead; replace it.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, state_json, version, created_at, updated_at, expires_at)
		VALUES (?, ?, 1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state_json = excluded.state_json, version = 1,
			created_at = excluded.created_at, updated_at = excluded.updated_at, expires_at = excluded.expires_at
		WHERE sessions.expires_at IS NOT NULL AND sessions.expires_at <= excluded.created_at`,
		id, stateJSON, formatTime(now), formatTime(now), nullTime(rec.ExpiresAt),
	)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("inserting session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return SessionRecord{}, err
	}
	if n == 0 {
		return SessionRecord{}, ErrExists
	}
	return rec, nil
}

// GetSession returns a live session. Expired sessions are reported as
// ErrNotFound.
func (s *Store) GetSession(ctx context.Context, id string) (SessionRecord, error) {
	var rec SessionRecord
	var createdAt, updatedAt string
	var expiresAt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, state_json, version, created_at, updated_at, expires_at
		FROM sessions WHERE id = ? AND (expires_at IS NULL OR expires_at > ?)`,
		id, formatTime(time.Now()),
	).Scan(&rec.ID, &rec.StateJSON, &rec.Version, &createdAt, &updatedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, ErrNotFound
	}
	if err != nil {
		return SessionRecord{}, err
	}

	if rec.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return SessionRecord{}, err
	}
	if rec.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return SessionRecord{}, err
	}
	if expiresAt.Valid {
		t, err := parseTime("expires_at", expiresAt.String)
		if err != nil {
			return SessionRecord{}, err
		}
		rec.ExpiresAt = &t
	}
	return rec, nil
}

// UpdateSession replaces the state of a live session if its stored version
// equals version, and returns the new version. The expiry is pushed out by ttl.
func (s *Store) UpdateSession(ctx context.Context, id, stateJSON string, version int64, ttl time.Duration) (int64, error) {
	now := time.Now().UTC()
	var exp *time.Time
	if ttl > 0 {
		t := now.Add(ttl)
		exp = &t
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET state_json = ?, version = version + 1, updated_at = ?, expires_at = ?
		WHERE id = ? AND version = ? AND (expires_at IS NULL OR expires_at > ?)`,
		stateJSON, formatTime(now), nullTime(exp), id, version, formatTime(now),
	)
	if err != nil {
		return 0, fmt.Errorf("updating session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		return version + 1, nil
	}

	if _, err := s.GetSession(ctx, id); err != nil {
		return 0, err
	}
	return 0, ErrConflict
}

// DeleteSession removes a session.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeExpiredSessions deletes sessions whose expiry is before now and
// returns how many were removed.
func (s *Store) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	return res.RowsAffected()
}

// CountSessions returns the number of live sessions.
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE expires_at IS NULL OR expires_at > ?`,
		formatTime(time.Now())).Scan(&n)
	return n, err
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
