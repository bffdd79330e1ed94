package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kalambet/intervue/internal/interview"
	"github.com/kalambet/intervue/internal/storage"
)

// sqliteStore persists sessions in the sessions table so they survive a
// restart.
type sqliteStore struct {
	db  *storage.Store
	ttl time.Duration
}

func newSQLiteStore(db *storage.Store, ttl time.Duration) *sqliteStore {
	return &sqliteStore{db: db, ttl: ttl}
}

func (s *sqliteStore) Create(ctx context.Context, st *interview.State) error {
	st.Version = 1
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	_, err = s.db.InsertSession(ctx, st.SessionID, string(data), s.ttl)
	return mapStorageErr(err)
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*interview.State, error) {
	rec, err := s.db.GetSession(ctx, id)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	var st interview.State
	if err := json.Unmarshal([]byte(rec.StateJSON), &st); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	st.Version = rec.Version
	return &st, nil
}

func (s *sqliteStore) Put(ctx context.Context, st *interview.State) error {
	next := st.Clone()
	next.Version++
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	v, err := s.db.UpdateSession(ctx, st.SessionID, string(data), st.Version, s.ttl)
	if err != nil {
		return mapStorageErr(err)
	}
	st.Version = v
	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	return mapStorageErr(s.db.DeleteSession(ctx, id))
}

// Close is a no-op: the database is shared and closed by its owner.
func (s *sqliteStore) Close() error {
	return nil
}

func mapStorageErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrExists):
		return ErrExists
	case errors.Is(err, storage.ErrConflict):
		return ErrVersionConflict
	default:
		return err
	}
}
