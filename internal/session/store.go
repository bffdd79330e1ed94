// Package session holds live interview state behind a keyed Store and
// serialises work per session id with a Locker.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kalambet/intervue/internal/interview"
	"github.com/kalambet/intervue/internal/storage"
)

var (
	// ErrNotFound is returned for unknown or expired session ids.
	ErrNotFound = fmt.Errorf("session: %w", interview.ErrSessionNotFound)
	// ErrExists is returned by Create when the id is already in use.
	ErrExists = errors.New("session already exists")
	// ErrVersionConflict is returned by Put when the state is stale.
	ErrVersionConflict = errors.New("session version conflict")
	// ErrInvalidConfig is returned by NewStore for missing driver options.
	ErrInvalidConfig = errors.New("invalid session store config")
)

// Store maps session ids to interview state. Implementations copy on the way
// in and out so callers never share memory with the store.
type Store interface {
	// Create stores a new session and sets st.Version to 1.
	Create(ctx context.Context, st *interview.State) error

	// Get returns the session's state.
	Get(ctx context.Context, id string) (*interview.State, error)

	// Put replaces the stored state if st.Version matches the stored version,
	// then increments st.Version.
	Put(ctx context.Context, st *interview.State) error

	// Delete removes the session.
	Delete(ctx context.Context, id string) error

	// Close releases the store's resources.
	Close() error
}

// Kind names a Store driver.
type Kind string

const (
	KindMemory Kind = "memory"
	KindRedis  Kind = "redis"
	KindSQLite Kind = "sqlite"
)

// Option configures NewStore.
type Option func(*config)

type config struct {
	ttl         time.Duration
	redisClient *redis.Client
	keyPrefix   string
	db          *storage.Store
	now         func() time.Time
}

// WithTTL expires sessions that were not written for ttl. Zero disables
// expiry (memory, sqlite) or uses the driver default (redis).
func WithTTL(ttl time.Duration) Option {
	return func(c *config) { c.ttl = ttl }
}

// WithRedisClient sets the client for KindRedis.
func WithRedisClient(client *redis.Client) Option {
	return func(c *config) { c.redisClient = client }
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *config) { c.keyPrefix = prefix }
}

// WithSQLite sets the database for KindSQLite.
func WithSQLite(db *storage.Store) Option {
	return func(c *config) { c.db = db }
}

// WithClock overrides time.Now for the memory driver.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// NewStore creates a Store of the given kind.
func NewStore(kind Kind, opts ...Option) (Store, error) {
	cfg := &config{now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}

	switch kind {
	case "", KindMemory:
		return newMemoryStore(cfg.ttl, cfg.now), nil
	case KindRedis:
		if cfg.redisClient == nil {
			return nil, fmt.Errorf("%w: redis driver needs a client", ErrInvalidConfig)
		}
		return newRedisStore(cfg.redisClient, cfg.keyPrefix, cfg.ttl), nil
	case KindSQLite:
		if cfg.db == nil {
			return nil, fmt.Errorf("%w: sqlite driver needs a database", ErrInvalidConfig)
		}
		return newSQLiteStore(cfg.db, cfg.ttl), nil
	default:
		return nil, fmt.Errorf("%w: unknown session store %q", ErrInvalidConfig, kind)
	}
}
