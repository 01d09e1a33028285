package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-scratch/repository"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces session keys
const DefaultPrefix = "scratch"

const minTTL = time.Second

// Store keeps session records in redis. Keys expire with the session.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

var _ repository.SessionStore = (*Store)(nil)

// Option configures a Store
type Option func(*Store)

func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithClock overrides time.Now, used to compute key TTLs
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store on top of rdb
func New(rdb redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		rdb:    rdb,
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(id string) string {
	return s.prefix + ":session:" + id
}

// Create implements repository.SessionStore
func (s *Store) Create(ctx context.Context, record *repository.SessionRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now()
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to encode session")
	}

	ttl := record.ExpiresAt.Sub(s.now())
	if ttl < minTTL {
		ttl = minTTL
	}

	if err := s.rdb.Set(ctx, s.key(record.ID), raw, ttl).Err(); err != nil {
		return unavailable(err, "unable to store session")
	}
	return nil
}

// Get implements repository.SessionStore
func (s *Store) Get(ctx context.Context, id string) (*repository.SessionRecord, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, unavailable(err, "unable to load session")
	}
	return decode(raw)
}

// Revoke implements repository.SessionStore. The key keeps its TTL and
// revoking twice keeps the first timestamp.
func (s *Store) Revoke(ctx context.Context, id string, at time.Time) error {
	key := s.key(id)

	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return repository.ErrSessionNotFound
			}
			return err
		}

		record, err := decode(raw)
		if err != nil {
			return err
		}
		if record.RevokedAt != nil {
			return nil
		}
		record.RevokedAt = &at

		updated, err := json.Marshal(record)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrSessionNotFound):
		return err
	default:
		return unavailable(err, "unable to revoke session")
	}
}

func decode(raw []byte) (*repository.SessionRecord, error) {
	record := new(repository.SessionRecord)
	if err := json.Unmarshal(raw, record); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to decode session")
	}
	return record, nil
}

func unavailable(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, msg).
		WithCode(goerrors.CodeInternal).
		WithTextCode("SESSION_STORE_UNAVAILABLE")
}
