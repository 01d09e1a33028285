package repository

import (
	"context"
	"time"

	bunrepo "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SessionStore keeps track of issued sessions so they can be revoked
type SessionStore interface {
	Create(ctx context.Context, record *SessionRecord) error
	Get(ctx context.Context, id string) (*SessionRecord, error)
	Revoke(ctx context.Context, id string, at time.Time) error
}

type sessions struct {
	repo bunrepo.Repository[*SessionRecord]
	db   bun.IDB
}

var _ SessionStore = (*sessions)(nil)

// NewSessionStore creates a bun backed SessionStore
func NewSessionStore(db bun.IDB) SessionStore {
	repo := bunrepo.NewRepository[*SessionRecord](db, bunrepo.ModelHandlers[*SessionRecord]{
		NewRecord: func() *SessionRecord { return &SessionRecord{} },
		GetID: func(s *SessionRecord) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			id, err := uuid.Parse(s.ID)
			if err != nil {
				return uuid.Nil
			}
			return id
		},
		SetID: func(s *SessionRecord, id uuid.UUID) {
			if s != nil && s.ID == "" {
				s.ID = id.String()
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
	})
	return &sessions{repo: repo, db: db}
}

func (s *sessions) Create(ctx context.Context, record *SessionRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if _, err := s.repo.Create(ctx, record); err != nil {
		return storageError(err, "unable to create session")
	}
	return nil
}

func (s *sessions) Get(ctx context.Context, id string) (*SessionRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if bunrepo.IsRecordNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, storageError(err, "unable to load session")
	}
	return record, nil
}

// Revoke marks the session as revoked. Revoking twice keeps the first
// timestamp.
func (s *sessions) Revoke(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.NewUpdate().
		Model((*SessionRecord)(nil)).
		Set("revoked_at = COALESCE(revoked_at, ?)", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return storageError(err, "unable to revoke session")
	}
	if err := bunrepo.SQLExpectedCount(res, 1); err != nil {
		return ErrSessionNotFound
	}
	return nil
}
