package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// Manager groups the repositories and runs work in a transaction
type Manager interface {
	Validate() error
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx Manager) error) error
	Users() Users
	Sessions() SessionStore
}

type mngr struct {
	db       *bun.DB
	tx       bun.IDB
	users    Users
	sessions SessionStore
}

// NewRepositoryManager creates a Manager backed by db
func NewRepositoryManager(db *bun.DB) Manager {
	return &mngr{
		db:       db,
		users:    NewUsersRepository(db),
		sessions: NewSessionStore(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil && m.tx == nil {
		return errors.New("repository db should be initialized")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.sessions == nil {
		return errors.New("repository sessions should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

// RunInTx calls f with a Manager bound to a transaction. Inside a
// transaction it reuses the current one.
func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx Manager) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if m.tx != nil {
		return f(ctx, m)
	}

	return m.db.RunInTx(ctx, opts, func(ctx context.Context, tx bun.Tx) error {
		return f(ctx, mngr{
			tx:       tx,
			users:    NewUsersRepository(tx),
			sessions: NewSessionStore(tx),
		})
	})
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Sessions() SessionStore {
	return m.sessions
}
