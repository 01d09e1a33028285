package repository

import (
	"context"
	"strings"
	"time"

	bunrepo "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users stores application accounts
type Users interface {
	bunrepo.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	TrackSuccessfulLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error
}

type users struct {
	bunrepo.Repository[*User]
	db bun.IDB
}

var (
	_ Users                     = (*users)(nil)
	_ bunrepo.Repository[*User] = (*users)(nil)
)

// NewUsersRepository creates a bun backed Users
func NewUsersRepository(db bun.IDB) Users {
	repo := bunrepo.NewRepository[*User](db, bunrepo.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (r *users) Create(ctx context.Context, user *User) (*User, error) {
	return r.CreateTx(ctx, r.db, user)
}

func (r *users) CreateTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	user.Email = normalizeEmail(user.Email)

	now := time.Now()
	user.CreatedAt = &now
	user.UpdatedAt = &now

	created, err := r.Repository.CreateTx(ctx, tx, user)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, storageError(err, "unable to create user")
	}
	return created, nil
}

func (r *users) GetByID(ctx context.Context, id string, criteria ...bunrepo.SelectCriteria) (*User, error) {
	return r.GetByIDTx(ctx, r.db, id, criteria...)
}

func (r *users) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...bunrepo.SelectCriteria) (*User, error) {
	return found(r.Repository.GetByIDTx(ctx, tx, id, criteria...))
}

func (r *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.GetByEmailTx(ctx, r.db, email)
}

func (r *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrUserNotFound
	}
	return found(r.Repository.GetByIdentifierTx(ctx, tx, email))
}

func (r *users) TrackSuccessfulLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.TrackSuccessfulLoginTx(ctx, r.db, id, at)
}

func (r *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	record := &User{
		ID:         id,
		LoggedInAt: &at,
		UpdatedAt:  &at,
	}

	if _, err := r.Repository.UpdateTx(ctx, tx, record); err != nil {
		if bunrepo.IsRecordNotFound(err) {
			return ErrUserNotFound
		}
		return storageError(err, "unable to track login")
	}
	return nil
}

func found(user *User, err error) (*User, error) {
	if err != nil {
		if bunrepo.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, storageError(err, "unable to load user")
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
