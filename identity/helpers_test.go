package identity_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-scratch/identity"
	"github.com/goliatone/go-scratch/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

type testConfig struct {
	ttl int
}

func (c testConfig) GetSigningKey() string { return testSigningKey }
func (c testConfig) GetIssuer() string     { return "scratch-test" }
func (c testConfig) GetContextKey() string { return "scratch_session" }
func (c testConfig) GetTokenExpiration() int {
	if c.ttl == 0 {
		return 1
	}
	return c.ttl
}
func (c testConfig) GetPasswordCost() int { return 4 }

// memoryCarrier stands in for the session cookie
type memoryCarrier struct {
	mu      sync.Mutex
	token   string
	expires time.Time
	cleared int
}

func (c *memoryCarrier) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *memoryCarrier) SetToken(token string, expires time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expires = expires
}

func (c *memoryCarrier) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.cleared++
}

func (c *memoryCarrier) Cleared() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleared
}

func setupManager(t *testing.T) repository.Manager {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := repository.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.Migrate(context.Background(), db))
	return repository.NewRepositoryManager(db)
}

// failingSessions fails every call with err
type failingSessions struct {
	err error
}

func (f failingSessions) Create(context.Context, *repository.SessionRecord) error { return f.err }
func (f failingSessions) Get(context.Context, string) (*repository.SessionRecord, error) {
	return nil, f.err
}
func (f failingSessions) Revoke(context.Context, string, time.Time) error { return f.err }

func register(t *testing.T, svc *identity.Service, email string) (*repository.User, *memoryCarrier) {
	t.Helper()
	carrier := &memoryCarrier{}
	user, err := svc.SignUp(context.Background(), carrier, identity.Registration{
		Email:           email,
		Password:        "correct horse battery",
		ConfirmPassword: "correct horse battery",
	})
	require.NoError(t, err)
	return user, carrier
}
