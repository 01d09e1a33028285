package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	scratch "github.com/goliatone/go-scratch"
	"github.com/goliatone/go-scratch/identity"
	"github.com/goliatone/go-scratch/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpStartsSession(t *testing.T) {
	svc := identity.NewService(testConfig{}, setupManager(t))

	user, carrier := register(t, svc, "Ada@Example.com")
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEmpty(t, carrier.Token())

	session, err := svc.ForRequest(carrier).CurrentSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), session.GetUserID())
	require.NotNil(t, session.GetExpiresAt())
	assert.True(t, session.GetExpiresAt().After(time.Now()))
}

func TestSignUpNormalizesPhone(t *testing.T) {
	manager := setupManager(t)
	svc := identity.NewService(testConfig{}, manager)

	_, err := svc.SignUp(context.Background(), &memoryCarrier{}, identity.Registration{
		Email:           "phone@example.com",
		Password:        "correct horse battery",
		ConfirmPassword: "correct horse battery",
		Phone:           "(650) 253-0000",
	})
	require.NoError(t, err)

	stored, err := manager.Users().GetByEmail(context.Background(), "phone@example.com")
	require.NoError(t, err)
	assert.Equal(t, "+16502530000", stored.Phone)
	assert.NotNil(t, stored.LoggedInAt)
}

func TestSignUpValidation(t *testing.T) {
	svc := identity.NewService(testConfig{}, setupManager(t))
	carrier := &memoryCarrier{}

	_, err := svc.SignUp(context.Background(), carrier, identity.Registration{Email: "bad"})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
	assert.Contains(t, richErr.ValidationMap(), "email")
	assert.Empty(t, carrier.Token())
}

func TestSignUpDuplicateEmail(t *testing.T) {
	svc := identity.NewService(testConfig{}, setupManager(t))
	register(t, svc, "dup@example.com")

	carrier := &memoryCarrier{}
	_, err := svc.SignUp(context.Background(), carrier, identity.Registration{
		Email:           "dup@example.com",
		Password:        "correct horse battery",
		ConfirmPassword: "correct horse battery",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	var richErr *goerrors.Error
	require.ErrorAs(t, err, &richErr)
	assert.Equal(t, goerrors.CodeConflict, richErr.Code)
	assert.Empty(t, carrier.Token())
}

func TestSignIn(t *testing.T) {
	svc := identity.NewService(testConfig{}, setupManager(t))
	user, _ := register(t, svc, "ada@example.com")

	carrier := &memoryCarrier{}
	signedIn, err := svc.SignIn(context.Background(), carrier, identity.Credentials{
		Email:    "ADA@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, signedIn.ID)
	assert.NotEmpty(t, carrier.Token())
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	svc := identity.NewService(testConfig{}, setupManager(t))
	register(t, svc, "ada@example.com")

	tests := []struct {
		name  string
		creds identity.Credentials
	}{
		{name: "wrong password", creds: identity.Credentials{Email: "ada@example.com", Password: "wrong password!"}},
		{name: "unknown email", creds: identity.Credentials{Email: "ghost@example.com", Password: "correct horse battery"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carrier := &memoryCarrier{}
			_, err := svc.SignIn(context.Background(), carrier, tt.creds)
			assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
			assert.Empty(t, carrier.Token())
		})
	}
}

func TestCurrentSessionNoCurrentUser(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	svc := identity.NewService(testConfig{ttl: 1}, setupManager(t), identity.WithClock(clock))

	t.Run("no cookie", func(t *testing.T) {
		_, err := svc.ForRequest(&memoryCarrier{}).CurrentSession(context.Background())
		assert.True(t, scratch.IsNoCurrentUser(err))
	})

	t.Run("unknown session", func(t *testing.T) {
		other := identity.NewService(testConfig{}, setupManager(t))
		_, carrier := register(t, other, "elsewhere@example.com")

		_, err := svc.ForRequest(carrier).CurrentSession(context.Background())
		assert.True(t, scratch.IsNoCurrentUser(err))
		assert.Empty(t, carrier.Token(), "stale cookie is cleared")
	})

	t.Run("revoked session", func(t *testing.T) {
		_, carrier := register(t, svc, "revoked@example.com")
		token := carrier.Token()
		require.NoError(t, svc.ForRequest(carrier).SignOut(context.Background()))

		replay := &memoryCarrier{token: token}
		_, err := svc.ForRequest(replay).CurrentSession(context.Background())
		assert.True(t, scratch.IsNoCurrentUser(err))
	})

	t.Run("expired token", func(t *testing.T) {
		_, carrier := register(t, svc, "expired@example.com")

		later := identity.NewService(testConfig{ttl: 1}, setupManager(t), identity.WithClock(func() time.Time {
			return now.Add(2 * time.Hour)
		}))
		_, err := later.ForRequest(carrier).CurrentSession(context.Background())
		assert.True(t, scratch.IsNoCurrentUser(err))
		assert.Equal(t, 1, carrier.Cleared())
	})
}

func TestCurrentSessionMalformedTokenIsUnexpected(t *testing.T) {
	svc := identity.NewService(testConfig{}, setupManager(t))

	_, err := svc.ForRequest(&memoryCarrier{token: "garbage"}).CurrentSession(context.Background())
	require.Error(t, err)
	assert.False(t, scratch.IsNoCurrentUser(err))
}

func TestCurrentSessionStoreFailureIsUnexpected(t *testing.T) {
	manager := setupManager(t)
	svc := identity.NewService(testConfig{}, manager)
	_, carrier := register(t, svc, "store@example.com")

	boom := errors.New("store down")
	broken := identity.NewService(testConfig{}, manager, identity.WithSessionStore(failingSessions{err: boom}))

	_, err := broken.ForRequest(carrier).CurrentSession(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, scratch.IsNoCurrentUser(err))
	assert.NotEmpty(t, carrier.Token())
}

func TestSignOut(t *testing.T) {
	svc := identity.NewService(testConfig{}, setupManager(t))
	_, carrier := register(t, svc, "bye@example.com")
	provider := svc.ForRequest(carrier)

	require.NoError(t, provider.SignOut(context.Background()))
	assert.Empty(t, carrier.Token())

	_, err := provider.CurrentSession(context.Background())
	assert.True(t, scratch.IsNoCurrentUser(err))

	// nothing left to sign out
	assert.NoError(t, provider.SignOut(context.Background()))
}

func TestSignOutStoreFailureKeepsCookie(t *testing.T) {
	manager := setupManager(t)
	svc := identity.NewService(testConfig{}, manager)
	_, carrier := register(t, svc, "stuck@example.com")

	boom := errors.New("store down")
	broken := identity.NewService(testConfig{}, manager, identity.WithSessionStore(failingSessions{err: boom}))

	err := broken.ForRequest(carrier).SignOut(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.NotEmpty(t, carrier.Token())
}

func TestServiceDrivesShell(t *testing.T) {
	svc := identity.NewService(testConfig{}, setupManager(t))
	_, carrier := register(t, svc, "shell@example.com")

	shell := scratch.New(svc.ForRequest(carrier))
	require.NoError(t, shell.Mount(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, shell.Wait(ctx))
	assert.Equal(t, scratch.State{Authenticated: true}, shell.State())

	require.NoError(t, shell.Logout(context.Background()))
	assert.False(t, shell.State().Authenticated)
	assert.Empty(t, carrier.Token())
}
