package scratch

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// NoCurrentUser is the message identity providers use when there is no
// session for the visitor.
const NoCurrentUser = "No current user"

// ErrNoCurrentUser is the expected absence of a session. It is not an error
// condition for the shell.
var ErrNoCurrentUser = errors.New(NoCurrentUser)

// ErrAlreadyMounted is returned when Mount is called more than once
var ErrAlreadyMounted = errors.New("shell already mounted")

// ErrNotAuthenticated is returned by Logout when there is no session to end
var ErrNotAuthenticated = errors.New("shell not authenticated")

const (
	TextCodeSessionCheckFailed = "SESSION_CHECK_FAILED"
	TextCodeSignOutFailed      = "SIGN_OUT_FAILED"
)

// IsNoCurrentUser reports whether err signals that no session exists.
// Providers that return plain errors are matched by message.
func IsNoCurrentUser(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoCurrentUser) {
		return true
	}
	return goerrors.RootCause(err).Error() == NoCurrentUser
}

func sessionCheckError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, "unable to check current session").
		WithTextCode(TextCodeSessionCheckFailed).
		WithCode(goerrors.CodeInternal)
}

func signOutError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, "unable to sign out").
		WithTextCode(TextCodeSignOutFailed).
		WithCode(goerrors.CodeInternal)
}
