package scratch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Logger takes a message followed by key/value pairs
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetIssuedAt() *time.Time
	GetExpiresAt() *time.Time
	GetData() map[string]any
}

// IdentityProvider is the collaborator that owns session storage,
// token refresh and sign out mechanics.
type IdentityProvider interface {
	// CurrentSession returns ErrNoCurrentUser when no session exists.
	CurrentSession(ctx context.Context) (Session, error)
	SignOut(ctx context.Context) error
}

// ErrorReporter receives unexpected failures. Fire and forget.
type ErrorReporter interface {
	Report(ctx context.Context, err error)
}

// ErrorReporterFunc adapts a function to the ErrorReporter interface.
type ErrorReporterFunc func(ctx context.Context, err error)

// Report implements ErrorReporter.
func (f ErrorReporterFunc) Report(ctx context.Context, err error) {
	if f == nil {
		return
	}
	f(ctx, err)
}

// Navigator performs imperative navigation, replacing the current view.
type Navigator interface {
	Replace(ctx context.Context, path string) error
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(ctx context.Context, path string) error

// Replace implements Navigator.
func (f NavigatorFunc) Replace(ctx context.Context, path string) error {
	if f == nil {
		return nil
	}
	return f(ctx, path)
}

// Outlet renders the routed content region beneath the navigation bar.
// The context it receives carries the shell's AppContext.
type Outlet interface {
	Render(ctx context.Context, w io.Writer) error
}

// OutletFunc adapts a function to the Outlet interface.
type OutletFunc func(ctx context.Context, w io.Writer) error

// Render implements Outlet.
func (f OutletFunc) Render(ctx context.Context, w io.Writer) error {
	if f == nil {
		return nil
	}
	return f(ctx, w)
}

// Routes holds the named routes the shell links to.
type Routes struct {
	Home     string
	Signup   string
	Login    string
	Settings string
	Logout   string
}

// DefaultRoutes returns the standard route table.
func DefaultRoutes() Routes {
	return Routes{
		Home:     "/",
		Signup:   "/signup",
		Login:    "/login",
		Settings: "/settings",
		Logout:   "/logout",
	}
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Print(line("[ERR] SHELL ", msg, args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Print(line("[INF] SHELL ", msg, args))
}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Print(line("[DBG] SHELL ", msg, args))
}

// line renders msg followed by key=value pairs
func line(prefix, msg string, args []any) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	b.WriteString("\n")
	return b.String()
}

type noopReporter struct{}

func (noopReporter) Report(context.Context, error) {}

type noopNavigator struct{}

func (noopNavigator) Replace(context.Context, string) error { return nil }
