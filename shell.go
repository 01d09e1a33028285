package scratch

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"
)

// Shell is the application root. It bootstraps the session on mount, owns
// the authentication state shared with descendant views, and renders the
// navigation bar around the routed content.
type Shell struct {
	provider  IdentityProvider
	reporter  ErrorReporter
	navigator Navigator
	renderer  Renderer
	sink      ActivitySink
	logger    Logger
	routes    Routes
	brand     string
	observers []StateObserver

	state *AuthState
	boot  *bootstrapper

	mu      sync.Mutex
	mounted bool
	cancel  context.CancelFunc
}

// Option configures a Shell
type Option func(*Shell)

// WithErrorReporter sets the collaborator that receives unexpected failures
func WithErrorReporter(reporter ErrorReporter) Option {
	return func(s *Shell) {
		if reporter != nil {
			s.reporter = reporter
		}
	}
}

// WithNavigator sets the router used to redirect after logout
func WithNavigator(navigator Navigator) Option {
	return func(s *Shell) {
		if navigator != nil {
			s.navigator = navigator
		}
	}
}

// WithRenderer overrides the pongo2 layout renderer
func WithRenderer(renderer Renderer) Option {
	return func(s *Shell) {
		if renderer != nil {
			s.renderer = renderer
		}
	}
}

func WithActivitySink(sink ActivitySink) Option {
	return func(s *Shell) {
		s.sink = normalizeActivitySink(sink)
	}
}

func WithLogger(logger Logger) Option {
	return func(s *Shell) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRoutes(routes Routes) Option {
	return func(s *Shell) {
		s.routes = routes
	}
}

func WithBrand(brand string) Option {
	return func(s *Shell) {
		s.brand = brand
	}
}

// WithStateObserver registers a callback invoked after every state change
func WithStateObserver(observer StateObserver) Option {
	return func(s *Shell) {
		if observer != nil {
			s.observers = append(s.observers, observer)
		}
	}
}

var defaultRenderer = sync.OnceValue(func() Renderer {
	return NewPongoRenderer(nil)
})

// New creates an unmounted shell. Both flags start in their initial state:
// authenticating and not authenticated.
func New(provider IdentityProvider, opts ...Option) *Shell {
	if provider == nil {
		panic("Missing IdentityProvider in shell...")
	}

	s := &Shell{
		provider:  provider,
		reporter:  noopReporter{},
		navigator: noopNavigator{},
		sink:      noopActivitySink{},
		logger:    defLogger{},
		routes:    DefaultRoutes(),
		brand:     DefaultBrand,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.renderer == nil {
		s.renderer = defaultRenderer()
	}

	s.state = newAuthState(s.observers...)
	s.boot = newBootstrapper(provider, s.state)
	s.boot.reporter = s.reporter
	s.boot.sink = s.sink
	s.boot.logger = s.logger

	return s
}

// Mount starts the session check. It returns immediately; use Ready or
// Wait to observe completion.
func (s *Shell) Mount(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mounted {
		return ErrAlreadyMounted
	}
	s.mounted = true

	ctx, s.cancel = context.WithCancel(ctx)
	s.boot.start(ctx)
	return nil
}

// Unmount tears the shell down. A session check still in flight is
// cancelled and its result ignored.
func (s *Shell) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.boot.teardown()
	if s.cancel != nil {
		s.cancel()
	}
}

// Ready is closed once the session check has settled
func (s *Shell) Ready() <-chan struct{} {
	return s.boot.ready
}

// Wait blocks until the session check settles or ctx is done
func (s *Shell) Wait(ctx context.Context) error {
	select {
	case <-s.boot.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns a snapshot of the authentication flags
func (s *Shell) State() State {
	return s.state.Snapshot()
}

// AppContext returns the shared slot handed to descendant views
func (s *Shell) AppContext() AppContext {
	return s.state
}

// Routes returns the shell's route table
func (s *Shell) Routes() Routes {
	return s.routes
}

// Navigation returns the navigation bar for currentPath. It returns false
// while the session check is in flight.
func (s *Shell) Navigation(currentPath string) (NavBar, bool) {
	snapshot := s.state.Snapshot()
	if snapshot.Authenticating {
		return NavBar{}, false
	}
	return BuildNavBar(snapshot.Authenticated, currentPath, s.routes, s.brand), true
}

// Render writes the navigation bar and the routed content. Nothing is
// written while the session check is in flight.
func (s *Shell) Render(ctx context.Context, w io.Writer, currentPath string, outlet Outlet) error {
	if s.state.IsAuthenticating() {
		return nil
	}

	var content bytes.Buffer
	if outlet != nil {
		octx := WithCurrentPath(WithAppContext(ctx, s.state), currentPath)
		if err := outlet.Render(octx, &content); err != nil {
			return err
		}
	}

	// the outlet may have changed the flag, e.g. after a login
	nav, ok := s.Navigation(currentPath)
	if !ok {
		return nil
	}

	return s.renderer.RenderShell(w, ShellView{
		Nav:     nav,
		Content: content.String(),
		Data:    ViewData(ctx),
	})
}

// Logout signs out with the identity provider and, once that completes,
// clears the authenticated flag and replaces the view with the login route.
// If sign out fails the state is left untouched.
func (s *Shell) Logout(ctx context.Context) error {
	if !s.state.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	if err := s.provider.SignOut(ctx); err != nil {
		richErr := signOutError(err)
		s.logger.Error("sign out failed", "error", richErr)
		s.reporter.Report(ctx, richErr)
		s.record(ctx, ActivityEventLogoutFailed, map[string]any{"error": richErr.Error()})
		return richErr
	}

	s.state.SetAuthenticated(false)
	s.record(ctx, ActivityEventLogout, nil)

	return s.navigator.Replace(ctx, s.routes.Login)
}

func (s *Shell) record(ctx context.Context, eventType ActivityEventType, meta map[string]any) {
	evt := ActivityEvent{
		EventType:  eventType,
		Metadata:   meta,
		OccurredAt: time.Now(),
	}
	if err := s.sink.Record(ctx, evt); err != nil {
		s.logger.Error("activity sink failed", "event", eventType, "error", err)
	}
}
