package scratch

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// bootstrapper performs the one-shot session check that releases the
// shell's loading gate.
type bootstrapper struct {
	provider IdentityProvider
	reporter ErrorReporter
	sink     ActivitySink
	logger   Logger
	state    *AuthState

	once  sync.Once
	ready chan struct{}
}

func newBootstrapper(provider IdentityProvider, state *AuthState) *bootstrapper {
	return &bootstrapper{
		provider: provider,
		state:    state,
		reporter: noopReporter{},
		sink:     noopActivitySink{},
		logger:   defLogger{},
		ready:    make(chan struct{}),
	}
}

// start launches the session check. Only the first call has any effect.
func (b *bootstrapper) start(ctx context.Context) bool {
	started := false
	b.once.Do(func() {
		started = true
		go b.run(ctx)
	})
	return started
}

// teardown makes every result that arrives afterwards a no-op.
func (b *bootstrapper) teardown() {
	b.state.detach()
}

func (b *bootstrapper) run(ctx context.Context) {
	defer close(b.ready)
	defer b.release()

	session, err := b.check(ctx)
	b.resolve(ctx, session, err)
}

// check calls the provider, turning a panic into an unexpected failure.
func (b *bootstrapper) check(ctx context.Context) (session Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			session, err = nil, fmt.Errorf("identity provider panicked: %v", r)
		}
	}()
	return b.provider.CurrentSession(ctx)
}

func (b *bootstrapper) resolve(ctx context.Context, session Session, err error) {
	if b.state.detached() {
		b.logger.Debug("session check settled after teardown, ignoring", "error", err)
		return
	}

	switch {
	case err == nil:
		if !b.state.restore() {
			b.logger.Debug("session resolved after teardown, ignoring")
			return
		}
		b.record(ctx, ActivityEventSessionRestored, userID(session), nil)

	case IsNoCurrentUser(err):
		b.logger.Debug("no current session")
		b.record(ctx, ActivityEventSessionAbsent, "", nil)

	default:
		richErr := sessionCheckError(err)
		b.logger.Error("session check failed", "error", richErr)
		b.reporter.Report(context.WithoutCancel(ctx), richErr)
		b.record(ctx, ActivityEventSessionFailed, "", map[string]any{
			"error": richErr.Error(),
		})
	}
}

// release clears the loading gate. It runs on every path out of run.
func (b *bootstrapper) release() {
	if !b.state.finishAuthenticating() && !b.state.detached() {
		b.logger.Error("loading gate already released")
	}
}

func (b *bootstrapper) record(ctx context.Context, eventType ActivityEventType, uid string, meta map[string]any) {
	evt := ActivityEvent{
		EventType:  eventType,
		UserID:     uid,
		Metadata:   meta,
		OccurredAt: time.Now(),
	}
	if err := b.sink.Record(context.WithoutCancel(ctx), evt); err != nil {
		b.logger.Error("activity sink failed", "event", eventType, "error", err)
	}
}

func userID(session Session) string {
	if session == nil {
		return ""
	}
	return session.GetUserID()
}
