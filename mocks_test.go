package scratch_test

import (
	"context"
	"sync"
	"time"

	scratch "github.com/goliatone/go-scratch"
	"github.com/stretchr/testify/mock"
)

// MockIdentityProvider implements scratch.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) CurrentSession(ctx context.Context) (scratch.Session, error) {
	args := m.Called(ctx)
	session, _ := args.Get(0).(scratch.Session)
	return session, args.Error(1)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// blockingProvider holds CurrentSession and SignOut until released
type blockingProvider struct {
	session    scratch.Session
	sessionErr error
	signOutErr error

	sessionGate chan struct{}
	signOutGate chan struct{}
	signOutSeen chan struct{}

	mu           sync.Mutex
	signOutCalls int
}

func newBlockingProvider() *blockingProvider {
	return &blockingProvider{
		sessionGate: make(chan struct{}),
		signOutGate: make(chan struct{}),
		signOutSeen: make(chan struct{}, 1),
	}
}

func (p *blockingProvider) CurrentSession(ctx context.Context) (scratch.Session, error) {
	select {
	case <-p.sessionGate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return p.session, p.sessionErr
}

func (p *blockingProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.signOutCalls++
	p.mu.Unlock()

	p.signOutSeen <- struct{}{}
	<-p.signOutGate
	return p.signOutErr
}

// lateProvider answers CurrentSession only when released, whatever the
// caller's context says
type lateProvider struct {
	session scratch.Session
	err     error
	gate    chan struct{}
}

func (p *lateProvider) CurrentSession(ctx context.Context) (scratch.Session, error) {
	<-p.gate
	return p.session, p.err
}

func (p *lateProvider) SignOut(ctx context.Context) error { return nil }

// recordingReporter collects reported errors
type recordingReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *recordingReporter) Report(ctx context.Context, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingReporter) Reported() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// recordingNavigator collects navigation targets
type recordingNavigator struct {
	mu      sync.Mutex
	targets []string
}

func (n *recordingNavigator) Replace(ctx context.Context, path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, path)
	return nil
}

func (n *recordingNavigator) Targets() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.targets...)
}

// stateRecorder collects every state snapshot
type stateRecorder struct {
	mu     sync.Mutex
	states []scratch.State
}

func (r *stateRecorder) Observe(s scratch.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

// GateReleases counts transitions of Authenticating to false
func (r *stateRecorder) GateReleases() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	releases := 0
	prev := true
	for _, s := range r.states {
		if prev && !s.Authenticating {
			releases++
		}
		prev = s.Authenticating
	}
	return releases
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type testSession struct {
	userID string
}

func (s testSession) GetUserID() string { return s.userID }

func (s testSession) GetIssuedAt() *time.Time {
	now := time.Now()
	return &now
}

func (s testSession) GetExpiresAt() *time.Time {
	exp := time.Now().Add(time.Hour)
	return &exp
}

func (s testSession) GetData() map[string]any { return nil }
