package scratch

import (
	"context"
	"time"
)

// ActivityEventType enumerates shell lifecycle events.
type ActivityEventType string

const (
	ActivityEventSessionRestored ActivityEventType = "shell.session.restored"
	ActivityEventSessionAbsent   ActivityEventType = "shell.session.absent"
	ActivityEventSessionFailed   ActivityEventType = "shell.session.failed"
	ActivityEventLogout          ActivityEventType = "shell.logout"
	ActivityEventLogoutFailed    ActivityEventType = "shell.logout.failed"
)

// ActivityEvent captures what happened to the shell's session.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
// Sinks run best-effort: errors are logged and never change shell state.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
