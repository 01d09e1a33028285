package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
)

// QueryLogger logs every query bun runs at debug level. Failures other than
// sql.ErrNoRows are logged at error level.
type QueryLogger struct {
	log zerolog.Logger
}

var _ bun.QueryHook = (*QueryLogger)(nil)

func NewQueryLogger(log zerolog.Logger) *QueryLogger {
	return &QueryLogger{log: log.With().Str("component", "bun").Logger()}
}

func (h *QueryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	evt := h.log.Debug()
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		evt = h.log.Error().Err(event.Err)
	}
	evt.
		Str("operation", event.Operation()).
		Dur("elapsed", time.Since(event.StartTime)).
		Str("query", event.Query).
		Msg("query")
}
