package report

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/rs/zerolog"
)

// LogReporter writes unexpected failures to a zerolog logger
type LogReporter struct {
	log         zerolog.Logger
	development bool
}

// Option configures a LogReporter
type Option func(*LogReporter)

// WithDevelopment pretty prints error metadata
func WithDevelopment(enabled bool) Option {
	return func(r *LogReporter) {
		r.development = enabled
	}
}

// NewLogReporter creates a reporter bound to log
func NewLogReporter(log zerolog.Logger, opts ...Option) *LogReporter {
	r := &LogReporter{log: log.With().Str("component", "reporter").Logger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report implements scratch.ErrorReporter
func (r *LogReporter) Report(ctx context.Context, err error) {
	if err == nil {
		return
	}

	richErr := Normalize(err)

	evt := r.log.WithLevel(level(richErr.Severity)).
		Str("category", string(richErr.Category)).
		Int("code", richErr.Code).
		Str("severity", richErr.Severity.String())

	if richErr.TextCode != "" {
		evt = evt.Str("text_code", richErr.TextCode)
	}

	if richErr.RequestID != "" {
		evt = evt.Str("request_id", richErr.RequestID)
	}

	if richErr.HasLocation() {
		evt = evt.Str("location", richErr.GetLocation().String())
	}

	if richErr.Source != nil {
		evt = evt.Str("source", goerrors.RootCause(richErr).Error())
	}

	if len(richErr.Metadata) > 0 {
		if r.development {
			evt = evt.Str("metadata", print.MaybePrettyJSON(richErr.Metadata))
		} else {
			evt = evt.Interface("metadata", richErr.Metadata)
		}
	}

	evt.Msg(richErr.Message)
}

// Normalize returns err as a rich error, wrapping plain errors as internal
// failures.
func Normalize(err error) *goerrors.Error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected error occurred").
		WithCode(goerrors.CodeInternal)
}

func level(s goerrors.Severity) zerolog.Level {
	switch s {
	case goerrors.SeverityDebug:
		return zerolog.DebugLevel
	case goerrors.SeverityInfo:
		return zerolog.InfoLevel
	case goerrors.SeverityWarning:
		return zerolog.WarnLevel
	case goerrors.SeverityCritical, goerrors.SeverityFatal:
		// never exit or panic from a reporter
		return zerolog.ErrorLevel
	default:
		return zerolog.ErrorLevel
	}
}
