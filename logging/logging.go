package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds a zerolog logger writing to w. Format "json" emits one JSON
// object per line, anything else uses the console writer.
func New(level, format string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}

	if strings.ToLower(format) != "json" {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Adapter exposes a zerolog logger through the message plus key/value
// Logger interface used across the module.
type Adapter struct {
	log zerolog.Logger
}

// NewAdapter wraps log, tagging every entry with the component name
func NewAdapter(log zerolog.Logger, component string) *Adapter {
	if component != "" {
		log = log.With().Str("component", component).Logger()
	}
	return &Adapter{log: log}
}

func (a *Adapter) Debug(msg string, args ...any) {
	a.log.Debug().Fields(normalize(args)).Msg(msg)
}

func (a *Adapter) Info(msg string, args ...any) {
	a.log.Info().Fields(normalize(args)).Msg(msg)
}

func (a *Adapter) Error(msg string, args ...any) {
	a.log.Error().Fields(normalize(args)).Msg(msg)
}

// Zerolog returns the wrapped logger
func (a *Adapter) Zerolog() zerolog.Logger {
	return a.log
}

// normalize pads a dangling key so zerolog never drops the pair
func normalize(args []any) []any {
	if len(args)%2 == 0 {
		return args
	}
	out := make([]any, 0, len(args)+1)
	out = append(out, args...)
	return append(out, "(MISSING)")
}
