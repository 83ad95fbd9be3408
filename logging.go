package extload

import (
	"context"
	"log/slog"
	"time"
)

// LoadEvent describes one step of a load for logging.
//
// A load emits one event per candidate tried (Stage "attempt") followed by a
// single terminal event (Stage "loaded", "failed" or "exhausted"). All
// events of one load share LoadID.
type LoadEvent struct {
	LoadID   string
	Stage    string
	Name     string
	Kind     LoaderKind
	Variant  Variant
	Path     string
	Duration time.Duration
	Err      error
}

// Event stages.
const (
	StageAttempt   = "attempt"
	StageLoaded    = "loaded"
	StageFailed    = "failed"
	StageExhausted = "exhausted"
)

// Logger records load events.
type Logger interface {
	LogLoad(LoadEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LoadEvent)

// LogLoad implements Logger.
func (f LoggerFunc) LogLoad(event LoadEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogLoad(LoadEvent) {}

// NewSlogLogger writes load events to logger. Attempts are logged at debug
// level, successes at info and failures at error.
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogLogger{logger: logger}
}

type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) LogLoad(event LoadEvent) {
	level := slog.LevelDebug
	msg := "trying native library candidate"
	switch event.Stage {
	case StageLoaded:
		level = slog.LevelInfo
		msg = "native library loaded"
	case StageFailed, StageExhausted:
		level = slog.LevelError
		msg = "native library load failed"
	}

	attrs := []slog.Attr{
		slog.String("load_id", event.LoadID),
		slog.String("name", event.Name),
		slog.String("kind", event.Kind.String()),
		slog.String("variant", event.Variant.String()),
	}
	if event.Path != "" {
		attrs = append(attrs, slog.String("path", event.Path))
	}
	if event.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", event.Duration))
	}
	if event.Err != nil {
		attrs = append(attrs, slog.String("error", event.Err.Error()))
	}

	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}
