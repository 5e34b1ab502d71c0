package log

import (
	"log/slog"
	"os"
)

// Logger is a slog.Logger that carries a component name on every record.
type Logger struct {
	*slog.Logger
	component string
}

// Config controls handler construction. A nil Handler gets a text handler
// on stdout at the configured level, or a JSON handler when JSON is set.
type Config struct {
	Level     slog.Level
	Component string
	JSON      bool
	Handler   slog.Handler
}

// New builds a Logger with the component attached as a permanent attribute,
// so call sites log through the embedded slog methods without repeating it.
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		opts := &slog.HandlerOptions{Level: config.Level}
		if config.JSON {
			handler = slog.NewJSONHandler(os.Stdout, opts)
		} else {
			handler = slog.NewTextHandler(os.Stdout, opts)
		}
	}

	component := config.Component
	if component == "" {
		component = ComponentApp
	}

	return &Logger{
		Logger:    slog.New(handler).With(FieldComponent, component),
		component: component,
	}
}

// WithComponent derives a logger for a subsystem. The new component replaces
// the old one on subsequent records.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With(FieldComponent, component),
		component: component,
	}
}

// With returns a logger with extra attributes attached to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		component: l.component,
	}
}

// Component reports which subsystem this logger is bound to.
func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs the logger as the process-wide slog default, so
// packages that log via the slog package functions inherit it.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
