package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a slog.Logger bound to one component. The component attribute
// is attached exactly once, whatever the chain of With calls.
type Logger struct {
	*slog.Logger
	base      *slog.Logger
	component string
}

// Config holds logger configuration. Handler wins over Output and Level.
type Config struct {
	Level     slog.Level
	Component string
	Output    io.Writer
	Handler   slog.Handler
}

// DefaultConfig logs info and above for the app component to stdout.
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
		Output:    os.Stdout,
	}
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		out := config.Output
		if out == nil {
			out = os.Stdout
		}
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: config.Level})
	}
	return bind(slog.New(handler), config.Component)
}

func bind(base *slog.Logger, component string) *Logger {
	return &Logger{
		Logger:    base.With(FieldComponent, component),
		base:      base,
		component: component,
	}
}

// Setup builds the process logger for a binary and installs it as the slog
// default, so packages logging through slog directly share its handler.
func Setup(component string, level slog.Level) *Logger {
	logger := New(Config{Level: level, Component: component, Output: os.Stdout})
	SetDefault(logger)
	return logger
}

// NewWriter creates a text logger writing to w.
func NewWriter(w io.Writer, component string, level slog.Level) *Logger {
	return New(Config{Level: level, Component: component, Output: w})
}

func (l *Logger) With(args ...any) *Logger {
	return bind(l.base.With(args...), l.component)
}

func (l *Logger) WithComponent(component string) *Logger {
	return bind(l.base, component)
}

func (l *Logger) Component() string {
	return l.component
}

func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
