// Package log configures the process-wide structured logger. Every
// record carries a component attribute naming the subsystem that
// emitted it.
package log

import (
	"log/slog"
	"os"
)

// Logger is a slog.Logger bound to one component. The component is
// attached once at construction, so all the usual leveled methods pick
// it up without wrapping.
type Logger struct {
	*slog.Logger
	component string
}

type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: config.Level,
		})
	}

	base := slog.New(handler)
	if config.Component != "" {
		base = base.With("component", config.Component)
	}

	return &Logger{
		Logger:    base,
		component: config.Component,
	}
}

// WithComponent returns a logger on the same handler bound to a
// different component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    slog.New(l.Handler()).With("component", component),
		component: component,
	}
}

// SetDefault installs the logger as the process default, so packages
// logging through slog directly inherit the component attribute.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
