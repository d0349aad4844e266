package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Config controls how the service logger is built.
type Config struct {
	// Level is one of debug, info, warn, error (default info)
	Level string
	// Format is "json", "text" or "slog" (default text). "slog" writes
	// log/slog JSON records instead of logrus entries.
	Format string
	// Output defaults to os.Stderr
	Output io.Writer
	// Service is attached to every entry when set
	Service string
}

// New builds the service Logger from cfg: logrus-backed, or slog-backed
// when cfg.Format is "slog".
func New(cfg Config) Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var l Logger
	if cfg.Format == "slog" {
		l = newSlog(cfg.Level, out)
	} else {
		l = newLogrus(cfg, out)
	}
	if cfg.Service != "" {
		return l.With("service", cfg.Service)
	}
	return l
}

func newSlog(level string, out io.Writer) Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return NewSlogAdapter(slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})))
}

func newLogrus(cfg Config, out io.Writer) Logger {
	logger := logrus.New()

	switch cfg.Level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{TimestampFormat: time.RFC3339, FullTimestamp: true})
	}

	logger.SetOutput(out)
	return NewLogrusAdapter(logger)
}

// LogrusAdapter wraps a logrus entry to implement the Logger interface.
type LogrusAdapter struct {
	entry *logrus.Entry
}

// NewLogrusAdapter creates a LogrusAdapter. If logger is nil,
// logrus.StandardLogger() is used.
func NewLogrusAdapter(logger *logrus.Logger) *LogrusAdapter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogrusAdapter{entry: logrus.NewEntry(logger)}
}

// Debug implements Logger.
func (l *LogrusAdapter) Debug(msg string, attrs ...any) {
	l.entry.WithFields(fields(attrs)).Debug(msg)
}

// Info implements Logger.
func (l *LogrusAdapter) Info(msg string, attrs ...any) {
	l.entry.WithFields(fields(attrs)).Info(msg)
}

// Warn implements Logger.
func (l *LogrusAdapter) Warn(msg string, attrs ...any) {
	l.entry.WithFields(fields(attrs)).Warn(msg)
}

// Error implements Logger.
func (l *LogrusAdapter) Error(msg string, attrs ...any) {
	l.entry.WithFields(fields(attrs)).Error(msg)
}

// With implements Logger.
func (l *LogrusAdapter) With(attrs ...any) Logger {
	return &LogrusAdapter{entry: l.entry.WithFields(fields(attrs))}
}

var _ Logger = (*LogrusAdapter)(nil)

// fields converts slog-style alternating key/value pairs into logrus fields.
// A trailing key without a value is recorded under "!BADKEY", as slog does.
func fields(attrs []any) logrus.Fields {
	f := make(logrus.Fields, len(attrs)/2)
	for i := 0; i < len(attrs); i += 2 {
		if i+1 >= len(attrs) {
			f["!BADKEY"] = attrs[i]
			break
		}
		key, ok := attrs[i].(string)
		if !ok {
			key = fmt.Sprint(attrs[i])
		}
		value := attrs[i+1]
		if err, isErr := value.(error); isErr {
			value = err.Error()
		}
		f[key] = value
	}
	return f
}
