package logger

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Fields is the structured payload attached to a log line.
type Fields = map[string]interface{}

// Logger is the logging surface every engine component and worker depends on.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger
	Named(component string) Logger
}

func parseLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a zap logger. format "json" selects the production encoder.
func New(levelStr, format string) *zap.Logger {
	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(levelStr))
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

type zapLogger struct {
	l *zap.Logger
}

func (z *zapLogger) Debug(msg string, fields map[string]interface{}) {
	z.l.Debug(msg, toZap(fields)...)
}

func (z *zapLogger) Info(msg string, fields map[string]interface{}) {
	z.l.Info(msg, toZap(fields)...)
}

func (z *zapLogger) Warn(msg string, fields map[string]interface{}) {
	z.l.Warn(msg, toZap(fields)...)
}

func (z *zapLogger) Error(msg string, fields map[string]interface{}) {
	z.l.Error(msg, toZap(fields)...)
}

func (z *zapLogger) WithFields(fields map[string]interface{}) Logger {
	return &zapLogger{l: z.l.With(toZap(fields)...)}
}

func (z *zapLogger) WithError(err error) Logger {
	return &zapLogger{l: z.l.With(zap.Error(err))}
}

func (z *zapLogger) Named(component string) Logger {
	return &zapLogger{l: z.l.Named(component)}
}

func toZap(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, v))
	}
	return out
}

// NewStructured creates a zap-backed Logger from config values.
func NewStructured(levelStr, format string) Logger {
	return &zapLogger{l: New(levelStr, format)}
}

// NewZapAdapter wraps an existing *zap.Logger.
func NewZapAdapter(l *zap.Logger) Logger {
	return &zapLogger{l: l}
}

// NewTestLogger routes output through t.Log.
func NewTestLogger(t testing.TB) Logger {
	return &zapLogger{l: zaptest.NewLogger(t)}
}

func NewNoOpLogger() Logger {
	return &zapLogger{l: zap.NewNop()}
}
