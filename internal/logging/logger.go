// Package logging adapts zap to the field-map Logger used by the client.
package logging

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes field-map log entries through a zap SugaredLogger.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

// New builds a logger. mode "prod"/"production" selects JSON output,
// anything else the development console encoder. verbose enables debug.
func New(mode string, verbose bool) (*Logger, error) {
	var cfg zap.Config

	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	cfg.OutputPaths = []string{"stderr"}

	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	return &Logger{SugaredLogger: zapLogger.Sugar()}, nil
}

// NewFromCore wraps an existing zap core.
func NewFromCore(core zapcore.Core) *Logger {
	return &Logger{SugaredLogger: zap.New(core).Sugar()}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.SugaredLogger.Debugw(msg, keysAndValues(fields)...)
}

func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.SugaredLogger.Infow(msg, keysAndValues(fields)...)
}

func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	l.SugaredLogger.Warnw(msg, keysAndValues(fields)...)
}

func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.SugaredLogger.Errorw(msg, keysAndValues(fields)...)
}

// With returns a logger that adds fields to every entry.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(keysAndValues(fields)...)}
}

// keysAndValues flattens fields in key order so output is stable.
func keysAndValues(fields map[string]interface{}) []interface{} {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	out := make([]interface{}, 0, len(fields)*2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}

	return out
}
