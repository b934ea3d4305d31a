package log

import (
	"context"
	"fmt"
	"strings"

	contextx "github.com/blueplan/recipebot/internal/recipebot/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a context-aware structured logger backed by zap.
type Logger struct {
	z *zap.Logger
}

// Field is a single key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// KV creates a key/value field.
func KV(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// NewLogger creates a JSON logger writing to stderr at the given level
// (DEBUG, INFO, WARN, ERROR; case-insensitive).
func NewLogger(level string) (*Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	z, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &Logger{z: z}, nil
}

// NewDevelopment creates a human-readable console logger, used by the
// interactive CLI.
func NewDevelopment(level string) (*Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	z, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &Logger{z: z}, nil
}

// NewFromZap wraps an existing zap logger.
func NewFromZap(z *zap.Logger) *Logger {
	return &Logger{z: z.WithOptions(zap.AddCallerSkip(2))}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop()}
}

func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, zapcore.InfoLevel, message, fields...)
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, zapcore.ErrorLevel, message, fields...)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, zapcore.WarnLevel, message, fields...)
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, message string, fields ...Field) {
	l.log(ctx, zapcore.DebugLevel, message, fields...)
}

// With returns a child logger that always carries the given fields.
func (l *Logger) With(fields ...Field) *Logger {
	if l == nil || l.z == nil {
		return l
	}
	return &Logger{z: l.z.With(toZap(nil, fields)...)}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	if l == nil || l.z == nil {
		return nil
	}
	return l.z.Sync()
}

func (l *Logger) log(ctx context.Context, level zapcore.Level, message string, fields ...Field) {
	if l == nil || l.z == nil {
		return
	}
	ce := l.z.Check(level, message)
	if ce == nil {
		return
	}

	zf := make([]zap.Field, 0, len(fields)+2)
	if requestID, ok := contextx.GetRequireID(ctx); ok {
		zf = append(zf, zap.String("request_id", requestID))
	}
	if userID, ok := contextx.GetUserID(ctx); ok {
		zf = append(zf, zap.String("user_id", userID))
	}
	ce.Write(toZap(zf, fields)...)
}

func toZap(dst []zap.Field, fields []Field) []zap.Field {
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			dst = append(dst, zap.NamedError(f.Key, err))
			continue
		}
		dst = append(dst, zap.Any(f.Key, f.Value))
	}
	return dst
}
