package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	userLogger      = log.New(os.Stdout, "", 0)
	internalLogger  *zap.SugaredLogger
	loggerMode      = "production"
	loggerModeMutex sync.RWMutex
)

type requestIDKeyType struct{}

var requestIDKey = requestIDKeyType{}

func init() {
	initLoggers("production")
}

func initLoggers(mode string) {
	// Internal logger: to stderr, with levels and debug support
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if os.Getenv("SITEHOOKS_DEBUG") != "" || mode == "debug" {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		log.Printf("Failed to initialize zap logger: %v, falling back to no-op logger", err)
		internalLogger = zap.NewNop().Sugar()
		return
	}
	internalLogger = l.Sugar()
}

// User prints plain output meant for the person running the CLI.
func User(format string, v ...any) {
	userLogger.Printf(format, v...)
}

func Info(format string, v ...any) {
	internalLogger.Infof(format, v...)
}

func Warn(format string, v ...any) {
	internalLogger.Warnf(format, v...)
}

func Error(format string, v ...any) {
	internalLogger.Errorf(format, v...)
}

func Debug(format string, v ...any) {
	internalLogger.Debugf(format, v...)
}

func SetUserOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	userLogger.SetOutput(w)
}

// SetInternalOutput redirects internal logs to w at debug level. Used by tests
// to capture log lines.
func SetInternalOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	internalLogger = zap.New(core).Sugar()
}

func SetMode(mode string) {
	loggerModeMutex.Lock()
	defer loggerModeMutex.Unlock()
	loggerMode = mode
	initLoggers(mode)
}

// Mode reports the current logger mode ("production" or "debug").
func Mode() string {
	loggerModeMutex.RLock()
	defer loggerModeMutex.RUnlock()
	return loggerMode
}

// Sync flushes buffered log entries.
func Sync() {
	_ = internalLogger.Sync()
}

// Errorf logs the error message and returns it as an error value.
func Errorf(format string, v ...any) error {
	err := fmt.Errorf(format, v...)
	internalLogger.Errorf("%s", err)
	return err
}

// WithRequestID returns a new context with the given request ID.
func WithRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, requestIDKey, reqID)
}

// RequestIDFromContext extracts the request ID from context, if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(requestIDKey)
	if s, ok := v.(string); ok {
		return s, true
	}
	return "", false
}

func withRequestID(ctx context.Context, fields []any) []any {
	if reqID, ok := RequestIDFromContext(ctx); ok {
		fields = append(fields, "request_id", reqID)
	}
	return fields
}

// InfoCtx logs an info message with context, including request ID if present.
func InfoCtx(ctx context.Context, msg string, fields ...any) {
	internalLogger.Infow(msg, withRequestID(ctx, fields)...)
}

// WarnCtx logs a warning message with context, including request ID if present.
func WarnCtx(ctx context.Context, msg string, fields ...any) {
	internalLogger.Warnw(msg, withRequestID(ctx, fields)...)
}

// ErrorCtx logs an error message with context, including request ID if present.
func ErrorCtx(ctx context.Context, msg string, fields ...any) {
	internalLogger.Errorw(msg, withRequestID(ctx, fields)...)
}

// DebugCtx logs a debug message with context, including request ID if present.
func DebugCtx(ctx context.Context, msg string, fields ...any) {
	internalLogger.Debugw(msg, withRequestID(ctx, fields)...)
}
