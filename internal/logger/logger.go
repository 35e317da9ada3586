// Package logger is the structured logging layer of the sync daemon:
// slog-based, with a colorized text handler for terminals, a JSON
// handler for log shipping, and operation-scoped fields (component,
// action, path, trace) injected from the context by the *Ctx variants.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config mirrors the logging section of the daemon configuration.
type Config struct {
	Level  string // DEBUG, INFO, WARN or ERROR
	Format string // text or json
	Output string // stdout, stderr, or a file path
}

var (
	// level is the dynamic minimum level shared by every handler built
	// here. Adjusting it never requires a handler rebuild.
	level slog.LevelVar

	mu       sync.RWMutex
	format   string    = "text"
	output   io.Writer = os.Stdout
	useColor bool
	slogger  *slog.Logger
)

func init() {
	if f, ok := output.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}
	rebuild()
}

// rebuild swaps in a new handler for the current output and format.
// Callers must not hold mu.
func rebuild() {
	mu.Lock()
	defer mu.Unlock()

	opts := &slog.HandlerOptions{Level: &level}

	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(output, opts)
	} else {
		h = NewColorTextHandler(output, opts, useColor)
	}
	slogger = slog.New(h)
}

// Init configures the process logger once at daemon startup. Output may
// be "stdout", "stderr" or a file path; a file is opened in append mode
// and never rotated here (rotation belongs to the host's log
// management).
func Init(cfg Config) error {
	w, color, err := resolveOutput(cfg.Output)
	if err != nil {
		return err
	}

	mu.Lock()
	output = w
	useColor = color
	if f := strings.ToLower(cfg.Format); f == "text" || f == "json" {
		format = f
	}
	mu.Unlock()

	SetLevel(cfg.Level)
	rebuild()
	return nil
}

// InitWithWriter points the logger at an arbitrary writer. Test-only.
func InitWithWriter(w io.Writer, levelName, formatName string, enableColor bool) {
	mu.Lock()
	output = w
	useColor = enableColor
	if f := strings.ToLower(formatName); f == "text" || f == "json" {
		format = f
	}
	mu.Unlock()

	SetLevel(levelName)
	rebuild()
}

// resolveOutput maps a configured output name to a writer and whether
// that writer supports ANSI color.
func resolveOutput(name string) (io.Writer, bool, error) {
	switch strings.ToLower(name) {
	case "", "stdout":
		return os.Stdout, isTerminal(os.Stdout.Fd()), nil
	case "stderr":
		return os.Stderr, isTerminal(os.Stderr.Fd()), nil
	default:
		f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, false, fmt.Errorf("failed to open log file %q: %w", name, err)
		}
		return f, false, nil
	}
}

// SetLevel adjusts the minimum level at runtime. Unknown names are
// ignored, keeping the previous level.
func SetLevel(name string) {
	switch strings.ToUpper(name) {
	case "DEBUG":
		level.Set(slog.LevelDebug)
	case "INFO":
		level.Set(slog.LevelInfo)
	case "WARN":
		level.Set(slog.LevelWarn)
	case "ERROR":
		level.Set(slog.LevelError)
	}
}

// SetFormat switches between text and json output. Unknown names are
// ignored.
func SetFormat(name string) {
	name = strings.ToLower(name)
	if name != "text" && name != "json" {
		return
	}
	mu.Lock()
	format = name
	mu.Unlock()
	rebuild()
}

func getLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

// log is the single funnel behind every level and variant. Fields
// carried in ctx's LogContext are prepended so component/action/path
// lead each line.
func log(ctx context.Context, lvl slog.Level, msg string, args []any) {
	if lvl < level.Level() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	getLogger().Log(ctx, lvl, msg, appendContextFields(ctx, args)...)
}

// Debug logs at debug level with structured key/value fields.
func Debug(msg string, args ...any) { log(nil, slog.LevelDebug, msg, args) }

// Info logs at info level with structured key/value fields.
func Info(msg string, args ...any) { log(nil, slog.LevelInfo, msg, args) }

// Warn logs at warn level with structured key/value fields.
func Warn(msg string, args ...any) { log(nil, slog.LevelWarn, msg, args) }

// Error logs at error level with structured key/value fields.
func Error(msg string, args ...any) { log(nil, slog.LevelError, msg, args) }

// DebugCtx logs at debug level, injecting the LogContext fields carried
// in ctx.
func DebugCtx(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelDebug, msg, args)
}

// InfoCtx logs at info level, injecting the LogContext fields carried
// in ctx.
func InfoCtx(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelInfo, msg, args)
}

// WarnCtx logs at warn level, injecting the LogContext fields carried
// in ctx.
func WarnCtx(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelWarn, msg, args)
}

// ErrorCtx logs at error level, injecting the LogContext fields carried
// in ctx.
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelError, msg, args)
}

// appendContextFields prepends LogContext fields to args so they appear
// first in the emitted line.
func appendContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	ctxArgs := make([]any, 0, 10+len(args))

	if lc.TraceID != "" {
		ctxArgs = append(ctxArgs, KeyTraceID, lc.TraceID)
	}
	if lc.SpanID != "" {
		ctxArgs = append(ctxArgs, KeySpanID, lc.SpanID)
	}
	if lc.Component != "" {
		ctxArgs = append(ctxArgs, KeyComponent, lc.Component)
	}
	if lc.Action != "" {
		ctxArgs = append(ctxArgs, KeyAction, lc.Action)
	}
	if lc.Path != "" {
		ctxArgs = append(ctxArgs, KeyPath, lc.Path)
	}

	ctxArgs = append(ctxArgs, args...)
	return ctxArgs
}
