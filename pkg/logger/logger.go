// Package logger provides the process-wide structured logger built on log/slog.
//
// Handlers log through the request-scoped logger so every line carries the
// request id injected by middleware.Logger:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order created", "order_id", order.ID, "total", order.Total)
package logger

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/mmartin-estofados/storefront/config"
)

var (
	// L is the base logger. It is replaced by AttachMongo when log shipping
	// is enabled.
	L *slog.Logger

	mongoMu      sync.Mutex
	mongoHandler *MongoHandler
)

func init() {
	L = slog.New(newStdoutHandler())
	slog.SetDefault(L)
}

func newStdoutHandler() slog.Handler {
	if config.IsProduction() {
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// AttachMongo starts shipping every log record to MongoDB in addition to
// stdout. A no-op when uri is empty.
func AttachMongo(uri, database string) error {
	if uri == "" {
		return nil
	}

	h, err := NewMongoHandler(uri, database, "logs")
	if err != nil {
		return err
	}

	mongoMu.Lock()
	mongoHandler = h
	mongoMu.Unlock()

	L = slog.New(fanout{newStdoutHandler(), h})
	slog.SetDefault(L)
	return nil
}

// Close flushes and disconnects the Mongo log handler if one is attached.
func Close() {
	mongoMu.Lock()
	h := mongoHandler
	mongoHandler = nil
	mongoMu.Unlock()

	if h != nil {
		h.Close()
	}
}

type ctxKey struct{}

// WithCtx returns the request-scoped logger stored in ctx, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	return L
}

// InjectLogger stores log in ctx. Called by the Logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }

// fanout forwards each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
