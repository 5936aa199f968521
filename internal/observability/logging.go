// Package observability holds the metrics, spans and write-path logging
// shared by the repositories and the realtime hub.
package observability

import (
	"context"
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.Default())
}

// SetLogger installs the logger used by RepoLogger and HubLogger. The
// middleware package calls it with its context-aware logger.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger.Store(l)
	}
}

// RepoLogger logs the outcome of repository writes against one table.
type RepoLogger struct {
	table string
}

func NewRepoLogger(table string) *RepoLogger {
	return &RepoLogger{table: table}
}

// Write records one create, update or delete. A non-nil err is logged at
// error level.
func (l *RepoLogger) Write(ctx context.Context, op string, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.String("table", l.table), slog.String("operation", op))
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		logger.Load().LogAttrs(ctx, slog.LevelError, "repository write failed", attrs...)
		return
	}
	logger.Load().LogAttrs(ctx, slog.LevelInfo, "repository "+op, attrs...)
}

// HubLogger logs websocket client lifecycle for one hub.
type HubLogger struct {
	hub string
}

func NewHubLogger(hub string) *HubLogger {
	return &HubLogger{hub: hub}
}

// Connected logs a registration; open is the user's connection count after it.
func (l *HubLogger) Connected(ctx context.Context, userID uint, open int) {
	logger.Load().LogAttrs(ctx, slog.LevelInfo, "websocket connected",
		slog.String("hub", l.hub),
		slog.Uint64("user_id", uint64(userID)),
		slog.Int("user_connections", open),
	)
}

func (l *HubLogger) Disconnected(ctx context.Context, userID uint, reason string) {
	logger.Load().LogAttrs(ctx, slog.LevelInfo, "websocket disconnected",
		slog.String("hub", l.hub),
		slog.Uint64("user_id", uint64(userID)),
		slog.String("reason", reason),
	)
}
