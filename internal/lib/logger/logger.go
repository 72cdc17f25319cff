package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"

	logFile = "myobclient.log"
)

func SetupLogger(env, path string) *slog.Logger {
	var logger *slog.Logger

	switch env {
	case envLocal:
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		logger = slog.New(slog.NewJSONHandler(openLog(path), &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		logger = slog.New(slog.NewJSONHandler(openLog(path), &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	return logger
}

func openLog(path string) io.Writer {
	f, err := os.OpenFile(filepath.Join(path, logFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return os.Stdout
	}
	return f
}

// Messenger delivers log records to admins.
type Messenger interface {
	SendMessageWithLevel(msg string, level slog.Level)
}

// SetupTelegramHandler wraps the logger so records at or above level are also sent to the bot.
func SetupTelegramHandler(lg *slog.Logger, m Messenger, level slog.Level) *slog.Logger {
	return slog.New(&TelegramHandler{
		next:      lg.Handler(),
		messenger: m,
		level:     level,
	})
}

type TelegramHandler struct {
	next      slog.Handler
	messenger Messenger
	level     slog.Level
	attrs     []slog.Attr
	group     string
}

func (h *TelegramHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level) || level >= h.level
}

func (h *TelegramHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level && h.messenger != nil {
		h.messenger.SendMessageWithLevel(h.format(r), r.Level)
	}
	if h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *TelegramHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &TelegramHandler{
		next:      h.next.WithAttrs(attrs),
		messenger: h.messenger,
		level:     h.level,
		attrs:     merged,
		group:     h.group,
	}
}

func (h *TelegramHandler) WithGroup(name string) slog.Handler {
	return &TelegramHandler{
		next:      h.next.WithGroup(name),
		messenger: h.messenger,
		level:     h.level,
		attrs:     h.attrs,
		group:     name,
	}
}

func (h *TelegramHandler) format(r slog.Record) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("*%s* %s", r.Level.String(), r.Message))
	for _, a := range h.attrs {
		b.WriteString(fmt.Sprintf("\n%s: %s", a.Key, a.Value.String()))
	}
	r.Attrs(func(a slog.Attr) bool {
		b.WriteString(fmt.Sprintf("\n%s: %s", a.Key, a.Value.String()))
		return true
	})
	return b.String()
}
