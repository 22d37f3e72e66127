package dispatch

import (
	"context"
	"log/slog"
)

// NopLogger discards all diagnostics. Pass it as Options.Logger to silence
// the dispatcher entirely; a nil Options.Logger means slog.Default().
var NopLogger = slog.New(nopHandler{})

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }
