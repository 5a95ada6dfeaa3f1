package events

import (
	"context"
	"log/slog"

	"github.com/specialistvlad/triggergrid/internal/ctxlog"
)

// LogSink writes every event to the logger found in the context. Stage
// transitions are logged at Info, run transitions at Debug, except failures
// which are always Warn.
type LogSink struct{}

func (LogSink) Publish(ctx context.Context, e Event) {
	logger := ctxlog.FromContext(ctx)

	level := slog.LevelDebug
	msg := "Scenario run transition."
	if e.Kind == KindStage {
		level = slog.LevelInfo
		msg = "Stage transition."
	}
	if e.To == "failed" {
		level = slog.LevelWarn
	}

	attrs := []any{"stage", e.Stage, "from", e.From, "to", e.To}
	if e.Scenario != "" {
		attrs = append(attrs, "scenario", e.Scenario, "run_id", e.RunID)
	}
	if e.Reason != "" {
		attrs = append(attrs, "reason", e.Reason)
	}
	if e.Duration > 0 {
		attrs = append(attrs, "duration", e.Duration)
	}
	logger.Log(ctx, level, msg, attrs...)
}
