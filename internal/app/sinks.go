package app

import (
	"context"

	"github.com/specialistvlad/triggergrid/internal/ctxlog"
	"github.com/specialistvlad/triggergrid/internal/events"
	"github.com/specialistvlad/triggergrid/internal/notify/socketio"
)

// notifyBuffer is how many transitions may queue for a slow socket.io server
// before new ones are dropped.
const notifyBuffer = 256

// newSink assembles the event sinks for one run. The returned function
// flushes and closes the sinks that hold resources.
func (app *App) newSink(ctx context.Context) (events.Sink, func()) {
	logger := ctxlog.FromContext(ctx)
	sinks := []events.Sink{events.LogSink{}, app.metrics}
	closeFn := func() {}

	if app.config.SocketIOURL != "" {
		n, err := socketio.Dial(ctx, app.config.notifierConfig())
		if err != nil {
			logger.Warn("⚠️ socket.io notifications disabled.", "error", err)
		} else {
			async := events.NewAsync(n, notifyBuffer)
			sinks = append(sinks, async)
			closeFn = func() {
				async.Close()
				n.Close()
				if dropped := async.Dropped(); dropped > 0 {
					logger.Warn("Some socket.io notifications were dropped.", "count", dropped)
				}
			}
		}
	}

	return events.Multi(sinks...), closeFn
}

func (cfg *Config) notifierConfig() socketio.Config {
	return socketio.Config{
		URL:                cfg.SocketIOURL,
		Namespace:          cfg.SocketIONamespace,
		InsecureSkipVerify: cfg.SocketIOInsecure,
		StagesOnly:         cfg.SocketIOStagesOnly,
	}
}
