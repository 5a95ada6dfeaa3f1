// Package socketio pushes pipeline transition events to a socket.io server,
// for dashboards or chat bridges that want to follow a run live.
package socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/triggergrid/internal/ctxlog"
	"github.com/specialistvlad/triggergrid/internal/events"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultEvent is the socket.io event name transitions are emitted under.
const DefaultEvent = "stage_transition"

// Config describes the socket.io endpoint.
type Config struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
	// StagesOnly suppresses scenario run transitions.
	StagesOnly bool
}

// emitter is the part of *socket.Socket the notifier needs.
type emitter interface {
	Emit(ev string, args ...any) error
}

// Notifier is an events.Sink that emits every event as a JSON object.
// Emit errors are logged and otherwise ignored; notifications never affect
// the outcome of a run.
type Notifier struct {
	cfg    Config
	client emitter
	close  func()
}

// Dial connects to the socket.io server and returns a Notifier bound to it.
func Dial(ctx context.Context, cfg Config) (*Notifier, error) {
	logger := ctxlog.FromContext(ctx).With("notifier", "socketio", "url", cfg.URL)
	logger.Debug("Connecting to socket.io server.")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse socket.io URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("socket.io URL %q must include scheme and host", cfg.URL)
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification.")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}

	logger.Info("🔌 Connected to socket.io server.", "sid", io.Id())
	return newNotifier(cfg, io, func() { io.Disconnect() }), nil
}

func newNotifier(cfg Config, client emitter, closeFn func()) *Notifier {
	if cfg.Event == "" {
		cfg.Event = DefaultEvent
	}
	if closeFn == nil {
		closeFn = func() {}
	}
	return &Notifier{cfg: cfg, client: client, close: closeFn}
}

// Publish implements events.Sink.
func (n *Notifier) Publish(ctx context.Context, e events.Event) {
	if n.cfg.StagesOnly && e.Kind != events.KindStage {
		return
	}
	payload, err := Payload(e)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to encode notification.", "error", err)
		return
	}
	if err := n.client.Emit(n.cfg.Event, payload); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to emit notification.", "event", n.cfg.Event, "error", err)
	}
}

// Close disconnects from the server.
func (n *Notifier) Close() {
	n.close()
}

// Payload converts an event into the generic map shape socket.io clients
// receive as a JSON object.
func Payload(e events.Event) (map[string]any, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
