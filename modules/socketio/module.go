// Package socketio provides the "socketio" action, which forwards the data a
// node receives to a Socket.IO server as an event.
package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/adagraph/internal/container"
	"github.com/vk/adagraph/internal/ctxlog"
	"github.com/vk/adagraph/internal/graph"
	"github.com/vk/adagraph/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Config is the parsed settings block of a socketio node.
type Config struct {
	URL                string
	Namespace          string
	Event              string
	ReplyEvent         string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Action emits its argument as a Socket.IO event.
type Action struct {
	cfg Config
}

// opResult is a private struct to safely pass results through the done channel.
type opResult struct {
	reply any
	err   error
}

// Invoke connects, emits args and disconnects. Failures are logged; the
// graph has no way to report them to the client.
func (a *Action) Invoke(ctx context.Context, args *container.Container) {
	logger := ctxlog.FromContext(ctx).With("action", "socketio", "url", a.cfg.URL, "event", a.cfg.Event)
	reply, err := a.Emit(ctx, args)
	if err != nil {
		logger.Error("Socket.IO emit failed.", "error", err)
		return
	}
	logger.Debug("Socket.IO emit finished.", "reply", reply)
}

// Emit sends args as the configured event. When ReplyEvent is set it waits
// for that event and returns its first argument.
func (a *Action) Emit(ctx context.Context, args *container.Container) (any, error) {
	logger := ctxlog.FromContext(ctx).With("action", "socketio", "url", a.cfg.URL)

	parsedURL, err := url.Parse(a.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	opts.SetReconnection(false)
	opts.SetTimeout(a.cfg.Timeout)
	if a.cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(a.cfg.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	var isConnected atomic.Bool
	done := make(chan opResult, 1)
	finish := func(r opResult) {
		select {
		case done <- r:
		default:
		}
	}

	payload := args.Map()
	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Debug("Successfully connected", "namespace", a.cfg.Namespace, "sid", io.Id())
		if err := io.Emit(a.cfg.Event, payload); err != nil {
			finish(opResult{err: fmt.Errorf("failed to emit '%s': %w", a.cfg.Event, err)})
			return
		}
		if a.cfg.ReplyEvent == "" {
			finish(opResult{})
		}
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connection failed")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = fmt.Errorf("connection failed: %w", e)
			}
		}
		finish(opResult{err: err})
	})

	if a.cfg.ReplyEvent != "" {
		io.On(types.EventName(a.cfg.ReplyEvent), func(data ...any) {
			var reply any
			if len(data) > 0 {
				reply = data[0]
			}
			finish(opResult{reply: reply})
		})
	}

	io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return nil, fmt.Errorf("timed out after connecting while waiting for event '%s'", a.cfg.ReplyEvent)
		}
		return nil, fmt.Errorf("timed out while waiting for initial connection")
	case res := <-done:
		return res.reply, res.err
	}
}

// ParseConfig reads a socketio settings block.
func ParseConfig(settings *container.Container) (Config, error) {
	var cfg Config
	var err error

	if cfg.URL, err = registry.RequiredTextSetting(settings, "url"); err != nil {
		return cfg, err
	}
	if _, err := url.Parse(cfg.URL); err != nil {
		return cfg, fmt.Errorf("setting 'url': %w", err)
	}
	if cfg.Namespace, err = registry.TextSetting(settings, "namespace", "/"); err != nil {
		return cfg, err
	}
	if cfg.Event, err = registry.RequiredTextSetting(settings, "event"); err != nil {
		return cfg, err
	}
	if cfg.ReplyEvent, err = registry.TextSetting(settings, "reply_event", ""); err != nil {
		return cfg, err
	}
	if cfg.Timeout, err = registry.DurationSetting(settings, "timeout", 10*time.Second); err != nil {
		return cfg, err
	}
	if cfg.InsecureSkipVerify, err = registry.BoolSetting(settings, "insecure_skip_verify", false); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Register registers the action factory with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("socketio", func(_ context.Context, settings *container.Container) (graph.Action, error) {
		cfg, err := ParseConfig(settings)
		if err != nil {
			return nil, err
		}
		return &Action{cfg: cfg}, nil
	})
}
