// Package webhook provides the "webhook" action, which sends the data a node
// receives to an HTTP endpoint as a JSON object.
package webhook

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/vk/adagraph/internal/container"
	"github.com/vk/adagraph/internal/ctxlog"
	"github.com/vk/adagraph/internal/graph"
	"github.com/vk/adagraph/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Config is the parsed settings block of a webhook node.
type Config struct {
	URL     string
	Method  string
	Token   string
	Timeout time.Duration
	Retries int
}

// Action posts its argument to the configured URL.
type Action struct {
	cfg    Config
	client *resty.Client
}

// New creates a webhook action with its own HTTP client.
func New(cfg Config) *Action {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries)
	if cfg.Token != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.Token)
	}
	return &Action{cfg: cfg, client: client}
}

// Invoke sends args and logs the outcome.
func (a *Action) Invoke(ctx context.Context, args *container.Container) {
	logger := ctxlog.FromContext(ctx).With("action", "webhook", "method", a.cfg.Method, "url", a.cfg.URL)

	status, err := a.Send(ctx, args)
	if err != nil {
		logger.Error("Webhook request failed.", "error", err)
		return
	}
	logger.Debug("Webhook delivered.", "status", status)
}

// Send performs one request and returns the response status code. Responses
// of 400 and above are errors.
func (a *Action) Send(ctx context.Context, args *container.Container) (int, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(args.Map()).
		Execute(a.cfg.Method, a.cfg.URL)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	if resp.IsError() {
		return resp.StatusCode(), fmt.Errorf("endpoint answered %s", resp.Status())
	}
	return resp.StatusCode(), nil
}

// Close releases the HTTP client.
func (a *Action) Close() error {
	return a.client.Close()
}

// ParseConfig reads a webhook settings block.
func ParseConfig(settings *container.Container) (Config, error) {
	var cfg Config
	var err error

	if cfg.URL, err = registry.RequiredTextSetting(settings, "url"); err != nil {
		return cfg, err
	}
	if cfg.Method, err = registry.TextSetting(settings, "method", http.MethodPost); err != nil {
		return cfg, err
	}
	cfg.Method = strings.ToUpper(cfg.Method)
	switch cfg.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return cfg, fmt.Errorf("setting 'method': %s cannot carry a body, use POST, PUT or PATCH", cfg.Method)
	}
	if cfg.Token, err = registry.TextSetting(settings, "token", ""); err != nil {
		return cfg, err
	}
	if cfg.Timeout, err = registry.DurationSetting(settings, "timeout", 5*time.Second); err != nil {
		return cfg, err
	}
	if cfg.Retries, err = registry.IntSetting(settings, "retries", 0); err != nil {
		return cfg, err
	}
	if cfg.Retries < 0 {
		return cfg, fmt.Errorf("setting 'retries' must not be negative")
	}
	return cfg, nil
}

// Register registers the action factory with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterAction("webhook", func(_ context.Context, settings *container.Container) (graph.Action, error) {
		cfg, err := ParseConfig(settings)
		if err != nil {
			return nil, err
		}
		return New(cfg), nil
	})
}
