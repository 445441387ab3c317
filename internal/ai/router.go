package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrNoProvider is returned when the router has nothing registered.
var ErrNoProvider = errors.New("no AI provider configured")

// Router tries registered providers in registration order and returns the
// first successful completion.
type Router struct {
	mu        sync.RWMutex
	providers []Provider
	timeout   time.Duration
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithAttemptTimeout bounds each provider attempt, so a hanging provider
// leaves time for the rest of the chain.
func WithAttemptTimeout(d time.Duration) RouterOption {
	return func(r *Router) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRouter creates a new AI router.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends a provider to the fallback chain.
func (r *Router) Register(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = append(r.providers, provider)
}

// Complete routes a request through the fallback chain.
func (r *Router) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	r.mu.RLock()
	chain := make([]Provider, len(r.providers))
	copy(chain, r.providers)
	r.mu.RUnlock()

	if len(chain) == 0 {
		return CompletionResponse{}, ErrNoProvider
	}

	var errs []error
	for _, p := range chain {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		resp, err := r.attempt(ctx, p, req)
		if err != nil {
			slog.Warn("AI provider failed, trying next",
				"provider", p.Name(),
				"task", req.Task.String(),
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}

		slog.Debug("AI request completed",
			"provider", p.Name(),
			"task", req.Task.String(),
			"model", resp.Model,
			"input_tokens", resp.InputTokens,
			"output_tokens", resp.OutputTokens,
		)
		return resp, nil
	}

	return CompletionResponse{}, fmt.Errorf("all AI providers failed: %w", errors.Join(errs...))
}

func (r *Router) attempt(ctx context.Context, p Provider, req CompletionRequest) (CompletionResponse, error) {
	if r.timeout <= 0 {
		return p.Complete(ctx, req)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return p.Complete(ctx, req)
}

// HealthCheck succeeds when at least one provider is reachable.
func (r *Router) HealthCheck(ctx context.Context) error {
	r.mu.RLock()
	chain := make([]Provider, len(r.providers))
	copy(chain, r.providers)
	r.mu.RUnlock()

	if len(chain) == 0 {
		return ErrNoProvider
	}
	var errs []error
	for _, p := range chain {
		err := p.HealthCheck(ctx)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return errors.Join(errs...)
}

// HasProvider returns true if at least one provider is registered.
func (r *Router) HasProvider() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers) > 0
}

// Names lists registered providers in fallback order.
func (r *Router) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}
