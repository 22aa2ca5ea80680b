package model

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/harunnryd/hibiki/internal/config"
	hibikiErrors "github.com/harunnryd/hibiki/internal/errors"
	"github.com/harunnryd/hibiki/internal/model/contract"
	anthropicProvider "github.com/harunnryd/hibiki/internal/model/providers/anthropic"
	geminiProvider "github.com/harunnryd/hibiki/internal/model/providers/gemini"
	openaiProvider "github.com/harunnryd/hibiki/internal/model/providers/openai"
)

// DefaultModelRouter implements ModelRouter interface
type DefaultModelRouter struct {
	cfg       config.ModelsConfig
	providers map[string]Provider
	mu        sync.RWMutex
}

// NewModelRouter creates a new model router
func NewModelRouter(cfg config.ModelsConfig) (*DefaultModelRouter, error) {
	router := &DefaultModelRouter{
		cfg:       cfg,
		providers: make(map[string]Provider),
	}

	if err := router.initProviders(); err != nil {
		return nil, err
	}

	return router, nil
}

func (r *DefaultModelRouter) initProviders() error {
	for _, entry := range r.cfg.Registry {
		switch entry.Provider {
		case "openai":
			r.providers[entry.Name] = openaiProvider.New(entry.APIKey, entry.BaseURL, entry.Name)
		case "anthropic":
			r.providers[entry.Name] = anthropicProvider.New(entry.APIKey)
		case "gemini":
			p, err := geminiProvider.New(entry.APIKey)
			if err != nil {
				slog.Warn("Skipping gemini model, client init failed", "model", entry.Name, "error", err)
				continue
			}
			r.providers[entry.Name] = p
		default:
			slog.Warn("Skipping model with unknown provider", "model", entry.Name, "provider", entry.Provider)
		}
	}

	if len(r.providers) == 0 {
		return hibikiErrors.InvalidInput("no usable model registry entries")
	}
	return nil
}

// Route routes a completion request to the appropriate provider, falling back
// to the configured fallback model on retryable failures.
func (r *DefaultModelRouter) Route(ctx context.Context, model string, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	if model == "" {
		model = r.cfg.Default
	}

	tryModels := r.tryOrder(model)
	mapper := hibikiErrors.NewDefaultErrorMapper()

	var lastErr error
	attempts := 0
	for _, tryModel := range tryModels {
		if attempts > r.cfg.MaxFallbackAttempts {
			break
		}

		r.mu.RLock()
		provider, exists := r.providers[tryModel]
		r.mu.RUnlock()
		if !exists {
			continue
		}

		attempts++
		req.Model = tryModel
		resp, err := provider.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		mapped := mapper.MapError(err)
		lastErr = mapped
		if !mapper.IsRetryable(mapped) {
			return nil, mapped
		}
		slog.Warn("Completion failed, trying fallback model", "model", tryModel, "error", err)
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, hibikiErrors.NotFound("no provider configured for model " + model)
}

// RouteEmbedding routes an embedding request to the appropriate provider.
func (r *DefaultModelRouter) RouteEmbedding(ctx context.Context, model string, text string) ([]float32, error) {
	if model == "" {
		model = r.cfg.Embedding
	}

	for _, tryModel := range r.embeddingTryOrder(model) {
		select {
		case <-ctx.Done():
			return nil, hibikiErrors.Wrap(ctx.Err(), "embedding request cancelled")
		default:
		}

		r.mu.RLock()
		provider, exists := r.providers[tryModel]
		r.mu.RUnlock()
		if !exists {
			continue
		}

		embeddings, err := provider.Embed(ctx, text)
		if err == nil {
			return embeddings, nil
		}

		if isEmbeddingUnsupported(err) {
			slog.Debug("Embedding unsupported by provider, trying next model", "model", tryModel)
			continue
		}
		slog.Warn("Embedding failed for model, trying next model", "model", tryModel, "error", err)
	}

	return nil, hibikiErrors.NotFound("no embedding-capable model configured")
}

// ListModels returns registered model names sorted for stable output.
func (r *DefaultModelRouter) ListModels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *DefaultModelRouter) tryOrder(requested string) []string {
	order := []string{requested}
	if r.cfg.Fallback != "" && r.cfg.Fallback != requested {
		order = append(order, r.cfg.Fallback)
	}
	return order
}

func (r *DefaultModelRouter) embeddingTryOrder(requested string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.providers)+2)
	order := make([]string, 0, len(r.providers)+2)

	appendUnique := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		order = append(order, name)
	}

	appendUnique(requested)
	appendUnique(r.cfg.Embedding)
	for name := range r.providers {
		appendUnique(name)
	}
	return order
}

func isEmbeddingUnsupported(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "not supported")
}
