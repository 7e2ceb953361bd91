package bootstrap

import (
	"context"
	"fmt"
	"time"

	apperrors "lambdaboot/pkg/errors"
	"lambdaboot/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Factory produces named dependencies for the execution context. It receives
// the context assembled so far, so a factory may read keys contributed by
// earlier registrations. Factories must not mutate the context they receive.
type Factory func(ctx context.Context, deps *Context) (map[string]interface{}, error)

// registerOptions holds the per-registration configuration resolved from
// RegisterOption values.
type registerOptions struct {
	Name         string        `validate:"required"`
	CacheEnabled bool
	MaxAge       time.Duration `validate:"min=1"`
}

// RegisterOption configures a single Register call
type RegisterOption func(*registerOptions)

// WithName sets the registration name used in logs and error messages
func WithName(name string) RegisterOption {
	return func(o *registerOptions) {
		o.Name = name
	}
}

// WithCacheDisabled turns off result caching for the registration, so its
// factories run on every invocation.
func WithCacheDisabled() RegisterOption {
	return func(o *registerOptions) {
		o.CacheEnabled = false
	}
}

// WithMaxAge overrides how long the registration's cached result stays fresh
func WithMaxAge(maxAge time.Duration) RegisterOption {
	return func(o *registerOptions) {
		o.MaxAge = maxAge
	}
}

// defaultRegisterOptions returns the defaults for the index-th Register call
func defaultRegisterOptions(index int) registerOptions {
	return registerOptions{
		Name:         fmt.Sprintf("registration-%d", index),
		CacheEnabled: true,
		MaxAge:       DefaultMaxAge,
	}
}

// resolveRegisterOptions applies opts over the defaults and validates the
// result.
func resolveRegisterOptions(index int, opts []RegisterOption) (registerOptions, error) {
	cfg := defaultRegisterOptions(index)
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := utils.ValidateStruct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid options for %s: %w", cfg.Name, err)
	}
	return cfg, nil
}

// registration is one Register call: a factory group, the process-lifetime
// cache guarding its result, and the post-processors attached to it.
type registration struct {
	name      string
	factories []Factory
	cache     *ttlCache
	post      []PostProcessor
}

// newRegistration creates a registration from resolved options
func newRegistration(cfg registerOptions, factories []Factory) *registration {
	return &registration{
		name:      cfg.Name,
		factories: factories,
		cache:     newTTLCache(cfg.CacheEnabled, cfg.MaxAge),
	}
}

// resolve returns the registration's dependency mapping. A fresh cache entry
// is returned as-is without invoking anything. On a miss every factory in
// the group is started before any is awaited; the results are merged in
// declaration order, later entries overwriting earlier ones, regardless of
// completion timing. Any factory error or panic fails the whole group and
// leaves the cache at its previous state.
func (r *registration) resolve(ctx context.Context, deps *Context, now time.Time, logger *zap.Logger) (map[string]interface{}, error) {
	if cached, ok := r.cache.get(now); ok {
		logger.Debug("dependency cache hit",
			zap.String("registration", r.name),
		)
		return cached, nil
	}

	results := make([]map[string]interface{}, len(r.factories))
	g, gctx := errgroup.WithContext(ctx)
	for i, factory := range r.factories {
		i, factory := i, factory
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = apperrors.NewPanicError(rec)
				}
			}()

			out, err := factory(gctx, deps)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := mergeMappings(results)
	r.cache.set(merged, now)

	logger.Debug("dependency cache miss, factories invoked",
		zap.String("registration", r.name),
		zap.Int("factories", len(r.factories)),
		zap.Int("keys", len(merged)),
	)
	return merged, nil
}

// mergeMappings flattens the group results into one mapping in declaration
// order, later entries winning on key collision.
func mergeMappings(results []map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{})
	for _, mapping := range results {
		for k, v := range mapping {
			merged[k] = v
		}
	}
	return merged
}
