// Package bootstrap wraps a Lambda entry point behind a registration
// pipeline: dependency factories are registered once at process
// initialization, their results are cached across warm invocations with a
// TTL, merged into an execution context, observed by post-processor hooks,
// and handed to the business function. Every invocation terminates with
// exactly one outcome, success or error, regardless of where it fails.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	apperrors "lambdaboot/pkg/errors"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.uber.org/zap"
)

// BusinessFunc is the wrapped business function. It receives the raw event
// and the fully assembled execution context, and its return values become
// the invocation's single outcome.
type BusinessFunc[E any, R any] func(ctx context.Context, event E, deps *Context) (R, error)

// adapterConfig holds the adapter-level collaborators
type adapterConfig struct {
	logger     *zap.Logger
	clock      func() time.Time
	environ    func() map[string]string
	strictKeys bool
}

// AdapterOption configures the adapter at construction time
type AdapterOption func(*adapterConfig)

// WithLogger sets the logger used for pipeline diagnostics
func WithLogger(logger *zap.Logger) AdapterOption {
	return func(c *adapterConfig) {
		c.logger = logger
	}
}

// WithEnviron replaces the environment collaborator that supplies the
// mapping stored under the "env" context key.
func WithEnviron(environ func() map[string]string) AdapterOption {
	return func(c *adapterConfig) {
		c.environ = environ
	}
}

// WithStrictKeys makes a cross-registration key collision fail the
// invocation instead of silently resolving to the later registration's
// value. The default remains last-registration-wins.
func WithStrictKeys() AdapterOption {
	return func(c *adapterConfig) {
		c.strictKeys = true
	}
}

// withClock replaces the cache clock. Used by tests to control freshness.
func withClock(clock func() time.Time) AdapterOption {
	return func(c *adapterConfig) {
		c.clock = clock
	}
}

// Adapter drives the registration pipeline around a business function. It is
// configured once, before the entry point is handed to the runtime, and then
// invoked for the lifetime of the process; each registration's cache survives
// across warm invocations.
type Adapter[E any, R any] struct {
	fn            BusinessFunc[E, R]
	registrations []*registration
	logger        *zap.Logger
	clock         func() time.Time
	environ       func() map[string]string
	strictKeys    bool
	setupErr      error
}

// New wraps a business function. Registrations and post-processors are added
// with the chainable Register, RegisterGroup and PostProcessor calls, then
// Handler is passed to the runtime.
func New[E any, R any](fn BusinessFunc[E, R], opts ...AdapterOption) *Adapter[E, R] {
	cfg := adapterConfig{
		logger:  zap.NewNop(),
		clock:   time.Now,
		environ: environFromOS,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Adapter[E, R]{
		fn:         fn,
		logger:     cfg.logger,
		clock:      cfg.clock,
		environ:    cfg.environ,
		strictKeys: cfg.strictKeys,
	}
}

// Register adds a registration with a single dependency factory
func (a *Adapter[E, R]) Register(factory Factory, opts ...RegisterOption) *Adapter[E, R] {
	return a.RegisterGroup([]Factory{factory}, opts...)
}

// RegisterGroup adds a registration whose factories all run concurrently on
// a cache miss. Their mappings merge in declaration order, later factories
// winning on key collision.
func (a *Adapter[E, R]) RegisterGroup(factories []Factory, opts ...RegisterOption) *Adapter[E, R] {
	if a.setupErr != nil {
		return a
	}
	if len(factories) == 0 {
		a.setupErr = apperrors.NewConfigError("Register requires at least one factory")
		return a
	}

	cfg, err := resolveRegisterOptions(len(a.registrations), opts)
	if err != nil {
		a.setupErr = apperrors.NewConfigError(err.Error())
		return a
	}

	a.registrations = append(a.registrations, newRegistration(cfg, factories))
	return a
}

// PostProcessor attaches a hook to the immediately preceding Register call.
// Calling it before any registration is a configuration error, surfaced as
// the outcome of every invocation.
func (a *Adapter[E, R]) PostProcessor(fn PostProcessor) *Adapter[E, R] {
	if a.setupErr != nil {
		return a
	}
	if len(a.registrations) == 0 {
		a.setupErr = apperrors.NewConfigError("PostProcessor requires a preceding Register call")
		return a
	}

	last := a.registrations[len(a.registrations)-1]
	last.post = append(last.post, fn)
	return a
}

// Reset clears every registration's cache entry, forcing the next invocation
// to re-run all factories. Intended for tests.
func (a *Adapter[E, R]) Reset() {
	for _, reg := range a.registrations {
		reg.cache.clear()
	}
}

// Handler returns the invocation handler in the shape lambda.Start expects.
// Per invocation it assembles the base context, resolves each registration
// in order (factories within one group concurrently, registrations strictly
// sequentially so later ones can read earlier contributions), runs that
// registration's post-processors, freezes the merged context and calls the
// business function. Panics at any stage are recovered into the error
// result, so the runtime always observes exactly one outcome.
func (a *Adapter[E, R]) Handler() func(context.Context, E) (R, error) {
	return func(ctx context.Context, event E) (result R, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = apperrors.NewBusinessError(apperrors.NewPanicError(rec))
				a.logger.Error("invocation panicked", zap.Error(err))
			}
		}()

		if a.setupErr != nil {
			return result, a.setupErr
		}

		deps := newContext()
		meta, _ := lambdacontext.FromContext(ctx)
		deps.set(KeyContext, meta)
		deps.set(KeyEnv, a.environ())

		for _, reg := range a.registrations {
			started := a.clock()

			mapping, rerr := reg.resolve(ctx, deps, started, a.logger)
			if rerr != nil {
				a.logger.Error("dependency resolution failed",
					zap.String("registration", reg.name),
					zap.Error(rerr),
				)
				return result, apperrors.NewFactoryError(reg.name, rerr)
			}

			if perr := runPostProcessors(ctx, reg.post, mapping); perr != nil {
				a.logger.Error("post-processing failed",
					zap.String("registration", reg.name),
					zap.Error(perr),
				)
				return result, apperrors.NewPostProcessError(reg.name, perr)
			}

			if a.strictKeys {
				if key, ok := firstCollision(deps, mapping); ok {
					cerr := apperrors.NewFactoryError(reg.name,
						fmt.Errorf("dependency key %q already contributed by an earlier registration", key))
					a.logger.Error("dependency key collision", zap.Error(cerr))
					return result, cerr
				}
			}
			deps.merge(mapping)

			a.logger.Debug("registration resolved",
				zap.String("registration", reg.name),
				zap.Duration("elapsed", time.Since(started)),
			)
		}
		deps.freeze()

		out, berr := a.fn(ctx, event, deps)
		if berr != nil {
			a.logger.Error("business function failed", zap.Error(berr))
			return result, apperrors.NewBusinessError(berr)
		}
		return out, nil
	}
}

// firstCollision reports the lexically smallest mapping key that an earlier
// registration (or the adapter's fixed keys) already contributed.
func firstCollision(deps *Context, mapping map[string]interface{}) (string, bool) {
	collision := ""
	for k := range mapping {
		if _, exists := deps.Get(k); exists {
			if collision == "" || k < collision {
				collision = k
			}
		}
	}
	return collision, collision != ""
}

// environFromOS is the default environment collaborator: the process
// environment as a flat string mapping.
func environFromOS() map[string]string {
	environ := os.Environ()
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}
