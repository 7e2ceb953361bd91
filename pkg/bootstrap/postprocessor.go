package bootstrap

import (
	"context"
	"fmt"

	apperrors "lambdaboot/pkg/errors"
)

// PostProcessor observes the dependency mapping produced by one registration.
// It runs after that registration's factories resolve and before the business
// function executes, sees only that registration's mapping rather than the
// full context, and its return value is used solely to abort the invocation.
type PostProcessor func(ctx context.Context, deps map[string]interface{}) error

// runPostProcessors executes a registration's chain in registration order.
// The first error or panic stops the chain; nothing is swallowed, nothing is
// retried.
func runPostProcessors(ctx context.Context, chain []PostProcessor, deps map[string]interface{}) error {
	for i, fn := range chain {
		if err := runPostProcessor(ctx, fn, deps); err != nil {
			return fmt.Errorf("post-processor %d: %w", i, err)
		}
	}
	return nil
}

// runPostProcessor invokes one hook, converting a panic into an error
func runPostProcessor(ctx context.Context, fn PostProcessor, deps map[string]interface{}) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = apperrors.NewPanicError(rec)
		}
	}()
	return fn(ctx, deps)
}
