package bootstrap

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "lambdaboot/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// resolveGroup is a test helper running one registration group without an
// adapter.
func resolveGroup(t *testing.T, factories []Factory, opts ...RegisterOption) (map[string]interface{}, error) {
	t.Helper()
	cfg, err := resolveRegisterOptions(0, opts)
	require.NoError(t, err)
	reg := newRegistration(cfg, factories)
	return reg.resolve(context.Background(), newContext(), time.Now(), zap.NewNop())
}

func constantFactory(mapping map[string]interface{}) Factory {
	return func(ctx context.Context, deps *Context) (map[string]interface{}, error) {
		return mapping, nil
	}
}

func TestRegistration_GroupFactoriesRunConcurrently(t *testing.T) {
	// Both factories block until the other has started. Sequential
	// execution would never finish, so the test guards with a timeout.
	var barrier sync.WaitGroup
	barrier.Add(2)
	rendezvous := func(key string) Factory {
		return func(ctx context.Context, deps *Context) (map[string]interface{}, error) {
			barrier.Done()
			barrier.Wait()
			return map[string]interface{}{key: true}, nil
		}
	}

	done := make(chan struct{})
	var merged map[string]interface{}
	var err error
	go func() {
		merged, err = resolveGroup(t, []Factory{rendezvous("a"), rendezvous("b")})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("factories did not overlap; group resolution appears sequential")
	}

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": true, "b": true}, merged)
}

func TestRegistration_DisjointKeysMergeRegardlessOfCompletionOrder(t *testing.T) {
	// The first-declared factory finishes last
	slow := func(ctx context.Context, deps *Context) (map[string]interface{}, error) {
		time.Sleep(30 * time.Millisecond)
		return map[string]interface{}{"a": 1}, nil
	}

	merged, err := resolveGroup(t, []Factory{
		slow,
		constantFactory(map[string]interface{}{"b": 2}),
		constantFactory(map[string]interface{}{"c": 3}),
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2, "c": 3}, merged)
}

func TestRegistration_CollisionResolvesByDeclarationOrder(t *testing.T) {
	// The later-declared factory completes first; declaration order must
	// still win over completion order.
	early := func(ctx context.Context, deps *Context) (map[string]interface{}, error) {
		time.Sleep(30 * time.Millisecond)
		return map[string]interface{}{"db": "first-declared"}, nil
	}
	late := constantFactory(map[string]interface{}{"db": "last-declared"})

	merged, err := resolveGroup(t, []Factory{early, late})

	require.NoError(t, err)
	assert.Equal(t, "last-declared", merged["db"])
}

func TestRegistration_FactoryErrorFailsWholeGroup(t *testing.T) {
	boom := errors.New("connection refused")
	failing := func(ctx context.Context, deps *Context) (map[string]interface{}, error) {
		return nil, boom
	}

	merged, err := resolveGroup(t, []Factory{
		constantFactory(map[string]interface{}{"ok": true}),
		failing,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, merged)
}

func TestRegistration_FactoryPanicBecomesError(t *testing.T) {
	panicking := func(ctx context.Context, deps *Context) (map[string]interface{}, error) {
		panic("nil dereference")
	}

	_, err := resolveGroup(t, []Factory{panicking})

	require.Error(t, err)
	assert.True(t, apperrors.IsPanic(err))
}

func TestRegistration_ErrorLeavesCacheUnmodified(t *testing.T) {
	cfg, err := resolveRegisterOptions(0, nil)
	require.NoError(t, err)

	calls := 0
	flaky := func(ctx context.Context, deps *Context) (map[string]interface{}, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}
		return map[string]interface{}{"v": calls}, nil
	}
	reg := newRegistration(cfg, []Factory{flaky})
	now := time.Now()

	_, err = reg.resolve(context.Background(), newContext(), now, zap.NewNop())
	require.Error(t, err)

	// No poisoned entry: the next resolve within the same window re-invokes
	merged, err := reg.resolve(context.Background(), newContext(), now, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 2, merged["v"])
	assert.Equal(t, 2, calls)
}

func TestRegistration_CacheHitSkipsFactories(t *testing.T) {
	cfg, err := resolveRegisterOptions(0, []RegisterOption{WithMaxAge(time.Minute)})
	require.NoError(t, err)

	calls := 0
	counting := func(ctx context.Context, deps *Context) (map[string]interface{}, error) {
		calls++
		return map[string]interface{}{"v": calls}, nil
	}
	reg := newRegistration(cfg, []Factory{counting})
	now := time.Now()

	first, err := reg.resolve(context.Background(), newContext(), now, zap.NewNop())
	require.NoError(t, err)
	second, err := reg.resolve(context.Background(), newContext(), now.Add(30*time.Second), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestResolveRegisterOptions_Defaults(t *testing.T) {
	cfg, err := resolveRegisterOptions(2, nil)

	require.NoError(t, err)
	assert.Equal(t, "registration-2", cfg.Name)
	assert.True(t, cfg.CacheEnabled)
	assert.Equal(t, DefaultMaxAge, cfg.MaxAge)
}

func TestResolveRegisterOptions_RejectsNonPositiveMaxAge(t *testing.T) {
	_, err := resolveRegisterOptions(0, []RegisterOption{WithMaxAge(0)})

	assert.Error(t, err)
}

func TestMergeMappings_DeclarationOrderWins(t *testing.T) {
	merged := mergeMappings([]map[string]interface{}{
		{"a": 1, "shared": "first"},
		{"b": 2, "shared": "second"},
		{"c": 3},
	})

	assert.Equal(t, map[string]interface{}{
		"a": 1, "b": 2, "c": 3, "shared": "second",
	}, merged)
}
