package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_SetAndGet(t *testing.T) {
	c := newContext()

	c.set("db", "client")

	v, ok := c.Get("db")
	require.True(t, ok)
	assert.Equal(t, "client", v)
	assert.Equal(t, "client", c.Value("db"))

	_, ok = c.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, c.Value("missing"))
}

func TestContext_KeysKeepFirstContributionOrder(t *testing.T) {
	c := newContext()

	c.set("b", 1)
	c.set("a", 2)
	// Overwriting does not move the key
	c.set("b", 3)

	assert.Equal(t, []string{"b", "a"}, c.Keys())
	assert.Equal(t, 3, c.Value("b"))
	assert.Equal(t, 2, c.Len())
}

func TestContext_MergeIsDeterministic(t *testing.T) {
	c := newContext()
	c.set(KeyContext, nil)
	c.set(KeyEnv, map[string]string{})

	c.merge(map[string]interface{}{"zeta": 1, "alpha": 2, "mid": 3})

	// Mapping keys are folded in sorted order after the fixed keys
	assert.Equal(t, []string{KeyContext, KeyEnv, "alpha", "mid", "zeta"}, c.Keys())
}

func TestContext_MergeLaterMappingWins(t *testing.T) {
	c := newContext()

	c.merge(map[string]interface{}{"db": "old", "only": true})
	c.merge(map[string]interface{}{"db": "new"})

	assert.Equal(t, "new", c.Value("db"))
	assert.Equal(t, true, c.Value("only"))
}

func TestContext_FreezeBlocksWrites(t *testing.T) {
	c := newContext()
	c.set("db", "client")

	c.freeze()
	c.set("late", 1)
	c.merge(map[string]interface{}{"later": 2})

	_, ok := c.Get("late")
	assert.False(t, ok)
	_, ok = c.Get("later")
	assert.False(t, ok)
	assert.Equal(t, []string{"db"}, c.Keys())
}

func TestContext_TypedAccessors(t *testing.T) {
	c := newContext()

	// Absent or mistyped values come back as zero values
	assert.Nil(t, c.Meta())
	assert.Nil(t, c.Env())

	env := map[string]string{"AWS_REGION": "us-west-2"}
	c.set(KeyEnv, env)
	c.set(KeyContext, "not-a-lambda-context")

	assert.Equal(t, env, c.Env())
	assert.Nil(t, c.Meta())
}
