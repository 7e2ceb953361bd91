package bootstrap

import (
	"sort"

	"github.com/aws/aws-lambda-go/lambdacontext"
)

// Fixed context keys populated by the adapter before any factory runs.
const (
	// KeyContext holds the raw per-invocation metadata from the runtime
	KeyContext = "context"

	// KeyEnv holds the flat environment variable mapping
	KeyEnv = "env"
)

// Context is the execution context handed to the business function: the raw
// invocation metadata, the environment mapping, and every dependency
// contributed by the registered factories. It is append-only while the
// adapter assembles it and frozen before the business function sees it.
type Context struct {
	keys   []string
	values map[string]interface{}
	frozen bool
}

// newContext creates an empty execution context
func newContext() *Context {
	return &Context{
		values: make(map[string]interface{}),
	}
}

// set records a single key. First writes fix the key's position; later
// writes overwrite the value in place, so merge order stays the declaration
// order of whoever contributed the key first.
func (c *Context) set(key string, value interface{}) {
	if c.frozen {
		return
	}
	if _, exists := c.values[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// merge folds one registration's resolved mapping into the context. Keys are
// applied in sorted order so the context's key list is deterministic; the
// values themselves cannot collide within a single mapping.
func (c *Context) merge(mapping map[string]interface{}) {
	keys := make([]string, 0, len(mapping))
	for k := range mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		c.set(k, mapping[k])
	}
}

// freeze makes the context immutable. Called once, after the last
// registration has resolved and before the business function runs.
func (c *Context) freeze() {
	c.frozen = true
}

// Get returns the value stored under key and whether it exists
func (c *Context) Get(key string) (interface{}, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Value returns the value stored under key, or nil if absent
func (c *Context) Value(key string) interface{} {
	return c.values[key]
}

// Keys returns every context key in the order it was first contributed
func (c *Context) Keys() []string {
	keys := make([]string, len(c.keys))
	copy(keys, c.keys)
	return keys
}

// Len returns the number of keys in the context
func (c *Context) Len() int {
	return len(c.keys)
}

// Env returns the environment mapping stored under KeyEnv, or nil if the
// collaborator did not supply one.
func (c *Context) Env() map[string]string {
	env, _ := c.values[KeyEnv].(map[string]string)
	return env
}

// Meta returns the raw invocation metadata stored under KeyContext. It is
// nil when the handler runs outside the Lambda runtime.
func (c *Context) Meta() *lambdacontext.LambdaContext {
	meta, _ := c.values[KeyContext].(*lambdacontext.LambdaContext)
	return meta
}
