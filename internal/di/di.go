// Package di provides a small lazy service container with typed tokens.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves registered services.
type ServiceRegistry interface {
	Get(key string) any
}

// Container is a ServiceRegistry that also accepts registrations.
type Container interface {
	ServiceRegistry
	Register(key string, value any)
	RegisterFactory(key string, factory func(ServiceRegistry) any)
	Has(key string) bool
}

// Token is a typed key for a service.
type Token[T any] struct {
	key string
}

// NewToken creates a token for key.
func NewToken[T any](key string) Token[T] {
	return Token[T]{key: key}
}

// Key returns the underlying registry key.
func (t Token[T]) Key() string {
	return t.key
}

// RegisterToken registers a lazily built singleton for the token.
func RegisterToken[T any](c Container, t Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(t.key, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves the service for the token. A service registered as nil
// resolves to the zero value. It panics when the service is missing or has
// the wrong type, which is a wiring bug.
func GetToken[T any](sr ServiceRegistry, t Token[T]) T {
	raw := sr.Get(t.key)
	if raw == nil {
		var zero T
		return zero
	}
	v, ok := raw.(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has unexpected type", t.key))
	}
	return v
}

type entry struct {
	factory func(ServiceRegistry) any
	value   any
	built   bool
}

type container struct {
	mu        sync.Mutex
	entries   map[string]*entry
	resolving map[string]bool
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{
		entries:   make(map[string]*entry),
		resolving: make(map[string]bool),
	}
}

func (c *container) Register(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{value: value, built: true}
}

func (c *container) RegisterFactory(key string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{factory: factory}
}

func (c *container) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Get builds the service on first use. Factories may resolve other services;
// the lock is released while a factory runs.
func (c *container) Get(key string) any {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		panic(fmt.Sprintf("di: service %q not registered", key))
	}
	if e.built {
		v := e.value
		c.mu.Unlock()
		return v
	}
	if c.resolving[key] {
		c.mu.Unlock()
		panic(fmt.Sprintf("di: dependency cycle on %q", key))
	}
	c.resolving[key] = true
	c.mu.Unlock()

	v := e.factory(c)

	c.mu.Lock()
	delete(c.resolving, key)
	e.value = v
	e.built = true
	c.mu.Unlock()

	return v
}
