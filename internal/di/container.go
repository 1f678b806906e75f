// Package di provides a minimal lazy service container for module wiring.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry is the read side of the container handed to factories and
// modules after registration. Get panics on unknown names: a missing
// service is a wiring bug, not a runtime condition.
type ServiceRegistry interface {
	Get(name string) any
}

// Container registers factories and resolves named services. Each factory
// runs at most once; the result is memoized.
type Container interface {
	ServiceRegistry
	Register(name string, factory func(ServiceRegistry) any)
	RegisterValue(name string, value any)
}

type container struct {
	mu        sync.Mutex
	factories map[string]func(ServiceRegistry) any
	services  map[string]any
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{
		factories: make(map[string]func(ServiceRegistry) any),
		services:  make(map[string]any),
	}
}

func (c *container) Register(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = factory
}

func (c *container) RegisterValue(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = value
}

func (c *container) Get(name string) any {
	c.mu.Lock()
	if svc, ok := c.services[name]; ok {
		c.mu.Unlock()
		return svc
	}
	factory, ok := c.factories[name]
	c.mu.Unlock()

	if !ok {
		panic(fmt.Sprintf("di: service %q not registered", name))
	}

	// Factories may resolve their own dependencies, so they run unlocked.
	svc := factory(c)

	c.mu.Lock()
	c.services[name] = svc
	c.mu.Unlock()
	return svc
}

// Token is a typed service name. Declaring tokens in a context's di package
// gives other modules a compile-checked handle instead of a bare string.
type Token[T any] struct {
	name string
}

// NewToken creates a token for a service of type T.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the token's registry name.
func (t Token[T]) Name() string { return t.name }

// RegisterToken registers a typed factory under the token's name.
func RegisterToken[T any](c Container, t Token[T], factory func(ServiceRegistry) T) {
	c.Register(t.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves the token to its typed service.
func GetToken[T any](r ServiceRegistry, t Token[T]) T {
	svc, ok := r.Get(t.name).(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has unexpected type", t.name))
	}
	return svc
}
