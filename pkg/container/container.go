// Package container provides a small typed dependency container for service hosts.
//
// Services are keyed by their static Go type. Instances can be registered
// directly or produced lazily by a factory with singleton or transient scope.
//
//	c := container.New()
//	container.Register[*sql.DB](c, db)
//	container.RegisterFactory(c, func(c *container.Container) (*ItemStore, error) {
//	    return NewItemStore(container.MustResolve[*sql.DB](c))
//	}, container.Singleton)
//
//	store, err := container.Resolve[*ItemStore](c)
package container

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrNotRegistered is returned when no registration exists for a type.
var ErrNotRegistered = errors.New("type not registered")

// Scope controls how often a factory is invoked.
type Scope int

const (
	// Singleton invokes the factory once and caches the instance.
	Singleton Scope = iota
	// Transient invokes the factory on every resolution.
	Transient
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case Singleton:
		return "singleton"
	case Transient:
		return "transient"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

type registration struct {
	scope   Scope
	factory func(*Container) (any, error)

	once     sync.Once
	instance any
	err      error
}

func (r *registration) get(c *Container) (any, error) {
	if r.scope == Transient {
		return r.factory(c)
	}
	r.once.Do(func() {
		r.instance, r.err = r.factory(c)
	})
	return r.instance, r.err
}

// Container holds service registrations. The zero value is not usable; call New.
type Container struct {
	mu      sync.RWMutex
	entries map[reflect.Type]*registration
}

// New creates an empty container.
func New() *Container {
	return &Container{entries: make(map[reflect.Type]*registration)}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

func (c *Container) set(t reflect.Type, r *registration) {
	c.mu.Lock()
	c.entries[t] = r
	c.mu.Unlock()
}

func (c *Container) lookup(t reflect.Type) (*registration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[t]
	return r, ok
}

// Register adds a ready-made instance for T, replacing any previous registration.
func Register[T any](c *Container, instance T) {
	c.set(typeOf[T](), &registration{
		scope:   Singleton,
		factory: func(*Container) (any, error) { return instance, nil },
	})
}

// RegisterFactory adds a factory for T. The factory receives the container so
// it can resolve its own dependencies.
func RegisterFactory[T any](c *Container, factory func(*Container) (T, error), scope Scope) {
	c.set(typeOf[T](), &registration{
		scope: scope,
		factory: func(c *Container) (any, error) {
			return factory(c)
		},
	})
}

// Resolve returns the instance registered for T.
func Resolve[T any](c *Container) (T, error) {
	var zero T
	t := typeOf[T]()
	r, ok := c.lookup(t)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotRegistered, t)
	}
	v, err := r.get(c)
	if err != nil {
		return zero, fmt.Errorf("resolve %s: %w", t, err)
	}
	if v == nil {
		return zero, nil
	}
	return v.(T), nil
}

// TryResolve returns the instance registered for T, or the zero value when
// T is not registered or its factory fails.
func TryResolve[T any](c *Container) T {
	v, _ := Resolve[T](c)
	return v
}

// MustResolve is like Resolve but panics on failure. Intended for factories
// and test setup.
func MustResolve[T any](c *Container) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

// Has reports whether T has a registration.
func Has[T any](c *Container) bool {
	_, ok := c.lookup(typeOf[T]())
	return ok
}

// Len returns the number of registrations.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
