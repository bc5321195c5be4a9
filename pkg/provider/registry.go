// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package provider implements a generic factory registry for pluggable backends.
//
// Each subsystem (today only web search) creates a typed Registry and
// implementations self-register via init(). This follows the database/sql
// driver pattern: import the implementation package, then call
// Registry.New(name, params) to instantiate.
package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Params carries string-valued backend settings from configuration.
type Params map[string]string

// Require returns the value of key or an error naming the backend.
func (p Params) Require(backend, key string) (string, error) {
	v := p[key]
	if v == "" {
		return "", fmt.Errorf("%s: %s parameter is required", backend, key)
	}
	return v, nil
}

// Factory is a constructor function that creates a backend instance from
// its parameters. Implementations extract the keys they need and ignore
// the rest.
type Factory[T any] func(ctx context.Context, params Params) (T, error)

// Registry is a thread-safe registry of named factory functions for a
// given backend interface T.
type Registry[T any] struct {
	subsystem string
	mu        sync.RWMutex
	factories map[string]Factory[T]
}

// NewRegistry creates a new Registry. The subsystem name is used in error
// messages (e.g. "web_search").
func NewRegistry[T any](subsystem string) *Registry[T] {
	return &Registry[T]{
		subsystem: subsystem,
		factories: make(map[string]Factory[T]),
	}
}

// Register adds a named factory. Panics on a duplicate name so that two
// init() registrations collide at startup rather than at request time.
func (r *Registry[T]) Register(name string, f Factory[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		panic(fmt.Sprintf("provider: %s backend %q already registered", r.subsystem, name))
	}
	r.factories[name] = f
}

// New creates a backend instance by name.
func (r *Registry[T]) New(ctx context.Context, name string, params Params) (T, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("unknown %s provider: %q (available: %v)", r.subsystem, name, r.Available())
	}
	if params == nil {
		params = Params{}
	}
	return f(ctx, params)
}

// Available returns the sorted list of registered backend names.
func (r *Registry[T]) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
