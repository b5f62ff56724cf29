// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"fmt"
	"sync"
)

// RegistryEntry describes one allocated memory id for introspection.
type RegistryEntry struct {
	ID    ID     `json:"id"`
	Owner string `json:"owner"`
	Label string `json:"label"`
}

// Registry hands out memory ids and records who owns them. Every persistent
// slot must be registered here, even ones that initialize lazily, so the id
// space stays dense and inspectable.
type Registry struct {
	mu      sync.Mutex
	next    ID
	entries []RegistryEntry
	byLabel map[string]ID

	initOnce sync.Once
	initFns  []func()
}

// NewRegistry returns an empty memory-id registry.
func NewRegistry() *Registry {
	return &Registry{byLabel: map[string]ID{}}
}

// Allocate assigns the next memory id to the given owner/label pair.
// Registering the same label twice panics: id allocations happen at static
// initialization and a duplicate is a programming error.
func (r *Registry) Allocate(owner, label string) ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := owner + "/" + label
	if _, exists := r.byLabel[key]; exists {
		panic(fmt.Sprintf("memory: slot %q already registered", key))
	}

	id := r.next
	r.next++
	r.byLabel[key] = id
	r.entries = append(r.entries, RegistryEntry{ID: id, Owner: owner, Label: label})
	return id
}

// OnInit registers a touch function to run during eager initialization.
func (r *Registry) OnInit(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.initFns = append(r.initFns, fn)
}

// Init runs the one-shot eager init phase, touching every registered slot so
// subsequent entry points see fully constructed values. It is safe to call
// more than once; only the first call runs.
func (r *Registry) Init() {
	r.initOnce.Do(func() {
		r.mu.Lock()
		fns := make([]func(), len(r.initFns))
		copy(fns, r.initFns)
		r.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	})
}

// Export returns all allocated entries in allocation order.
func (r *Registry) Export() []RegistryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RegistryEntry, len(r.entries))
	copy(out, r.entries)
	return out
}
