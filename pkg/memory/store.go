// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

const cellKey = "value"

// Entry is one key/value pair of a typed map.
type Entry[K comparable, V any] struct {
	Key   K `json:"key"`
	Value V `json:"value"`
}

// Map is a typed map over one backend slot. Values are encoded as JSON.
// It is safe to be used concurrently; each map has its own lock.
type Map[K comparable, V any] struct {
	mu         sync.Mutex
	backend    Backend
	id         ID
	keyFn      func(K) string
	generation *atomic.Int64
}

// NewMap binds a typed map to the slot allocated under the given id. keyFn
// must produce a stable, unique string per key; iteration order follows the
// lexicographic order of these strings.
func NewMap[K comparable, V any](backend Backend, id ID, keyFn func(K) string) *Map[K, V] {
	return &Map[K, V]{
		backend:    backend,
		id:         id,
		keyFn:      keyFn,
		generation: atomic.NewInt64(0),
	}
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero V
	raw, ok := m.backend.Get(m.id, m.keyFn(key))
	if !ok {
		return zero, false
	}

	var entry Entry[K, V]
	if err := json.Unmarshal(raw, &entry); err != nil {
		panic(fmt.Sprintf("memory: corrupt entry in slot %d: %v", m.id, err))
	}
	return entry.Value, true
}

// Set stores value under key, replacing any previous value.
func (m *Map[K, V]) Set(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, err := json.Marshal(Entry[K, V]{Key: key, Value: value})
	if err != nil {
		panic(fmt.Sprintf("memory: cannot encode entry for slot %d: %v", m.id, err))
	}
	m.backend.Set(m.id, m.keyFn(key), raw)
	m.generation.Inc()
}

// Delete removes key. Deleting an absent key is a no-op.
func (m *Map[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.backend.Delete(m.id, m.keyFn(key))
	m.generation.Inc()
}

// Has reports whether key is present.
func (m *Map[K, V]) Has(key K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.backend.Get(m.id, m.keyFn(key))
	return ok
}

// Len returns the number of stored entries.
func (m *Map[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.backend.Len(m.id)
}

// Range calls fn for every entry in key order. Returning false stops the
// iteration. fn must not mutate the map.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rawKey := range m.backend.Keys(m.id) {
		raw, ok := m.backend.Get(m.id, rawKey)
		if !ok {
			continue
		}
		var entry Entry[K, V]
		if err := json.Unmarshal(raw, &entry); err != nil {
			panic(fmt.Sprintf("memory: corrupt entry in slot %d: %v", m.id, err))
		}
		if !fn(entry.Key, entry.Value) {
			return
		}
	}
}

// Export returns all entries in key order.
func (m *Map[K, V]) Export() []Entry[K, V] {
	var out []Entry[K, V]
	m.Range(func(key K, value V) bool {
		out = append(out, Entry[K, V]{Key: key, Value: value})
		return true
	})
	return out
}

// Clear removes every entry.
func (m *Map[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, rawKey := range m.backend.Keys(m.id) {
		m.backend.Delete(m.id, rawKey)
	}
	m.generation.Inc()
}

// Generation returns a counter that increments with every mutation.
func (m *Map[K, V]) Generation() int64 {
	return m.generation.Load()
}

// Cell is a typed single-value slot.
type Cell[V any] struct {
	mu         sync.Mutex
	backend    Backend
	id         ID
	generation *atomic.Int64
}

// NewCell binds a typed cell to the slot allocated under the given id.
func NewCell[V any](backend Backend, id ID) *Cell[V] {
	return &Cell[V]{
		backend:    backend,
		id:         id,
		generation: atomic.NewInt64(0),
	}
}

// Get returns the stored value, or the zero value when the cell is unset.
func (c *Cell[V]) Get() V {
	value, _ := c.TryGet()
	return value
}

// TryGet returns the stored value and whether the cell has been set.
func (c *Cell[V]) TryGet() (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	raw, ok := c.backend.Get(c.id, cellKey)
	if !ok {
		return zero, false
	}

	var value V
	if err := json.Unmarshal(raw, &value); err != nil {
		panic(fmt.Sprintf("memory: corrupt cell in slot %d: %v", c.id, err))
	}
	return value, true
}

// Set replaces the cell value.
func (c *Cell[V]) Set(value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := json.Marshal(value)
	if err != nil {
		panic(fmt.Sprintf("memory: cannot encode cell for slot %d: %v", c.id, err))
	}
	c.backend.Set(c.id, cellKey, raw)
	c.generation.Inc()
}

// Clear unsets the cell.
func (c *Cell[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.backend.Delete(c.id, cellKey)
	c.generation.Inc()
}

// Generation returns a counter that increments with every mutation.
func (c *Cell[V]) Generation() int64 {
	return c.generation.Load()
}
