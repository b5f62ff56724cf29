// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"fmt"
	"sync"

	"github.com/canic-io/canic/pkg/memory"
	"github.com/canic-io/canic/pkg/types"
)

// Entry is one retained log record.
type Entry struct {
	Component string `json:"component"`
	CreatedAt uint64 `json:"created_at"`
	Level     Level  `json:"level"`
	Topic     *Topic `json:"topic,omitempty"`
	Message   string `json:"message"`
}

// RetentionParams bound the store. MaxAgeSecs of zero disables age pruning.
type RetentionParams struct {
	MaxEntries    uint64
	MaxEntryBytes uint32
	MaxAgeSecs    uint64
}

// Store is the bounded, persisted log buffer replicated into stable memory.
type Store struct {
	mu      sync.Mutex
	entries *memory.Map[uint64, Entry]
	params  RetentionParams
	now     types.NowFunc
	nextSeq uint64
}

// NewStore binds a log store to the given memory slot.
func NewStore(backend memory.Backend, id memory.ID, params RetentionParams, now types.NowFunc) *Store {
	return &Store{
		entries: memory.NewMap[uint64, Entry](backend, id, seqKey),
		params:  params,
		now:     now,
	}
}

// Fixed-width keys keep backend key order equal to append order.
func seqKey(seq uint64) string {
	return fmt.Sprintf("%020d", seq)
}

// Append records an entry, truncating the message to the per-entry byte cap
// and pruning per the retention parameters.
func (s *Store) Append(component string, level Level, topic *Topic, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if max := int(s.params.MaxEntryBytes); max > 0 && len(message) > max {
		message = message[:max]
	}

	seq := s.nextSeq
	s.nextSeq++
	s.entries.Set(seq, Entry{
		Component: component,
		CreatedAt: s.now(),
		Level:     level,
		Topic:     topic,
		Message:   message,
	})

	s.pruneLocked(s.now())
}

// Prune applies the retention parameters as of the given time and returns the
// number of dropped entries.
func (s *Store) Prune(now uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pruneLocked(now)
}

func (s *Store) pruneLocked(now uint64) int {
	var cutoff uint64
	if s.params.MaxAgeSecs > 0 {
		if now > s.params.MaxAgeSecs {
			cutoff = now - s.params.MaxAgeSecs
		}
	}

	var drop []uint64
	excess := 0
	if max := int(s.params.MaxEntries); max > 0 && s.entries.Len() > max {
		excess = s.entries.Len() - max
	}

	i := 0
	s.entries.Range(func(seq uint64, entry Entry) bool {
		if i < excess || (cutoff > 0 && entry.CreatedAt < cutoff) {
			drop = append(drop, seq)
		}
		i++
		return true
	})

	for _, seq := range drop {
		s.entries.Delete(seq)
	}
	return len(drop)
}

// Entries returns the retained entries in append order.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Entry
	s.entries.Range(func(_ uint64, entry Entry) bool {
		out = append(out, entry)
		return true
	})
	return out
}

// Len returns the number of retained entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.entries.Len()
}
