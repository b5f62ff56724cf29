// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"github.com/canic-io/canic/pkg/memory"
	"github.com/canic-io/canic/pkg/types"
)

// ChildStore is each node's record of its direct children. On root it mirrors
// the registry; on other nodes it is imported by topology cascade and used to
// forward snapshots down the branch.
type ChildStore struct {
	children *memory.Map[types.Principal, types.CanisterSummary]
}

// NewChildStore binds the child set to the given memory slot.
func NewChildStore(backend memory.Backend, id memory.ID) *ChildStore {
	return &ChildStore{
		children: memory.NewMap[types.Principal, types.CanisterSummary](backend, id, types.Principal.String),
	}
}

// Import replaces the child set with the given summaries.
func (s *ChildStore) Import(children []types.CanisterSummary) {
	s.children.Clear()
	for _, child := range children {
		s.children.Set(child.Pid, child)
	}
}

// List returns the children ordered by principal.
func (s *ChildStore) List() []types.CanisterSummary {
	var out []types.CanisterSummary
	s.children.Range(func(_ types.Principal, child types.CanisterSummary) bool {
		out = append(out, child)
		return true
	})
	return out
}

// Has reports whether pid is a recorded child.
func (s *ChildStore) Has(pid types.Principal) bool {
	return s.children.Has(pid)
}

// Len returns the number of recorded children.
func (s *ChildStore) Len() int {
	return s.children.Len()
}
