// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"sync"

	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/memory"
	"github.com/canic-io/canic/pkg/types"
)

// CanisterEntry is the authoritative record of one canister. Entries are
// created on successful provision and mutated only by root.
type CanisterEntry struct {
	Pid        types.Principal    `json:"pid"`
	Role       types.CanisterRole `json:"role"`
	ParentPid  *types.Principal   `json:"parent_pid,omitempty"`
	ModuleHash *types.ModuleHash  `json:"module_hash,omitempty"`
	CreatedAt  uint64             `json:"created_at"`
}

// Summary projects an entry to its snapshot form.
func (e CanisterEntry) Summary() types.CanisterSummary {
	return types.CanisterSummary{Pid: e.Pid, Role: e.Role, ParentPid: e.ParentPid}
}

// SubnetRegistry is the root-owned table of every canister on this subnet.
// The parent relation forms a forest rooted at the subnet root: every parent
// reference must resolve to the root or to an existing entry, so no cycle can
// be created, and removal is blocked while children exist.
type SubnetRegistry struct {
	mu       sync.Mutex
	entries  *memory.Map[types.Principal, CanisterEntry]
	root     types.Principal
	onChange func(entries []CanisterEntry)
}

// NewSubnetRegistry binds the registry to the given memory slot. root is the
// principal of the subnet root canister.
func NewSubnetRegistry(backend memory.Backend, id memory.ID, root types.Principal) *SubnetRegistry {
	return &SubnetRegistry{
		entries: memory.NewMap[types.Principal, CanisterEntry](backend, id, types.Principal.String),
		root:    root,
	}
}

// Root returns the subnet root principal.
func (r *SubnetRegistry) Root() types.Principal {
	return r.root
}

// OnChange registers a hook invoked after every successful mutation with the
// resulting snapshot, while the registry lock is held. The directory
// derivation is wired here so the directories can never drift from the
// registry.
func (r *SubnetRegistry) OnChange(fn func(entries []CanisterEntry)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.onChange = fn
}

// Insert adds a new canister entry.
func (r *SubnetRegistry) Insert(entry CanisterEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries.Has(entry.Pid) {
		return errors.Newf(errors.ErrorTypeConsistency, "canister %s already registered", entry.Pid.Short())
	}
	if parent := entry.ParentPid; parent != nil && *parent != r.root && !r.entries.Has(*parent) {
		return errors.Newf(errors.ErrorTypeConsistency, "parent not found: %s", parent.Short())
	}

	r.entries.Set(entry.Pid, entry)
	r.changed()
	return nil
}

// UpdateModuleHash records the module hash after an upgrade. Setting the same
// hash again is a no-op.
func (r *SubnetRegistry) UpdateModuleHash(pid types.Principal, hash types.ModuleHash) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries.Get(pid)
	if !ok {
		return errors.Newf(errors.ErrorTypeConsistency, "canister not found: %s", pid.Short())
	}
	if entry.ModuleHash != nil && *entry.ModuleHash == hash {
		return nil
	}

	entry.ModuleHash = &hash
	r.entries.Set(pid, entry)
	r.changed()
	return nil
}

// Remove deletes an entry. It fails while any entry still references pid as
// its parent, keeping the forest closed under parents.
func (r *SubnetRegistry) Remove(pid types.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.entries.Has(pid) {
		return errors.Newf(errors.ErrorTypeConsistency, "canister not found: %s", pid.Short())
	}
	if len(r.childrenLocked(pid)) > 0 {
		return errors.Newf(errors.ErrorTypeConsistency, "canister %s has children", pid.Short())
	}

	r.entries.Delete(pid)
	r.changed()
	return nil
}

// Get returns the entry for pid.
func (r *SubnetRegistry) Get(pid types.Principal) (CanisterEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.entries.Get(pid)
}

// Children returns the direct children of pid, ordered by principal.
func (r *SubnetRegistry) Children(pid types.Principal) []CanisterEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.childrenLocked(pid)
}

func (r *SubnetRegistry) childrenLocked(pid types.Principal) []CanisterEntry {
	var out []CanisterEntry
	r.entries.Range(func(_ types.Principal, entry CanisterEntry) bool {
		if entry.ParentPid != nil && *entry.ParentPid == pid {
			out = append(out, entry)
		}
		return true
	})
	return out
}

// ParentChain returns the entries on the path from the root's first-hop child
// down to pid, inclusive. An entry whose parent is the root terminates the
// walk.
func (r *SubnetRegistry) ParentChain(pid types.Principal) ([]CanisterEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var chain []CanisterEntry
	current := pid
	for {
		entry, ok := r.entries.Get(current)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeConsistency, "canister not found: %s", current.Short())
		}
		chain = append([]CanisterEntry{entry}, chain...)
		if entry.ParentPid == nil || *entry.ParentPid == r.root {
			return chain, nil
		}
		current = *entry.ParentPid
	}
}

// Export returns a full snapshot ordered by principal.
func (r *SubnetRegistry) Export() []CanisterEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.exportLocked()
}

func (r *SubnetRegistry) exportLocked() []CanisterEntry {
	var out []CanisterEntry
	r.entries.Range(func(_ types.Principal, entry CanisterEntry) bool {
		out = append(out, entry)
		return true
	})
	return out
}

// Len returns the number of registered canisters.
func (r *SubnetRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.entries.Len()
}

func (r *SubnetRegistry) changed() {
	if r.onChange != nil {
		r.onChange(r.exportLocked())
	}
}
