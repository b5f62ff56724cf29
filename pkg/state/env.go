// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"github.com/canic-io/canic/pkg/memory"
	"github.com/canic-io/canic/pkg/types"
)

// Env is the per-canister identity snapshot. Root owns the canonical version;
// non-root nodes receive it via cascade and persist it. All fields are
// optional so partial knowledge is representable.
type Env struct {
	// app
	PrimeRootPid *types.Principal `json:"prime_root_pid,omitempty"`

	// subnet
	SubnetRole *types.SubnetRole `json:"subnet_role,omitempty"`
	SubnetPid  *types.Principal  `json:"subnet_pid,omitempty"`
	RootPid    *types.Principal  `json:"root_pid,omitempty"`

	// canister
	CanisterRole *types.CanisterRole `json:"canister_role,omitempty"`
	ParentPid    *types.Principal    `json:"parent_pid,omitempty"`
}

// EnvStore persists the environment snapshot of this node.
type EnvStore struct {
	cell *memory.Cell[Env]
	self types.Principal
}

// NewEnvStore binds the environment store to the given memory slot. self is
// the principal of the canister this store belongs to.
func NewEnvStore(backend memory.Backend, id memory.ID, self types.Principal) *EnvStore {
	return &EnvStore{
		cell: memory.NewCell[Env](backend, id),
		self: self,
	}
}

// Self returns this node's own principal.
func (s *EnvStore) Self() types.Principal {
	return s.self
}

// Get returns the current environment snapshot.
func (s *EnvStore) Get() Env {
	return s.cell.Get()
}

// Import replaces the environment snapshot. Mutation arrives only via
// bootstrap seeding (root), or the install payload and cascade (replicas).
func (s *EnvStore) Import(env Env) {
	s.cell.Set(env)
}

// RootPid returns the subnet root principal, if known.
func (s *EnvStore) RootPid() (types.Principal, bool) {
	env := s.Get()
	if env.RootPid == nil {
		return types.NilPrincipal, false
	}
	return *env.RootPid, true
}

// ParentPid returns this node's parent principal, if known.
func (s *EnvStore) ParentPid() (types.Principal, bool) {
	env := s.Get()
	if env.ParentPid == nil {
		return types.NilPrincipal, false
	}
	return *env.ParentPid, true
}

// IsRoot reports whether this node is its subnet's root.
func (s *EnvStore) IsRoot() bool {
	root, ok := s.RootPid()
	return ok && root == s.self
}
