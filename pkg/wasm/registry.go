// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package wasm

import (
	"slices"
	"sync"

	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/types"
)

// Registry is the static table of embedded wasm modules, keyed by role.
// Modules are imported at startup; registering a role again replaces its
// module, which becomes the target of later upgrades.
type Registry struct {
	mu      sync.Mutex
	modules map[types.CanisterRole]types.WasmModule
}

// NewRegistry returns an empty module registry.
func NewRegistry() *Registry {
	return &Registry{modules: map[types.CanisterRole]types.WasmModule{}}
}

// Register stores the module bytes for a role, replacing any previous module.
func (r *Registry) Register(role types.CanisterRole, module types.WasmModule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.modules[role] = module
}

// ImportStatic registers a set of (role, module bytes) pairs at startup.
func (r *Registry) ImportStatic(modules map[types.CanisterRole][]byte) {
	for role, bytes := range modules {
		r.Register(role, types.NewWasmModule(bytes))
	}
}

// Get returns the module for a role, if registered.
func (r *Registry) Get(role types.CanisterRole) (types.WasmModule, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	module, ok := r.modules[role]
	return module, ok
}

// TryGet returns the module for a role or a resource error when missing.
func (r *Registry) TryGet(role types.CanisterRole) (types.WasmModule, error) {
	module, ok := r.Get(role)
	if !ok {
		return types.WasmModule{}, errors.Newf(errors.ErrorTypeResource, "wasm not registered for role %s", role)
	}
	return module, nil
}

// Roles returns the registered roles in lexicographic order.
func (r *Registry) Roles() []types.CanisterRole {
	r.mu.Lock()
	defer r.mu.Unlock()

	roles := make([]types.CanisterRole, 0, len(r.modules))
	for role := range r.modules {
		roles = append(roles, role)
	}
	slices.Sort(roles)
	return roles
}
