// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"github.com/canic-io/canic/pkg/memory"
	"github.com/canic-io/canic/pkg/types"
)

// AppSubnet is one subnet as seen by the prime root.
type AppSubnet struct {
	SubnetPid types.Principal `json:"subnet_pid"`
	RootPid   types.Principal `json:"root_pid"`
}

// AppRegistry maps every subnet to its root. Exactly one prime root per fleet
// owns this table.
type AppRegistry struct {
	entries *memory.Map[types.Principal, AppSubnet]
}

// NewAppRegistry binds the app registry to the given memory slot.
func NewAppRegistry(backend memory.Backend, id memory.ID) *AppRegistry {
	return &AppRegistry{
		entries: memory.NewMap[types.Principal, AppSubnet](backend, id, types.Principal.String),
	}
}

// Register records or replaces a subnet's root.
func (r *AppRegistry) Register(subnet AppSubnet) {
	r.entries.Set(subnet.SubnetPid, subnet)
}

// Get returns the record for a subnet principal.
func (r *AppRegistry) Get(subnetPid types.Principal) (AppSubnet, bool) {
	return r.entries.Get(subnetPid)
}

// Export returns all subnets ordered by subnet principal.
func (r *AppRegistry) Export() []AppSubnet {
	var out []AppSubnet
	r.entries.Range(func(_ types.Principal, subnet AppSubnet) bool {
		out = append(out, subnet)
		return true
	})
	return out
}

// Len returns the number of registered subnets.
func (r *AppRegistry) Len() int {
	return r.entries.Len()
}
