// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"slices"

	"github.com/canic-io/canic/pkg/types"
)

// DirectoryScope says which directory a role is projected into.
type DirectoryScope string

const (
	// DirectoryScopeSubnet projects the role into the subnet directory.
	DirectoryScopeSubnet DirectoryScope = "subnet"
	// DirectoryScopeApp projects the role into the app-wide directory.
	DirectoryScopeApp DirectoryScope = "app"
)

// Config is the root configuration of one canic deployment. It is loaded
// from TOML at build time and embedded into the root canister.
type Config struct {
	// Controllers are added as controllers to every provisioned child,
	// in addition to the root canister itself.
	Controllers []types.Principal `toml:"controllers"`

	// Canisters configures every known role.
	Canisters map[string]CanisterConfig `toml:"canisters"`

	Pool       PoolConfig       `toml:"pool"`
	Sharding   ShardingConfig   `toml:"sharding"`
	Log        LogConfig        `toml:"log"`
	Randomness RandomnessConfig `toml:"randomness"`
	Standards  StandardsConfig  `toml:"standards"`
}

// CanisterConfig configures one canister role.
type CanisterConfig struct {
	// InitialCycles is the cycle balance given to freshly provisioned
	// canisters of this role.
	InitialCycles types.Cycles `toml:"initial_cycles"`

	// AutoCreate is the number of canisters of this role the root creates
	// during bootstrap.
	AutoCreate uint32 `toml:"auto_create"`

	// UsesDirectory marks the role as directory-visible.
	UsesDirectory bool `toml:"uses_directory"`

	// DirectoryScope selects the directory the role is projected into.
	// Only meaningful when UsesDirectory is set.
	DirectoryScope DirectoryScope `toml:"directory_scope"`

	Topup *TopupConfig `toml:"topup"`
}

// TopupConfig enables automatic cycle top-ups for a role.
type TopupConfig struct {
	Threshold types.Cycles `toml:"threshold"`
	Amount    types.Cycles `toml:"amount"`
}

// PoolConfig configures the scaling pools.
type PoolConfig struct {
	// MinimumSize is the floor applied to every pool target.
	MinimumSize uint32 `toml:"minimum_size"`

	Pools map[string]ScalingPoolConfig `toml:"pools"`
}

// ScalingPoolConfig configures one scaling pool.
type ScalingPoolConfig struct {
	// Role of the workers provisioned into this pool.
	Role types.CanisterRole `toml:"role"`

	// Capacity is the hard cap on pool size.
	Capacity uint32 `toml:"capacity"`

	// Target is the size the pool scales toward.
	Target uint32 `toml:"target"`
}

// ShardingConfig configures the sharded pools.
type ShardingConfig struct {
	Pools map[string]ShardPoolConfig `toml:"pools"`
}

// ShardPoolConfig configures one sharded pool.
type ShardPoolConfig struct {
	// Role of the shard canisters in this pool.
	Role types.CanisterRole `toml:"role"`

	// MaxShards bounds the number of shard slots.
	MaxShards uint32 `toml:"max_shards"`

	// ShardCapacity is the tenant capacity of a single shard.
	ShardCapacity uint32 `toml:"shard_capacity"`
}

// LogConfig bounds the persisted log store.
type LogConfig struct {
	MaxEntries    uint64  `toml:"max_entries"`
	MaxEntryBytes uint32  `toml:"max_entry_bytes"`
	MaxAgeSecs    *uint64 `toml:"max_age_secs"`
}

// RandomnessConfig configures periodic beacon reseeding.
type RandomnessConfig struct {
	Enabled            bool   `toml:"enabled"`
	ReseedIntervalSecs uint64 `toml:"reseed_interval_secs"`
}

// StandardsConfig toggles the optional interface standards.
type StandardsConfig struct {
	ICRC10 bool `toml:"icrc10"`
	ICRC21 bool `toml:"icrc21"`
}

// CanisterFor returns the configuration of a role, if present.
func (c *Config) CanisterFor(role types.CanisterRole) (CanisterConfig, bool) {
	cfg, ok := c.Canisters[string(role)]
	return cfg, ok
}

// AppDirectoryRoles returns the roles projected into the app directory,
// in lexicographic order.
func (c *Config) AppDirectoryRoles() []types.CanisterRole {
	return c.directoryRoles(DirectoryScopeApp)
}

// SubnetDirectoryRoles returns the roles projected into the subnet directory,
// in lexicographic order.
func (c *Config) SubnetDirectoryRoles() []types.CanisterRole {
	return c.directoryRoles(DirectoryScopeSubnet)
}

func (c *Config) directoryRoles(scope DirectoryScope) []types.CanisterRole {
	var roles []types.CanisterRole
	for name, canister := range c.Canisters {
		if canister.UsesDirectory && canister.DirectoryScope == scope {
			roles = append(roles, types.CanisterRole(name))
		}
	}
	slices.Sort(roles)
	return roles
}
