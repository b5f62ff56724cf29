// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package sharding

import (
	"context"
	"math"
	"sync"

	"github.com/go-logr/logr"

	"github.com/canic-io/canic/pkg/apis/config"
	"github.com/canic-io/canic/pkg/controller/lifecycle"
	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/memory"
	"github.com/canic-io/canic/pkg/types"
)

// UnassignedSlot marks a shard that has not yet been given a slot.
const UnassignedSlot = uint32(math.MaxUint32)

// ShardEntry is the authoritative record of one shard.
type ShardEntry struct {
	Pool      types.PoolName      `json:"pool"`
	Slot      uint32              `json:"slot"`
	Capacity  uint32              `json:"capacity"`
	Count     uint32              `json:"count"`
	Role      types.CanisterRole  `json:"role"`
	CreatedAt uint64              `json:"created_at"`
	State     ShardLifecycleState `json:"state"`
}

// PoolMetrics aggregates one pool's tenant load.
type PoolMetrics struct {
	Count      uint32  `json:"count"`
	Capacity   uint32  `json:"capacity"`
	Saturation float64 `json:"saturation"`
}

// Engine places tenants on shards with highest-random-weight hashing and
// drives shard lifecycles. Only Active shards participate in assignment:
// Retiring shards keep serving the tenants already on them but receive no
// new ones.
type Engine struct {
	mu sync.Mutex

	log          logr.Logger
	cfg          *config.Config
	shards       *memory.Map[types.Principal, ShardEntry]
	tenants      *memory.Map[string, types.Principal]
	orchestrator *lifecycle.Orchestrator
	root         types.Principal
	now          types.NowFunc
}

// NewEngine wires the sharding engine. Shards are provisioned through the
// lifecycle orchestrator with root as their parent.
func NewEngine(log logr.Logger, cfg *config.Config, backend memory.Backend, shardsID, tenantsID memory.ID, orchestrator *lifecycle.Orchestrator, root types.Principal, now types.NowFunc) *Engine {
	return &Engine{
		log:          log.WithName("sharding"),
		cfg:          cfg,
		shards:       memory.NewMap[types.Principal, ShardEntry](backend, shardsID, types.Principal.String),
		tenants:      memory.NewMap[string, types.Principal](backend, tenantsID, func(t string) string { return t }),
		orchestrator: orchestrator,
		root:         root,
		now:          now,
	}
}

// CreateShard provisions a new shard canister into the pool. Creation is
// blocked once every slot is taken.
func (e *Engine) CreateShard(ctx context.Context, pool types.PoolName) (types.Principal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	poolCfg, ok := e.cfg.Sharding.Pools[string(pool)]
	if !ok {
		return types.NilPrincipal, errors.Newf(errors.ErrorTypeValidation, "shard pool not found: %q", pool)
	}

	if e.shardsInPoolLocked(pool) >= int(poolCfg.MaxShards) {
		return types.NilPrincipal, errors.Newf(errors.ErrorTypeResource, "shard creation blocked: pool %q has no free slots", pool)
	}

	result, err := e.orchestrator.Apply(ctx, lifecycle.Event{
		Create: &lifecycle.CreateEvent{Role: poolCfg.Role, Parent: e.root},
	})
	if err != nil {
		return types.NilPrincipal, err
	}

	e.shards.Set(result.Pid, ShardEntry{
		Pool:      pool,
		Slot:      UnassignedSlot,
		Capacity:  poolCfg.ShardCapacity,
		Role:      poolCfg.Role,
		CreatedAt: e.now(),
		State:     ShardCreated,
	})
	e.log.Info("created shard", "topic", "Sharding", "pool", pool, "pid", result.Pid.Short())
	return result.Pid, nil
}

// Transition advances a shard's lifecycle state. Backward or repeated
// transitions are rejected. Activation assigns the lowest free slot;
// revocation releases it.
func (e *Engine) Transition(pid types.Principal, next ShardLifecycleState) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := next.Validate(); err != nil {
		return err
	}
	entry, ok := e.shards.Get(pid)
	if !ok {
		return errors.Newf(errors.ErrorTypeConsistency, "shard not found: %s", pid.Short())
	}
	if !entry.State.CanTransition(next) {
		return errors.Newf(errors.ErrorTypeValidation, "invalid shard transition %s -> %s", entry.State, next)
	}

	switch next {
	case ShardActive:
		entry.Slot = e.nextFreeSlotLocked(entry.Pool)
	case ShardRevoked:
		entry.Slot = UnassignedSlot
	}
	entry.State = next
	e.shards.Set(pid, entry)
	e.log.Info("shard transitioned", "topic", "Sharding", "pid", pid.Short(), "state", next)
	return nil
}

// Assign places a tenant on a shard. The choice is a pure function of the
// tenant key and the current Active set, so every node computes the same
// placement. The recorded assignment feeds the per-shard tenant counts.
func (e *Engine) Assign(pool types.PoolName, tenant string) (types.Principal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.cfg.Sharding.Pools[string(pool)]; !ok {
		return types.NilPrincipal, errors.Newf(errors.ErrorTypeValidation, "shard pool not found: %q", pool)
	}

	active := e.activeShardsLocked(pool)
	chosen, ok := selectShard(tenant, active)
	if !ok {
		return types.NilPrincipal, errors.Newf(errors.ErrorTypeResource, "no active shards in pool %q", pool)
	}

	previous, assigned := e.tenants.Get(tenant)
	if assigned && previous == chosen {
		return chosen, nil
	}

	if assigned {
		e.adjustCountLocked(previous, -1)
	}
	e.tenants.Set(tenant, chosen)
	e.adjustCountLocked(chosen, +1)
	return chosen, nil
}

// Release removes a tenant's assignment.
func (e *Engine) Release(tenant string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if shard, ok := e.tenants.Get(tenant); ok {
		e.adjustCountLocked(shard, -1)
		e.tenants.Delete(tenant)
	}
}

// AssignmentOf returns the recorded shard for a tenant.
func (e *Engine) AssignmentOf(tenant string) (types.Principal, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.tenants.Get(tenant)
}

// Metrics aggregates tenant count and capacity over the pool's non-revoked
// shards.
func (e *Engine) Metrics(pool types.PoolName) PoolMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()

	var metrics PoolMetrics
	e.shards.Range(func(_ types.Principal, entry ShardEntry) bool {
		if entry.Pool == pool && entry.State != ShardRevoked {
			metrics.Count += entry.Count
			metrics.Capacity += entry.Capacity
		}
		return true
	})
	if metrics.Capacity > 0 {
		metrics.Saturation = float64(metrics.Count) / float64(metrics.Capacity)
	}
	return metrics
}

// Get returns the registry entry for a shard.
func (e *Engine) Get(pid types.Principal) (ShardEntry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.shards.Get(pid)
}

// ActiveShards returns the pool's Active shards ordered by principal.
func (e *Engine) ActiveShards(pool types.PoolName) []types.Principal {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.activeShardsLocked(pool)
}

func (e *Engine) activeShardsLocked(pool types.PoolName) []types.Principal {
	var out []types.Principal
	e.shards.Range(func(pid types.Principal, entry ShardEntry) bool {
		if entry.Pool == pool && entry.State == ShardActive {
			out = append(out, pid)
		}
		return true
	})
	return out
}

func (e *Engine) shardsInPoolLocked(pool types.PoolName) int {
	count := 0
	e.shards.Range(func(_ types.Principal, entry ShardEntry) bool {
		if entry.Pool == pool && entry.State != ShardRevoked {
			count++
		}
		return true
	})
	return count
}

func (e *Engine) nextFreeSlotLocked(pool types.PoolName) uint32 {
	taken := map[uint32]bool{}
	e.shards.Range(func(_ types.Principal, entry ShardEntry) bool {
		if entry.Pool == pool && entry.Slot != UnassignedSlot {
			taken[entry.Slot] = true
		}
		return true
	})
	slot := uint32(0)
	for taken[slot] {
		slot++
	}
	return slot
}

func (e *Engine) adjustCountLocked(pid types.Principal, delta int) {
	entry, ok := e.shards.Get(pid)
	if !ok {
		return
	}
	next := int(entry.Count) + delta
	if next < 0 {
		next = 0
	}
	entry.Count = uint32(next)
	e.shards.Set(pid, entry)
}
