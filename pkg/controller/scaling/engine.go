// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package scaling

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	"github.com/canic-io/canic/pkg/apis/config"
	"github.com/canic-io/canic/pkg/controller/lifecycle"
	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/memory"
	"github.com/canic-io/canic/pkg/types"
)

// WorkerEntry is the authoritative record of one scaling worker.
type WorkerEntry struct {
	Pool      types.PoolName     `json:"pool"`
	Role      types.CanisterRole `json:"role"`
	CreatedAt uint64             `json:"created_at"`
}

// Engine manages elastic worker pools. Pool membership lives in the scaling
// registry; sizing decisions consult the configured bounds.
type Engine struct {
	mu sync.Mutex

	log          logr.Logger
	cfg          *config.Config
	workers      *memory.Map[types.Principal, WorkerEntry]
	orchestrator *lifecycle.Orchestrator
	root         types.Principal
	now          types.NowFunc
}

// NewEngine wires the scaling engine. Workers are provisioned through the
// lifecycle orchestrator with root as their parent.
func NewEngine(log logr.Logger, cfg *config.Config, backend memory.Backend, id memory.ID, orchestrator *lifecycle.Orchestrator, root types.Principal, now types.NowFunc) *Engine {
	return &Engine{
		log:          log.WithName("scaling"),
		cfg:          cfg,
		workers:      memory.NewMap[types.Principal, WorkerEntry](backend, id, types.Principal.String),
		orchestrator: orchestrator,
		root:         root,
		now:          now,
	}
}

// PlanCreateWorker is a pure dry-run: it reports whether the pool is below
// its target and creation is not blocked. It mutates nothing and holds the
// engine lock only while counting the pool; CreateWorker re-evaluates the
// plan under that lock.
func (e *Engine) PlanCreateWorker(pool types.PoolName) bool {
	poolCfg, ok := e.cfg.Pool.Pools[string(pool)]
	if !ok {
		return false
	}
	count := e.PoolSize(pool)
	return count < e.target(poolCfg) && count < int(poolCfg.Capacity)
}

// CreateWorker provisions a new worker into the pool and registers it.
// The plan is re-evaluated under the registry mutation lock so two
// interleaved requests on a nearly full pool cannot both succeed.
func (e *Engine) CreateWorker(ctx context.Context, pool types.PoolName) (types.Principal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	poolCfg, ok := e.cfg.Pool.Pools[string(pool)]
	if !ok {
		return types.NilPrincipal, errors.Newf(errors.ErrorTypeResource, "scaling disabled: unknown pool %q", pool)
	}

	count := e.poolSizeLocked(pool)
	if count >= int(poolCfg.Capacity) || count >= e.target(poolCfg) {
		return types.NilPrincipal, errors.Newf(errors.ErrorTypeResource, "cap reached for pool %q", pool)
	}

	result, err := e.orchestrator.Apply(ctx, lifecycle.Event{
		Create: &lifecycle.CreateEvent{Role: poolCfg.Role, Parent: e.root},
	})
	if err != nil {
		return types.NilPrincipal, err
	}

	e.workers.Set(result.Pid, WorkerEntry{
		Pool:      pool,
		Role:      poolCfg.Role,
		CreatedAt: e.now(),
	})
	e.log.Info("created worker", "topic", "Pool", "pool", pool, "pid", result.Pid.Short(), "size", count+1)
	return result.Pid, nil
}

// PoolSize returns the number of workers currently in the pool.
func (e *Engine) PoolSize(pool types.PoolName) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.poolSizeLocked(pool)
}

func (e *Engine) poolSizeLocked(pool types.PoolName) int {
	count := 0
	e.workers.Range(func(_ types.Principal, worker WorkerEntry) bool {
		if worker.Pool == pool {
			count++
		}
		return true
	})
	return count
}

// WorkersIn returns the pool's workers ordered by principal.
func (e *Engine) WorkersIn(pool types.PoolName) []types.Principal {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []types.Principal
	e.workers.Range(func(pid types.Principal, worker WorkerEntry) bool {
		if worker.Pool == pool {
			out = append(out, pid)
		}
		return true
	})
	return out
}

// Get returns the registry entry for a worker.
func (e *Engine) Get(pid types.Principal) (WorkerEntry, bool) {
	return e.workers.Get(pid)
}

// target is the effective pool target, floored by the global minimum size.
func (e *Engine) target(poolCfg config.ScalingPoolConfig) int {
	target := poolCfg.Target
	if minimum := e.cfg.Pool.MinimumSize; target < minimum {
		target = minimum
	}
	if target > poolCfg.Capacity {
		target = poolCfg.Capacity
	}
	return int(target)
}
