// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package cascade

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-multierror"

	"github.com/canic-io/canic/pkg/metrics"
	"github.com/canic-io/canic/pkg/registry"
	"github.com/canic-io/canic/pkg/rpc"
	"github.com/canic-io/canic/pkg/types"
)

// FanoutWarnThreshold is the per-hop child count above which a cascade logs a
// large-fanout warning.
const FanoutWarnThreshold = 10

// Engine is the root-side cascade origin. It trims snapshots to per-child
// branches and fans them out over the RPC fabric. A failure on one child
// never aborts its siblings; failures are aggregated and surfaced to the
// caller.
type Engine struct {
	log      logr.Logger
	client   *rpc.Client
	registry *registry.SubnetRegistry
}

// NewEngine returns a cascade engine for the given registry and client.
func NewEngine(log logr.Logger, client *rpc.Client, reg *registry.SubnetRegistry) *Engine {
	return &Engine{
		log:      log.WithName("cascade"),
		client:   client,
		registry: reg,
	}
}

// CascadeState pushes a state snapshot to every direct child of root. Each
// receiving hop applies the snapshot and forwards it to its own children, so
// one invocation converges the whole subtree.
func (e *Engine) CascadeState(ctx context.Context, snapshot StateSnapshot) error {
	children := e.registry.Children(e.registry.Root())
	targets := make([]types.Principal, 0, len(children))
	for _, child := range children {
		targets = append(targets, child.Pid)
	}
	return FanOutState(ctx, e.log, e.client, targets, snapshot)
}

// CascadeTopology pushes the trimmed branch from root down to target. Every
// hop on the path imports its direct-children set.
func (e *Engine) CascadeTopology(ctx context.Context, target types.Principal) error {
	snapshot, err := e.BranchFor(target)
	if err != nil {
		return err
	}

	metrics.CascadeFanout("topology")
	first := snapshot.Chain[0]
	if err := e.client.Call(ctx, first.Pid, rpc.MethodSyncTopology, snapshot, nil); err != nil {
		metrics.CascadeFailure("topology")
		e.log.Error(err, "topology cascade failed", "topic", "Sync", "target", target.Short())
		return err
	}
	return nil
}

// CascadeTopologySubtree refreshes the branch of every leaf under root.
// Because each hop on a branch imports its children, covering all leaves
// converges every node. Sibling branches are isolated from each other's
// failures.
func (e *Engine) CascadeTopologySubtree(ctx context.Context) error {
	var leaves []types.Principal
	for _, entry := range e.registry.Export() {
		if len(e.registry.Children(entry.Pid)) == 0 {
			leaves = append(leaves, entry.Pid)
		}
	}

	var errs *multierror.Error
	for _, leaf := range leaves {
		if err := e.CascadeTopology(ctx, leaf); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// BranchFor builds the trimmed branch snapshot addressed to the first hop on
// the path from root to target.
func (e *Engine) BranchFor(target types.Principal) (TopologySnapshot, error) {
	chain, err := e.registry.ParentChain(target)
	if err != nil {
		return TopologySnapshot{}, err
	}

	nodes := make([]TopologyNode, 0, len(chain))
	for _, entry := range chain {
		children := e.registry.Children(entry.Pid)
		summaries := make([]types.CanisterSummary, 0, len(children))
		for _, child := range children {
			summaries = append(summaries, child.Summary())
		}
		nodes = append(nodes, TopologyNode{
			Pid:       entry.Pid,
			Role:      entry.Role,
			ParentPid: entry.ParentPid,
			Children:  summaries,
		})
	}
	return TopologySnapshot{Chain: nodes}, nil
}

// FanOutState delivers a state snapshot to each target. Used by the root
// engine for its children and by every hop for forwarding. Failures are
// logged under the Sync topic and aggregated; siblings always continue.
func FanOutState(ctx context.Context, log logr.Logger, client *rpc.Client, targets []types.Principal, snapshot StateSnapshot) error {
	if len(targets) == 0 || snapshot.IsEmpty() {
		return nil
	}
	warnIfLarge(log, "state fanout", len(targets))

	var errs *multierror.Error
	for _, target := range targets {
		metrics.CascadeFanout("state")
		if err := client.Call(ctx, target, rpc.MethodSyncState, snapshot, nil); err != nil {
			metrics.CascadeFailure("state")
			log.Error(err, "state cascade failed", "topic", "Sync", "target", target.Short())
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

func warnIfLarge(log logr.Logger, label string, count int) {
	if count > FanoutWarnThreshold {
		log.Info("large cascade", "topic", "Sync", "label", label, "count", count)
	}
}
