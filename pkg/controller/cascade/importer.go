// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package cascade

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/canic-io/canic/pkg/directory"
	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/rpc"
	"github.com/canic-io/canic/pkg/state"
	"github.com/canic-io/canic/pkg/types"
)

// Importer is the receiving side of the cascade protocol. It validates
// incoming snapshots against the local environment, applies them, and
// forwards further-trimmed snapshots down the tree.
type Importer struct {
	log       logr.Logger
	client    *rpc.Client
	env       *state.EnvStore
	appMode   *state.AppModeStore
	appDir    *directory.Store
	subnetDir *directory.Store
	children  *state.ChildStore
}

// NewImporter wires an importer to this node's stores and client.
func NewImporter(log logr.Logger, client *rpc.Client, env *state.EnvStore, appMode *state.AppModeStore, appDir, subnetDir *directory.Store, children *state.ChildStore) *Importer {
	return &Importer{
		log:       log.WithName("cascade"),
		client:    client,
		env:       env,
		appMode:   appMode,
		appDir:    appDir,
		subnetDir: subnetDir,
		children:  children,
	}
}

// ImportState applies a state snapshot and forwards it to this node's
// recorded children. Application happens before forwarding so a transport
// failure below never loses the local update.
func (i *Importer) ImportState(ctx context.Context, snapshot StateSnapshot) error {
	if snapshot.Env != nil {
		i.env.Import(*snapshot.Env)
	}
	if snapshot.AppMode != nil {
		i.appMode.Set(*snapshot.AppMode)
	}
	if snapshot.AppDirectory != nil {
		if err := i.appDir.Import(*snapshot.AppDirectory); err != nil {
			return err
		}
	}
	if snapshot.SubnetDirectory != nil {
		if err := i.subnetDir.Import(*snapshot.SubnetDirectory); err != nil {
			return err
		}
	}

	var targets []types.Principal
	for _, child := range i.children.List() {
		targets = append(targets, child.Pid)
	}
	return FanOutState(ctx, i.log, i.client, targets, snapshot)
}

// ImportTopology validates the addressed hop of a branch snapshot, imports
// this node's direct-children set, and forwards the trimmed tail to the next
// hop on the path.
func (i *Importer) ImportTopology(ctx context.Context, snapshot TopologySnapshot) error {
	if err := i.validateChain(snapshot); err != nil {
		i.log.Error(err, "rejecting topology snapshot", "topic", "Sync")
		return err
	}

	head := snapshot.Chain[0]
	i.children.Import(head.Children)

	trimmed := snapshot.Trim()
	if trimmed.IsEmpty() {
		return nil
	}

	next := trimmed.Chain[0]
	if !i.children.Has(next.Pid) {
		return invalidChain("next hop %s is not a child of %s", next.Pid.Short(), head.Pid.Short())
	}
	return i.client.Call(ctx, next.Pid, rpc.MethodSyncTopology, trimmed, nil)
}

func (i *Importer) validateChain(snapshot TopologySnapshot) error {
	if len(snapshot.Chain) == 0 {
		return invalidChain("empty chain")
	}

	head := snapshot.Chain[0]
	if head.Pid != i.env.Self() {
		return invalidChain("chain head %s is not this canister", head.Pid.Short())
	}

	// The head's parent must match what this node already knows: either its
	// recorded parent or the subnet root.
	if head.ParentPid != nil {
		recordedParent, hasParent := i.env.ParentPid()
		root, hasRoot := i.env.RootPid()
		parentOK := hasParent && *head.ParentPid == recordedParent
		rootOK := hasRoot && *head.ParentPid == root
		if !parentOK && !rootOK {
			return invalidChain("chain head parent %s matches neither recorded parent nor root", head.ParentPid.Short())
		}
	}

	seen := map[types.Principal]bool{}
	for idx, node := range snapshot.Chain {
		if seen[node.Pid] {
			return invalidChain("cycle through %s", node.Pid.Short())
		}
		seen[node.Pid] = true

		if idx == 0 {
			continue
		}
		prev := snapshot.Chain[idx-1]
		if node.ParentPid == nil || *node.ParentPid != prev.Pid {
			return invalidChain("broken link between %s and %s", prev.Pid.Short(), node.Pid.Short())
		}
	}
	return nil
}

func invalidChain(format string, args ...any) error {
	return errors.Newf(errors.ErrorTypeValidation, "invalid chain: "+format, args...)
}
