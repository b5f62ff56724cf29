// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package canister

import (
	"context"
	"encoding/json"

	"github.com/go-logr/logr"

	"github.com/canic-io/canic/pkg/apis/config"
	"github.com/canic-io/canic/pkg/controller/bootstrap"
	"github.com/canic-io/canic/pkg/controller/cascade"
	"github.com/canic-io/canic/pkg/controller/lifecycle"
	"github.com/canic-io/canic/pkg/controller/scaling"
	"github.com/canic-io/canic/pkg/controller/sharding"
	"github.com/canic-io/canic/pkg/directory"
	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/metrics"
	"github.com/canic-io/canic/pkg/platform"
	"github.com/canic-io/canic/pkg/policy"
	"github.com/canic-io/canic/pkg/registry"
	"github.com/canic-io/canic/pkg/rpc"
	"github.com/canic-io/canic/pkg/state"
	"github.com/canic-io/canic/pkg/types"
	"github.com/canic-io/canic/pkg/wasm"
)

// RootOptions configure a root node.
type RootOptions struct {
	Log        logr.Logger
	Config     *config.Config
	Self       types.Principal
	SubnetPid  types.Principal
	SubnetRole types.SubnetRole

	// PrimeRootPid is the prime root of the fleet. Nil means this root IS
	// the prime root.
	PrimeRootPid *types.Principal

	Factory platform.Factory
	Wasms   *wasm.Registry
	Now     types.NowFunc
}

// Root is the canister at the top of a subnet's forest. It owns the
// authoritative registries and serves the orchestration RPC.
type Root struct {
	*Node

	cfg          *config.Config
	mgmt         platform.Management
	registry     *registry.SubnetRegistry
	appRegistry  *registry.AppRegistry
	wasms        *wasm.Registry
	cascade      *cascade.Engine
	orchestrator *lifecycle.Orchestrator
	scaling      *scaling.Engine
	sharding     *sharding.Engine
	bootstrapper *bootstrap.Bootstrapper
}

// RootRole is the role recorded for every subnet root.
const RootRole = types.CanisterRole("root")

// NewRoot wires a root node and seeds its canonical environment.
func NewRoot(opts RootOptions) (*Root, error) {
	mgmt, err := opts.Factory.Management()
	if err != nil {
		return nil, err
	}

	node := NewNode(opts.Log, opts.Config, opts.Self, opts.Factory.Transport(), opts.Now)

	subnetRegID := node.memreg.Allocate("canic", "subnet_registry")
	appRegID := node.memreg.Allocate("canic", "app_registry")
	scalingID := node.memreg.Allocate("canic", "scaling_registry")
	shardsID := node.memreg.Allocate("canic", "sharding_registry")
	tenantsID := node.memreg.Allocate("canic", "sharding_tenants")

	root := &Root{
		Node:        node,
		cfg:         opts.Config,
		mgmt:        mgmt,
		registry:    registry.NewSubnetRegistry(node.backend, subnetRegID, opts.Self),
		appRegistry: registry.NewAppRegistry(node.backend, appRegID),
		wasms:       opts.Wasms,
	}

	primeRoot := opts.Self
	if opts.PrimeRootPid != nil {
		primeRoot = *opts.PrimeRootPid
	}
	subnetRole := opts.SubnetRole
	subnetPid := opts.SubnetPid
	rootRole := RootRole
	self := opts.Self
	node.env.Import(state.Env{
		PrimeRootPid: &primeRoot,
		SubnetRole:   &subnetRole,
		SubnetPid:    &subnetPid,
		RootPid:      &self,
		CanisterRole: &rootRole,
	})

	if opts.PrimeRootPid == nil {
		root.appRegistry.Register(registry.AppSubnet{SubnetPid: subnetPid, RootPid: self})
	}

	// Directory derivation runs on every registry mutation, under the
	// registry lock, so the projections can never drift from the table.
	root.registry.OnChange(func(entries []registry.CanisterEntry) {
		root.deriveDirectories(entries)
	})

	root.cascade = cascade.NewEngine(node.log, node.client, root.registry)
	root.orchestrator = lifecycle.NewOrchestrator(
		node.log, opts.Config, mgmt, opts.Wasms, root.registry,
		node.appDir, node.subnetDir, node.env, root.cascade, opts.Now,
	)
	root.scaling = scaling.NewEngine(node.log, opts.Config, node.backend, scalingID, root.orchestrator, opts.Self, opts.Now)
	root.sharding = sharding.NewEngine(node.log, opts.Config, node.backend, shardsID, tenantsID, root.orchestrator, opts.Self, opts.Now)
	root.bootstrapper = bootstrap.NewBootstrapper(node.log, opts.Config, root.orchestrator, opts.Self)

	return root, nil
}

// Bootstrap provisions the configured auto-create canisters. Intended to run
// once after installation.
func (r *Root) Bootstrap(ctx context.Context) error {
	return r.bootstrapper.Run(ctx)
}

// Registry returns the authoritative subnet registry.
func (r *Root) Registry() *registry.SubnetRegistry {
	return r.registry
}

// AppRegistry returns the prime root's subnet table.
func (r *Root) AppRegistry() *registry.AppRegistry {
	return r.appRegistry
}

// Orchestrator returns the lifecycle orchestrator.
func (r *Root) Orchestrator() *lifecycle.Orchestrator {
	return r.orchestrator
}

// Cascade returns the cascade engine.
func (r *Root) Cascade() *cascade.Engine {
	return r.cascade
}

// Scaling returns the scaling pool engine.
func (r *Root) Scaling() *scaling.Engine {
	return r.scaling
}

// Sharding returns the sharding engine.
func (r *Root) Sharding() *sharding.Engine {
	return r.sharding
}

// SetAppMode changes the application mode and cascades it to the subtree.
func (r *Root) SetAppMode(ctx context.Context, command state.AppCommand) error {
	mode, err := r.appMode.Apply(command)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, "cannot apply app command")
	}
	return r.cascade.CascadeState(ctx, cascade.StateSnapshot{AppMode: &mode})
}

func (r *Root) deriveDirectories(entries []registry.CanisterEntry) {
	appView := directory.Derive(entries, r.cfg.AppDirectoryRoles())
	subnetView := directory.Derive(entries, r.cfg.SubnetDirectoryRoles())

	if err := r.appDir.Import(appView); err != nil {
		r.log.Error(err, "app directory derivation rejected", "topic", "Sync")
	}
	if err := r.subnetDir.Import(subnetView); err != nil {
		r.log.Error(err, "subnet directory derivation rejected", "topic", "Sync")
	}
}

// Handle implements rpc.Handler. Root serves the orchestration RPC and
// rejects cascade deliveries, which only flow away from it.
func (r *Root) Handle(ctx context.Context, caller types.Principal, method string, payload []byte) ([]byte, error) {
	if method != rpc.MethodResponse {
		return r.Node.Handle(ctx, caller, method, payload)
	}
	metrics.RPCCall(method)

	var req rpc.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return rpc.EncodeResult(nil, errors.Wrap(err, errors.ErrorTypeTransport, "cannot decode request"))
	}
	if err := req.Validate(); err != nil {
		return rpc.EncodeResult(nil, err)
	}

	switch {
	case req.CreateCanister != nil:
		return rpc.EncodeResult(r.handleCreate(ctx, caller, *req.CreateCanister))
	case req.UpgradeCanister != nil:
		return rpc.EncodeResult(r.handleUpgrade(ctx, caller, *req.UpgradeCanister))
	default:
		return rpc.EncodeResult(r.handleCycles(ctx, caller, *req.Cycles))
	}
}

// handleCreate provisions a child for the caller. The caller must itself be
// part of the topology: root, or a registered canister.
func (r *Root) handleCreate(ctx context.Context, caller types.Principal, req rpc.CreateCanisterRequest) (rpc.Response, error) {
	if caller != r.Self() {
		if _, ok := r.registry.Get(caller); !ok {
			metrics.AccessFailure(metrics.AccessMetricAuth)
			return rpc.Response{}, errors.Newf(errors.ErrorTypeAccess, "caller %s is not part of this subnet", caller.Short())
		}
	}

	result, err := r.orchestrator.Apply(ctx, lifecycle.Event{
		Create: &lifecycle.CreateEvent{Role: req.Role, Parent: caller, Extra: req.Extra},
	})
	if err != nil {
		return rpc.Response{}, err
	}
	return rpc.Response{CreateCanister: &rpc.CreateCanisterResponse{Pid: result.Pid}}, nil
}

// handleUpgrade upgrades one of the caller's children.
func (r *Root) handleUpgrade(ctx context.Context, caller types.Principal, req rpc.UpgradeCanisterRequest) (rpc.Response, error) {
	entry, ok := r.registry.Get(req.Pid)
	if !ok {
		return rpc.Response{}, errors.Newf(errors.ErrorTypeConsistency, "canister not found: %s", req.Pid.Short())
	}
	if caller != r.Self() && (entry.ParentPid == nil || *entry.ParentPid != caller) {
		metrics.AccessFailure(metrics.AccessMetricAuth)
		return rpc.Response{}, errors.Newf(errors.ErrorTypeAccess, "canister %s is not a child of caller %s", req.Pid.Short(), caller.Short())
	}

	if _, err := r.orchestrator.Apply(ctx, lifecycle.Event{Upgrade: &lifecycle.UpgradeEvent{Pid: req.Pid}}); err != nil {
		return rpc.Response{}, err
	}
	return rpc.Response{UpgradeCanister: &rpc.UpgradeCanisterResponse{}}, nil
}

// handleCycles serves a top-up request from a registered child. The decision
// is delegated to the top-up policy for the child's role.
func (r *Root) handleCycles(ctx context.Context, caller types.Principal, req rpc.CyclesRequest) (rpc.Response, error) {
	entry, ok := r.registry.Get(caller)
	if !ok {
		return rpc.Response{}, errors.Newf(errors.ErrorTypeAccess, "caller %s is not part of this subnet", caller.Short())
	}
	canisterCfg, ok := r.cfg.CanisterFor(entry.Role)
	if !ok {
		return rpc.Response{}, errors.Newf(errors.ErrorTypeValidation, "role not configured: %s", entry.Role)
	}

	status, err := r.mgmt.CanisterStatus(ctx, caller)
	if err != nil {
		return rpc.Response{}, errors.Wrapf(err, errors.ErrorTypeTransport, "cannot read status of %s", caller.Short())
	}

	plan := policy.ShouldTopup(status.Cycles, canisterCfg)
	if plan == nil {
		return rpc.Response{}, errors.Newf(errors.ErrorTypeResource, "no top-up planned for %s", caller.Short())
	}

	amount := plan.Amount
	if req.Amount > 0 && req.Amount < amount {
		amount = req.Amount
	}
	if err := r.mgmt.DepositCycles(ctx, caller, amount); err != nil {
		return rpc.Response{}, errors.Wrapf(err, errors.ErrorTypeTransport, "deposit to %s failed", caller.Short())
	}
	return rpc.Response{Cycles: &rpc.CyclesResponse{Deposited: amount}}, nil
}
