// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	"github.com/canic-io/canic/pkg/abi"
	"github.com/canic-io/canic/pkg/apis/config"
	"github.com/canic-io/canic/pkg/controller/cascade"
	"github.com/canic-io/canic/pkg/directory"
	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/metrics"
	"github.com/canic-io/canic/pkg/platform"
	"github.com/canic-io/canic/pkg/policy"
	"github.com/canic-io/canic/pkg/registry"
	"github.com/canic-io/canic/pkg/state"
	"github.com/canic-io/canic/pkg/types"
	"github.com/canic-io/canic/pkg/wasm"
)

// Event is one lifecycle request. Exactly one arm is set.
type Event struct {
	Create  *CreateEvent
	Upgrade *UpgradeEvent
	Delete  *DeleteEvent
}

// CreateEvent provisions a new child under Parent.
type CreateEvent struct {
	Role   types.CanisterRole
	Parent types.Principal
	Extra  []byte
}

// UpgradeEvent upgrades an existing canister to the currently registered
// module for its role.
type UpgradeEvent struct {
	Pid types.Principal
}

// DeleteEvent removes a childless canister.
type DeleteEvent struct {
	Pid types.Principal
}

// Result reports the outcome of an applied event.
type Result struct {
	// Pid is the affected canister.
	Pid types.Principal

	// Upgraded is false when an upgrade event was a hash-equal no-op.
	Upgraded bool
}

// Orchestrator drives the per-child lifecycle state machine on root. Apply
// holds the orchestrator lock for the whole event, so events are serialized
// per orchestrator and never interleave; every registry mutation also happens
// under the registry lock.
type Orchestrator struct {
	mu sync.Mutex

	log       logr.Logger
	cfg       *config.Config
	mgmt      platform.Management
	wasms     *wasm.Registry
	registry  *registry.SubnetRegistry
	appDir    *directory.Store
	subnetDir *directory.Store
	env       *state.EnvStore
	cascade   *cascade.Engine
	now       types.NowFunc
}

// NewOrchestrator wires the lifecycle orchestrator. env must be the root's
// environment store.
func NewOrchestrator(
	log logr.Logger,
	cfg *config.Config,
	mgmt platform.Management,
	wasms *wasm.Registry,
	reg *registry.SubnetRegistry,
	appDir, subnetDir *directory.Store,
	env *state.EnvStore,
	cascadeEngine *cascade.Engine,
	now types.NowFunc,
) *Orchestrator {
	return &Orchestrator{
		log:       log.WithName("lifecycle"),
		cfg:       cfg,
		mgmt:      mgmt,
		wasms:     wasms,
		registry:  reg,
		appDir:    appDir,
		subnetDir: subnetDir,
		env:       env,
		cascade:   cascadeEngine,
		now:       now,
	}
}

// Apply runs one lifecycle event to completion.
func (o *Orchestrator) Apply(ctx context.Context, event Event) (Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case event.Create != nil:
		result, err := o.create(ctx, *event.Create)
		metrics.LifecycleEvent("create", outcome(err))
		return result, err
	case event.Upgrade != nil:
		result, err := o.upgrade(ctx, *event.Upgrade)
		metrics.LifecycleEvent("upgrade", outcome(err))
		return result, err
	case event.Delete != nil:
		result, err := o.delete(ctx, *event.Delete)
		metrics.LifecycleEvent("delete", outcome(err))
		return result, err
	default:
		return Result{}, errors.New(errors.ErrorTypeValidation, "empty lifecycle event")
	}
}

func (o *Orchestrator) create(ctx context.Context, event CreateEvent) (Result, error) {
	canisterCfg, ok := o.cfg.CanisterFor(event.Role)
	if !ok {
		return Result{}, errors.Newf(errors.ErrorTypeValidation, "role not configured: %s", event.Role)
	}

	module, err := o.wasms.TryGet(event.Role)
	if err != nil {
		return Result{}, err
	}

	pid, err := o.mgmt.CreateCanister(ctx, platform.ProvisionOpts{
		Controllers: o.controllers(),
		Cycles:      canisterCfg.InitialCycles,
	})
	if err != nil {
		return Result{}, errors.Wrap(err, errors.ErrorTypeTransport, "provisioning failed")
	}

	payload, err := o.initPayload(event)
	if err != nil {
		return Result{}, err
	}

	// The child enters the registry only once install has succeeded; a
	// failed install leaves no trace in the topology.
	if err := o.mgmt.InstallCode(ctx, pid, module, payload); err != nil {
		return Result{}, errors.Wrapf(err, errors.ErrorTypeTransport, "install on %s failed", pid.Short())
	}

	hash := module.Hash()
	entry := registry.CanisterEntry{
		Pid:        pid,
		Role:       event.Role,
		ParentPid:  &event.Parent,
		ModuleHash: &hash,
		CreatedAt:  o.now(),
	}
	if err := o.registry.Insert(entry); err != nil {
		return Result{}, err
	}

	o.log.Info("created canister", "topic", "Lifecycle", "role", event.Role, "pid", pid.Short(), "parent", event.Parent.Short())
	o.cascadeAfterCreate(ctx, pid, canisterCfg)
	return Result{Pid: pid}, nil
}

// cascadeAfterCreate propagates the topology change and, when the new role is
// directory-visible, the refreshed directory projections. Cascade failures
// are logged and do not fail the create: the child exists and later cascades
// reconverge the replicas.
func (o *Orchestrator) cascadeAfterCreate(ctx context.Context, pid types.Principal, canisterCfg config.CanisterConfig) {
	if err := o.cascade.CascadeTopology(ctx, pid); err != nil {
		o.log.Error(err, "topology cascade after create failed", "topic", "Sync", "pid", pid.Short())
	}

	if !canisterCfg.UsesDirectory {
		return
	}

	snapshot := cascade.StateSnapshot{}
	switch canisterCfg.DirectoryScope {
	case config.DirectoryScopeApp:
		view := o.appDir.Export()
		snapshot.AppDirectory = &view
	case config.DirectoryScopeSubnet:
		view := o.subnetDir.Export()
		snapshot.SubnetDirectory = &view
	}
	if err := o.cascade.CascadeState(ctx, snapshot); err != nil {
		o.log.Error(err, "directory cascade after create failed", "topic", "Sync", "pid", pid.Short())
	}
}

func (o *Orchestrator) upgrade(ctx context.Context, event UpgradeEvent) (Result, error) {
	entry, ok := o.registry.Get(event.Pid)
	if !ok {
		return Result{}, errors.Newf(errors.ErrorTypeConsistency, "canister not found: %s", event.Pid.Short())
	}

	module, err := o.wasms.TryGet(entry.Role)
	if err != nil {
		return Result{}, err
	}

	plan := policy.PlanUpgrade(entry.ModuleHash, module.Hash())
	if !plan.ShouldUpgrade {
		return Result{Pid: event.Pid, Upgraded: false}, nil
	}

	if err := o.mgmt.UpgradeCode(ctx, event.Pid, module); err != nil {
		return Result{}, errors.Wrapf(err, errors.ErrorTypeTransport, "upgrade on %s failed", event.Pid.Short())
	}
	if err := o.registry.UpdateModuleHash(event.Pid, module.Hash()); err != nil {
		return Result{}, err
	}

	o.log.Info("upgraded canister", "topic", "Lifecycle", "pid", event.Pid.Short(), "hash", module.Hash().String())
	return Result{Pid: event.Pid, Upgraded: true}, nil
}

func (o *Orchestrator) delete(ctx context.Context, event DeleteEvent) (Result, error) {
	if _, ok := o.registry.Get(event.Pid); !ok {
		return Result{}, errors.Newf(errors.ErrorTypeConsistency, "canister not found: %s", event.Pid.Short())
	}
	if len(o.registry.Children(event.Pid)) > 0 {
		return Result{}, errors.Newf(errors.ErrorTypeConsistency, "canister %s has children", event.Pid.Short())
	}

	if err := o.mgmt.DeleteCanister(ctx, event.Pid); err != nil {
		return Result{}, errors.Wrapf(err, errors.ErrorTypeTransport, "delete of %s failed", event.Pid.Short())
	}
	if err := o.registry.Remove(event.Pid); err != nil {
		return Result{}, err
	}

	o.log.Info("deleted canister", "topic", "Lifecycle", "pid", event.Pid.Short())
	if err := o.cascade.CascadeTopologySubtree(ctx); err != nil {
		o.log.Error(err, "topology cascade after delete failed", "topic", "Sync")
	}
	return Result{Pid: event.Pid}, nil
}

// controllers returns the configured controller set plus root, deduplicated.
func (o *Orchestrator) controllers() []types.Principal {
	root := o.registry.Root()
	out := make([]types.Principal, 0, len(o.cfg.Controllers)+1)
	seen := map[types.Principal]bool{}
	for _, controller := range append([]types.Principal{}, o.cfg.Controllers...) {
		if !seen[controller] {
			seen[controller] = true
			out = append(out, controller)
		}
	}
	if !seen[root] {
		out = append(out, root)
	}
	return out
}

func (o *Orchestrator) initPayload(event CreateEvent) ([]byte, error) {
	rootEnv := o.env.Get()
	role := event.Role
	parent := event.Parent
	childEnv := state.Env{
		PrimeRootPid: rootEnv.PrimeRootPid,
		SubnetRole:   rootEnv.SubnetRole,
		SubnetPid:    rootEnv.SubnetPid,
		RootPid:      rootEnv.RootPid,
		CanisterRole: &role,
		ParentPid:    &parent,
	}

	payload := abi.CanisterInitPayload{
		Env:             childEnv,
		AppDirectory:    o.appDir.Export(),
		SubnetDirectory: o.subnetDir.Export(),
		Extra:           event.Extra,
	}
	return payload.Encode()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
