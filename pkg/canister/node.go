// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package canister assembles stores, engines and RPC dispatch into runnable
// nodes: Node is the replica side present on every canister, Root adds the
// authoritative registries and orchestration.
package canister

import (
	"context"
	"encoding/json"

	"github.com/go-logr/logr"

	"github.com/canic-io/canic/pkg/abi"
	"github.com/canic-io/canic/pkg/apis/config"
	"github.com/canic-io/canic/pkg/controller/cascade"
	"github.com/canic-io/canic/pkg/cycles"
	"github.com/canic-io/canic/pkg/directory"
	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/logging"
	"github.com/canic-io/canic/pkg/memory"
	"github.com/canic-io/canic/pkg/metrics"
	"github.com/canic-io/canic/pkg/rpc"
	"github.com/canic-io/canic/pkg/state"
	"github.com/canic-io/canic/pkg/types"
)

// Node is the replica side of a canister: environment, app mode, directory
// replicas, child set, log store and cascade import. Root embeds it.
type Node struct {
	log     logr.Logger
	cfg     *config.Config
	backend memory.Backend
	memreg  *memory.Registry

	env       *state.EnvStore
	appMode   *state.AppModeStore
	appDir    *directory.Store
	subnetDir *directory.Store
	children  *state.ChildStore
	logStore  *logging.Store
	tracker   *cycles.Tracker

	client   *rpc.Client
	importer *cascade.Importer
	now      types.NowFunc
}

// NewNode wires a replica node. The memory-id registry is populated here, at
// static initialization, and eagerly initialized before any entry point runs.
func NewNode(log logr.Logger, cfg *config.Config, self types.Principal, transport rpc.Transport, now types.NowFunc) *Node {
	backend := memory.NewHeapBackend()
	memreg := memory.NewRegistry()

	envID := memreg.Allocate("canic", "env")
	appModeID := memreg.Allocate("canic", "app_mode")
	appDirID := memreg.Allocate("canic", "app_directory")
	subnetDirID := memreg.Allocate("canic", "subnet_directory")
	childrenID := memreg.Allocate("canic", "children")
	logID := memreg.Allocate("canic", "log")
	cyclesID := memreg.Allocate("canic", "cycle_tracker")

	node := &Node{
		log:       log,
		cfg:       cfg,
		backend:   backend,
		memreg:    memreg,
		env:       state.NewEnvStore(backend, envID, self),
		appMode:   state.NewAppModeStore(backend, appModeID),
		appDir:    directory.NewStore(backend, appDirID),
		subnetDir: directory.NewStore(backend, subnetDirID),
		children:  state.NewChildStore(backend, childrenID),
		tracker:   cycles.NewTracker(backend, cyclesID),
		now:       now,
	}
	node.logStore = logging.NewStore(backend, logID, logging.RetentionParams{
		MaxEntries:    cfg.Log.MaxEntries,
		MaxEntryBytes: cfg.Log.MaxEntryBytes,
		MaxAgeSecs:    maxAge(cfg.Log),
	}, now)

	// Everything logged through this node also lands in the persisted log
	// store, so cascade failures remain inspectable on the canister itself.
	node.log = logging.TeeToStore(log, node.logStore)

	memreg.OnInit(func() {
		node.env.Get()
		node.appMode.Get()
		node.appDir.Export()
		node.subnetDir.Export()
	})
	memreg.Init()

	node.client = rpc.NewClient(self, transport)
	node.importer = cascade.NewImporter(node.log, node.client, node.env, node.appMode, node.appDir, node.subnetDir, node.children)
	return node
}

func maxAge(cfg config.LogConfig) uint64 {
	if cfg.MaxAgeSecs == nil {
		return 0
	}
	return *cfg.MaxAgeSecs
}

// ApplyInitPayload seeds the node from the install payload.
func (n *Node) ApplyInitPayload(payload abi.CanisterInitPayload) error {
	n.env.Import(payload.Env)
	if err := n.appDir.Import(payload.AppDirectory); err != nil {
		return err
	}
	return n.subnetDir.Import(payload.SubnetDirectory)
}

// Self returns this node's principal.
func (n *Node) Self() types.Principal {
	return n.env.Self()
}

// Env returns the environment store.
func (n *Node) Env() *state.EnvStore {
	return n.env
}

// AppMode returns the app mode store.
func (n *Node) AppMode() *state.AppModeStore {
	return n.appMode
}

// AppDirectory returns the app directory replica.
func (n *Node) AppDirectory() *directory.Store {
	return n.appDir
}

// SubnetDirectory returns the subnet directory replica.
func (n *Node) SubnetDirectory() *directory.Store {
	return n.subnetDir
}

// Children returns the recorded child set.
func (n *Node) Children() *state.ChildStore {
	return n.children
}

// Logs returns the bounded log store.
func (n *Node) Logs() *logging.Store {
	return n.logStore
}

// CycleTracker returns the cycle sample store.
func (n *Node) CycleTracker() *cycles.Tracker {
	return n.tracker
}

// MemoryRegistry exposes the memory-id allocations for introspection.
func (n *Node) MemoryRegistry() []memory.RegistryEntry {
	return n.memreg.Export()
}

// Client returns this node's RPC client.
func (n *Node) Client() *rpc.Client {
	return n.client
}

// Handle implements rpc.Handler for the replica methods. Snapshots are only
// accepted from this node's recorded parent or the subnet root.
func (n *Node) Handle(ctx context.Context, caller types.Principal, method string, payload []byte) ([]byte, error) {
	metrics.RPCCall(method)

	switch method {
	case rpc.MethodSyncState:
		return n.handleSyncState(ctx, caller, payload)
	case rpc.MethodSyncTopology:
		return n.handleSyncTopology(ctx, caller, payload)
	case rpc.MethodResponse:
		return rpc.EncodeResult(nil, errors.New(errors.ErrorTypeAccess, "orchestration requests are served by root only"))
	default:
		return rpc.EncodeResult(nil, errors.Newf(errors.ErrorTypeValidation, "unknown method %q", method))
	}
}

func (n *Node) handleSyncState(ctx context.Context, caller types.Principal, payload []byte) ([]byte, error) {
	if err := n.requireUpstream(caller); err != nil {
		return rpc.EncodeResult(nil, err)
	}

	var snapshot cascade.StateSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return rpc.EncodeResult(nil, errors.Wrap(err, errors.ErrorTypeTransport, "cannot decode state snapshot"))
	}

	n.record(logging.TopicSync, "state snapshot received")
	return rpc.EncodeResult(nil, n.importer.ImportState(ctx, snapshot))
}

func (n *Node) handleSyncTopology(ctx context.Context, caller types.Principal, payload []byte) ([]byte, error) {
	if err := n.requireUpstream(caller); err != nil {
		return rpc.EncodeResult(nil, err)
	}

	var snapshot cascade.TopologySnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return rpc.EncodeResult(nil, errors.Wrap(err, errors.ErrorTypeTransport, "cannot decode topology snapshot"))
	}

	n.record(logging.TopicSync, "topology snapshot received")
	return rpc.EncodeResult(nil, n.importer.ImportTopology(ctx, snapshot))
}

// requireUpstream accepts the recorded parent and the subnet root as cascade
// senders.
func (n *Node) requireUpstream(caller types.Principal) error {
	if parent, ok := n.env.ParentPid(); ok && caller == parent {
		return nil
	}
	if root, ok := n.env.RootPid(); ok && caller == root {
		return nil
	}
	metrics.AccessFailure(metrics.AccessMetricGuard)
	return errors.Newf(errors.ErrorTypeAccess, "caller %s is neither parent nor root", caller.Short())
}

func (n *Node) record(topic logging.Topic, message string) {
	n.logStore.Append("canic", logging.LevelInfo, &topic, message)
}
