// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package testutil wires throwaway fleets on the local platform for tests.
package testutil

import (
	"github.com/canic-io/canic/pkg/apis/config"
	"github.com/canic-io/canic/pkg/canister"
	"github.com/canic-io/canic/pkg/logging"
	"github.com/canic-io/canic/pkg/platform/local"
	"github.com/canic-io/canic/pkg/rpc"
	"github.com/canic-io/canic/pkg/types"
	"github.com/canic-io/canic/pkg/wasm"
)

// FixedNow is the instant every fixture clock reports.
const FixedNow = uint64(1_700_000_000)

// RootFixture is a root node wired to an in-memory platform.
type RootFixture struct {
	Root     *canister.Root
	Platform *local.Platform
	RootPid  types.Principal
	Wasms    *wasm.Registry

	// Replicas are the booted child nodes, by principal.
	Replicas map[types.Principal]*canister.Node
}

// NewRootFixture boots a root over the local platform. Every configured role
// gets a distinct placeholder module, and installed children come up as
// replica nodes on the same platform.
func NewRootFixture(cfg *config.Config) *RootFixture {
	log := logging.Discard()
	sim := local.New()
	now := types.FixedClock(FixedNow)

	wasms := wasm.NewRegistry()
	for role := range cfg.Canisters {
		wasms.Register(types.CanisterRole(role), types.NewWasmModule([]byte("module:"+role)))
	}

	rootPid := types.PrincipalFromSeed("test/root")
	root, err := canister.NewRoot(canister.RootOptions{
		Log:        log,
		Config:     cfg,
		Self:       rootPid,
		SubnetPid:  types.PrincipalFromSeed("test/subnet"),
		SubnetRole: "prime",
		Factory:    sim,
		Wasms:      wasms,
		Now:        now,
	})
	if err != nil {
		panic(err)
	}

	fixture := &RootFixture{
		Root:     root,
		Platform: sim,
		RootPid:  rootPid,
		Wasms:    wasms,
		Replicas: map[types.Principal]*canister.Node{},
	}

	sim.RegisterNode(rootPid, root)
	boot := canister.ReplicaInstallHook(log, cfg, sim, now)
	sim.SetInstallHook(func(pid types.Principal, module types.WasmModule, initArg []byte) (rpc.Handler, error) {
		handler, err := boot(pid, module, initArg)
		if err != nil {
			return nil, err
		}
		fixture.Replicas[pid] = handler.(*canister.Node)
		return handler, nil
	})

	return fixture
}
