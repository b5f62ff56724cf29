// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package local is an in-process platform implementation. The simulator runs
// whole fleets on it, and tests use it as their platform double: every call
// is recorded and can be asserted on.
package local

import (
	"context"
	"sync"

	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/platform"
	"github.com/canic-io/canic/pkg/rpc"
	"github.com/canic-io/canic/pkg/types"
)

// CallRecord is one observed cross-canister call.
type CallRecord struct {
	Caller types.Principal
	Callee types.Principal
	Method string
}

// InstallHook is invoked when code lands on a canister. Returning a handler
// attaches it as the canister's dispatcher, which is how the simulator boots
// child nodes.
type InstallHook func(pid types.Principal, module types.WasmModule, initArg []byte) (rpc.Handler, error)

type canisterState struct {
	controllers []types.Principal
	cycles      types.Cycles
	moduleHash  *types.ModuleHash
	handler     rpc.Handler
}

// Platform is the local in-memory platform. It implements both the
// management surface and the call transport.
type Platform struct {
	mu          sync.Mutex
	canisters   map[types.Principal]*canisterState
	calls       []CallRecord
	upgrades    []types.Principal
	installHook InstallHook
	failCalls   map[types.Principal]error
}

var (
	_ platform.Management = &Platform{}
	_ rpc.Transport       = &Platform{}
	_ platform.Factory    = &Platform{}
)

// New returns an empty local platform.
func New() *Platform {
	return &Platform{
		canisters: map[types.Principal]*canisterState{},
		failCalls: map[types.Principal]error{},
	}
}

// Management implements platform.Factory.
func (p *Platform) Management() (platform.Management, error) {
	return p, nil
}

// Transport implements platform.Factory.
func (p *Platform) Transport() rpc.Transport {
	return p
}

// SetInstallHook installs the boot hook for newly installed canisters.
func (p *Platform) SetInstallHook(hook InstallHook) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.installHook = hook
}

// RegisterNode attaches an existing principal and dispatcher, bypassing
// provisioning. Used to seed the root node and fixed test topologies.
func (p *Platform) RegisterNode(pid types.Principal, handler rpc.Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.canisters[pid]
	if !ok {
		state = &canisterState{}
		p.canisters[pid] = state
	}
	state.handler = handler
}

// FailCallsTo makes every call to pid fail with err until cleared with a nil
// err. Simulates partitioned or stopped canisters.
func (p *Platform) FailCallsTo(pid types.Principal, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err == nil {
		delete(p.failCalls, pid)
		return
	}
	p.failCalls[pid] = err
}

// CreateCanister implements platform.Management.
func (p *Platform) CreateCanister(_ context.Context, opts platform.ProvisionOpts) (types.Principal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pid := types.NewPrincipal()
	p.canisters[pid] = &canisterState{
		controllers: opts.Controllers,
		cycles:      opts.Cycles,
	}
	return pid, nil
}

// InstallCode implements platform.Management.
func (p *Platform) InstallCode(_ context.Context, pid types.Principal, module types.WasmModule, initArg []byte) error {
	p.mu.Lock()
	state, ok := p.canisters[pid]
	hook := p.installHook
	p.mu.Unlock()

	if !ok {
		return errors.Newf(errors.ErrorTypeTransport, "no such canister: %s", pid.Short())
	}

	var handler rpc.Handler
	if hook != nil {
		booted, err := hook(pid, module, initArg)
		if err != nil {
			return err
		}
		handler = booted
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	hash := module.Hash()
	state.moduleHash = &hash
	if handler != nil {
		state.handler = handler
	}
	return nil
}

// UpgradeCode implements platform.Management.
func (p *Platform) UpgradeCode(_ context.Context, pid types.Principal, module types.WasmModule) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.canisters[pid]
	if !ok {
		return errors.Newf(errors.ErrorTypeTransport, "no such canister: %s", pid.Short())
	}
	hash := module.Hash()
	state.moduleHash = &hash
	p.upgrades = append(p.upgrades, pid)
	return nil
}

// Upgrades returns the principals UpgradeCode was invoked on, in order.
func (p *Platform) Upgrades() []types.Principal {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]types.Principal, len(p.upgrades))
	copy(out, p.upgrades)
	return out
}

// DeleteCanister implements platform.Management.
func (p *Platform) DeleteCanister(_ context.Context, pid types.Principal) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.canisters[pid]; !ok {
		return errors.Newf(errors.ErrorTypeTransport, "no such canister: %s", pid.Short())
	}
	delete(p.canisters, pid)
	return nil
}

// CanisterStatus implements platform.Management.
func (p *Platform) CanisterStatus(_ context.Context, pid types.Principal) (platform.Status, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.canisters[pid]
	if !ok {
		return platform.Status{}, errors.Newf(errors.ErrorTypeTransport, "no such canister: %s", pid.Short())
	}
	return platform.Status{Cycles: state.cycles, ModuleHash: state.moduleHash}, nil
}

// DepositCycles implements platform.Management.
func (p *Platform) DepositCycles(_ context.Context, pid types.Principal, amount types.Cycles) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.canisters[pid]
	if !ok {
		return errors.Newf(errors.ErrorTypeTransport, "no such canister: %s", pid.Short())
	}
	state.cycles += amount
	return nil
}

// Call implements rpc.Transport. Calls are dispatched synchronously, which
// preserves per-pair causal order.
func (p *Platform) Call(ctx context.Context, caller, callee types.Principal, method string, payload []byte) ([]byte, error) {
	p.mu.Lock()
	p.calls = append(p.calls, CallRecord{Caller: caller, Callee: callee, Method: method})
	if err, failing := p.failCalls[callee]; failing {
		p.mu.Unlock()
		return nil, err
	}
	state, ok := p.canisters[callee]
	var handler rpc.Handler
	if ok {
		handler = state.handler
	}
	p.mu.Unlock()

	if handler == nil {
		return nil, errors.Newf(errors.ErrorTypeTransport, "call failed: no canister listening on %s", callee.Short())
	}
	return handler.Handle(ctx, caller, method, payload)
}

// Calls returns every recorded call in order.
func (p *Platform) Calls() []CallRecord {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]CallRecord, len(p.calls))
	copy(out, p.calls)
	return out
}

// CallsTo returns the recorded calls for one method.
func (p *Platform) CallsTo(method string) []CallRecord {
	var out []CallRecord
	for _, call := range p.Calls() {
		if call.Method == method {
			out = append(out, call)
		}
	}
	return out
}

// ResetCalls clears the call log.
func (p *Platform) ResetCalls() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = nil
}

// Controllers returns the controller set recorded for pid.
func (p *Platform) Controllers(pid types.Principal) []types.Principal {
	p.mu.Lock()
	defer p.mu.Unlock()

	if state, ok := p.canisters[pid]; ok {
		return state.controllers
	}
	return nil
}
