// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package platform

import (
	"context"

	"github.com/canic-io/canic/pkg/rpc"
	"github.com/canic-io/canic/pkg/types"
)

// ProvisionOpts configure a new canister.
type ProvisionOpts struct {
	// Controllers is the full controller set of the new canister.
	Controllers []types.Principal

	// Cycles is the initial cycle balance transferred from the caller.
	Cycles types.Cycles
}

// Status is the management view of one canister.
type Status struct {
	Cycles     types.Cycles
	ModuleHash *types.ModuleHash
}

// Management is the platform's canister management surface. All operations
// suspend at the call boundary; the platform enforces per-call timeouts and
// returns transport errors on expiry.
type Management interface {
	CreateCanister(ctx context.Context, opts ProvisionOpts) (types.Principal, error)
	InstallCode(ctx context.Context, pid types.Principal, module types.WasmModule, initArg []byte) error
	// UpgradeCode replaces the module while preserving stable state.
	UpgradeCode(ctx context.Context, pid types.Principal, module types.WasmModule) error
	DeleteCanister(ctx context.Context, pid types.Principal) error
	CanisterStatus(ctx context.Context, pid types.Principal) (Status, error)
	DepositCycles(ctx context.Context, pid types.Principal, amount types.Cycles) error
}

// Factory constructs the clients a node needs to talk to its platform.
type Factory interface {
	Management() (Management, error)
	Transport() rpc.Transport
}
