// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/types"
)

// Request is the tagged orchestration request variant. Exactly one arm is
// set. Unknown fields are ignored on decode so additions stay
// backwards-compatible.
type Request struct {
	CreateCanister  *CreateCanisterRequest  `json:"create_canister,omitempty"`
	UpgradeCanister *UpgradeCanisterRequest `json:"upgrade_canister,omitempty"`
	Cycles          *CyclesRequest          `json:"cycles,omitempty"`
}

// Validate checks that exactly one arm is set.
func (r Request) Validate() error {
	count := 0
	if r.CreateCanister != nil {
		count++
	}
	if r.UpgradeCanister != nil {
		count++
	}
	if r.Cycles != nil {
		count++
	}
	if count != 1 {
		return errors.Newf(errors.ErrorTypeValidation, "request must carry exactly one variant, got %d", count)
	}
	return nil
}

// CreateCanisterRequest asks root to provision a new child for the caller.
type CreateCanisterRequest struct {
	Role  types.CanisterRole `json:"role"`
	Extra []byte             `json:"extra,omitempty"`
}

// UpgradeCanisterRequest asks root to upgrade one of the caller's children.
type UpgradeCanisterRequest struct {
	Pid types.Principal `json:"pid"`
}

// CyclesRequest asks root for a cycle deposit.
type CyclesRequest struct {
	Amount types.Cycles `json:"amount"`
}

// Response is the tagged orchestration response. The set arm matches the
// request variant.
type Response struct {
	CreateCanister  *CreateCanisterResponse  `json:"create_canister,omitempty"`
	UpgradeCanister *UpgradeCanisterResponse `json:"upgrade_canister,omitempty"`
	Cycles          *CyclesResponse          `json:"cycles,omitempty"`
}

// CreateCanisterResponse returns the provisioned principal.
type CreateCanisterResponse struct {
	Pid types.Principal `json:"pid"`
}

// UpgradeCanisterResponse acknowledges an upgrade.
type UpgradeCanisterResponse struct{}

// CyclesResponse returns the deposited amount.
type CyclesResponse struct {
	Deposited types.Cycles `json:"deposited"`
}

// envelope is the wire frame of every RPC result.
type envelope[T any] struct {
	Ok  *T                  `json:"ok,omitempty"`
	Err *errors.PublicError `json:"err,omitempty"`
}
