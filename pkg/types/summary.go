// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package types

// CanisterSummary is the minimal description of a canister as carried in
// topology snapshots and child sets.
type CanisterSummary struct {
	Pid       Principal    `json:"pid"`
	Role      CanisterRole `json:"role"`
	ParentPid *Principal   `json:"parent_pid,omitempty"`
}
