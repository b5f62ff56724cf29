// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package rpc

// Cross-canister RPC method names.
//
// These string values act as a wire protocol. Centralizing them makes it
// harder to accidentally drift between caller and callee when refactoring.
const (
	// MethodResponse is the unified orchestration RPC.
	MethodResponse = "canic_response"

	// MethodSyncState delivers a state snapshot to a child.
	MethodSyncState = "canic_sync_state"

	// MethodSyncTopology delivers a topology snapshot to a child.
	MethodSyncTopology = "canic_sync_topology"
)
