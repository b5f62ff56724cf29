// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package canister

import (
	"github.com/go-logr/logr"

	"github.com/canic-io/canic/pkg/abi"
	"github.com/canic-io/canic/pkg/apis/config"
	"github.com/canic-io/canic/pkg/rpc"
	"github.com/canic-io/canic/pkg/types"
)

// ReplicaInstallHook boots a replica node whenever code lands on a fresh
// canister: it decodes the init payload, seeds the node and returns it as the
// canister's dispatcher. The simulator and integration-style tests plug this
// into the local platform.
func ReplicaInstallHook(log logr.Logger, cfg *config.Config, transport rpc.Transport, now types.NowFunc) func(types.Principal, types.WasmModule, []byte) (rpc.Handler, error) {
	return func(pid types.Principal, _ types.WasmModule, initArg []byte) (rpc.Handler, error) {
		payload, err := abi.DecodeInitPayload(initArg)
		if err != nil {
			return nil, err
		}

		node := NewNode(log, cfg, pid, transport, now)
		if err := node.ApplyInitPayload(payload); err != nil {
			return nil, err
		}
		return node, nil
	}
}
