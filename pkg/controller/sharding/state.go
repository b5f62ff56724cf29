// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package sharding

import (
	"github.com/canic-io/canic/pkg/errors"
)

// ShardLifecycleState is the canonical lifecycle of an HRW-managed shard.
// Transitions are monotonic; a shard never moves backward.
type ShardLifecycleState string

const (
	ShardCreated     ShardLifecycleState = "Created"
	ShardProvisioned ShardLifecycleState = "Provisioned"
	ShardActive      ShardLifecycleState = "Active"
	ShardRetiring    ShardLifecycleState = "Retiring"
	ShardRevoked     ShardLifecycleState = "Revoked"
)

var shardStateRank = map[ShardLifecycleState]int{
	ShardCreated:     0,
	ShardProvisioned: 1,
	ShardActive:      2,
	ShardRetiring:    3,
	ShardRevoked:     4,
}

// Validate rejects unknown states.
func (s ShardLifecycleState) Validate() error {
	if _, ok := shardStateRank[s]; !ok {
		return errors.Newf(errors.ErrorTypeValidation, "unknown shard state %q", string(s))
	}
	return nil
}

// CanTransition reports whether moving to next is a forward transition.
func (s ShardLifecycleState) CanTransition(next ShardLifecycleState) bool {
	from, okFrom := shardStateRank[s]
	to, okTo := shardStateRank[next]
	return okFrom && okTo && to > from
}
