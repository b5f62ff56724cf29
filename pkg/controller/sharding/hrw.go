// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package sharding

import (
	"github.com/cespare/xxhash/v2"

	"github.com/canic-io/canic/pkg/types"
)

// weight scores a (tenant, shard) pair. xxhash is a stable 64-bit hash, so
// the score is identical across nodes and across restarts.
func weight(tenant string, shard types.Principal) uint64 {
	digest := xxhash.New()
	_, _ = digest.WriteString(tenant)
	_, _ = digest.Write(shard[:])
	return digest.Sum64()
}

// selectShard picks the highest-random-weight shard for the tenant. Ties are
// broken by principal byte order, lower first. Adding or removing one shard
// moves only the tenants whose argmax changed, ~1/N of them.
func selectShard(tenant string, shards []types.Principal) (types.Principal, bool) {
	if len(shards) == 0 {
		return types.NilPrincipal, false
	}

	best := shards[0]
	bestWeight := weight(tenant, best)
	for _, shard := range shards[1:] {
		w := weight(tenant, shard)
		if w > bestWeight || (w == bestWeight && shard.Compare(best) < 0) {
			best = shard
			bestWeight = w
		}
	}
	return best, true
}
