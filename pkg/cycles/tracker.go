// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package cycles

import (
	"fmt"
	"sync"

	"github.com/canic-io/canic/pkg/memory"
	"github.com/canic-io/canic/pkg/policy"
	"github.com/canic-io/canic/pkg/types"
)

// Sample is one observed cycle balance.
type Sample struct {
	Timestamp uint64       `json:"timestamp"`
	Cycles    types.Cycles `json:"cycles"`
}

// Tracker retains cycle balance samples for the retention window so top-up
// policies and operators can inspect recent consumption.
type Tracker struct {
	mu      sync.Mutex
	samples *memory.Map[uint64, Sample]
}

// NewTracker binds the tracker to the given memory slot.
func NewTracker(backend memory.Backend, id memory.ID) *Tracker {
	return &Tracker{
		samples: memory.NewMap[uint64, Sample](backend, id, tsKey),
	}
}

func tsKey(ts uint64) string {
	return fmt.Sprintf("%020d", ts)
}

// Record stores a sample at the given time. A second sample within the same
// second replaces the first.
func (t *Tracker) Record(now uint64, balance types.Cycles) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples.Set(now, Sample{Timestamp: now, Cycles: balance})
}

// Purge drops samples older than the retention cutoff and returns how many
// were removed.
func (t *Tracker) Purge(now uint64) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := policy.RetentionCutoff(now)

	var drop []uint64
	t.samples.Range(func(ts uint64, _ Sample) bool {
		if ts < cutoff {
			drop = append(drop, ts)
		}
		return true
	})
	for _, ts := range drop {
		t.samples.Delete(ts)
	}
	return len(drop)
}

// Snapshot purges expired samples as of now, then returns the retained ones
// in timestamp order. Expired entries are never visible to queries.
func (t *Tracker) Snapshot(now uint64) []Sample {
	t.Purge(now)

	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Sample
	t.samples.Range(func(_ uint64, sample Sample) bool {
		out = append(out, sample)
		return true
	})
	return out
}
