// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package canister

import (
	"time"

	"github.com/canic-io/canic/pkg/types"
)

// Scheduling cadences for the periodic node workflows. Hosts drive these with
// their timer facility; the values are part of the public contract so
// operators can reason about staleness.
const (
	// WorkflowInitDelay lets init work settle before the first timer fires.
	WorkflowInitDelay = 10 * time.Second

	// WorkflowCycleTrackInterval is the cycle sampling cadence.
	WorkflowCycleTrackInterval = 10 * time.Minute

	// WorkflowLogRetentionInterval is the log pruning cadence.
	WorkflowLogRetentionInterval = 10 * time.Minute

	// WorkflowPoolInitDelay delays the first pool check after startup.
	WorkflowPoolInitDelay = 30 * time.Second

	// WorkflowPoolCheckInterval is the pool scale-out check cadence.
	WorkflowPoolCheckInterval = 30 * time.Minute
)

// TrackCycles samples this node's balance into the cycle tracker. Intended to
// run on the WorkflowCycleTrackInterval cadence.
func (n *Node) TrackCycles(balance types.Cycles) {
	n.tracker.Record(n.now(), balance)
}

// PruneLogs applies log retention. Intended to run on the
// WorkflowLogRetentionInterval cadence.
func (n *Node) PruneLogs() int {
	return n.logStore.Prune(n.now())
}

// PurgeCycleSamples drops expired cycle samples. Intended to run alongside
// TrackCycles.
func (n *Node) PurgeCycleSamples() int {
	return n.tracker.Purge(n.now())
}
