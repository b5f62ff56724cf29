// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package cascade

import (
	"github.com/canic-io/canic/pkg/directory"
	"github.com/canic-io/canic/pkg/state"
	"github.com/canic-io/canic/pkg/types"
)

// StateSnapshot carries replicated state down a branch. Fields are
// independently optional so partial updates are legal; applying the same
// snapshot twice is idempotent.
type StateSnapshot struct {
	Env             *state.Env      `json:"env,omitempty"`
	AppMode         *state.AppMode  `json:"app_mode,omitempty"`
	AppDirectory    *directory.View `json:"app_directory,omitempty"`
	SubnetDirectory *directory.View `json:"subnet_directory,omitempty"`
}

// IsEmpty reports whether the snapshot carries nothing to apply.
func (s StateSnapshot) IsEmpty() bool {
	return s.Env == nil && s.AppMode == nil && s.AppDirectory == nil && s.SubnetDirectory == nil
}

// TopologyNode is one hop of a trimmed branch: the node itself plus its
// direct children. Siblings and unrelated branches are omitted.
type TopologyNode struct {
	Pid       types.Principal         `json:"pid"`
	Role      types.CanisterRole      `json:"role"`
	ParentPid *types.Principal        `json:"parent_pid,omitempty"`
	Children  []types.CanisterSummary `json:"children,omitempty"`
}

// TopologySnapshot is a trimmed branch of the forest. Chain[0] is the hop the
// snapshot is addressed to; the remainder is the path down to the target.
// Each hop validates its element, imports its child set, and forwards the
// trimmed tail.
type TopologySnapshot struct {
	Chain []TopologyNode `json:"chain"`
}

// Trim strips the leading hop, producing the snapshot for the next hop down.
func (s TopologySnapshot) Trim() TopologySnapshot {
	if len(s.Chain) <= 1 {
		return TopologySnapshot{}
	}
	return TopologySnapshot{Chain: s.Chain[1:]}
}

// IsEmpty reports whether the snapshot has no hops left.
func (s TopologySnapshot) IsEmpty() bool {
	return len(s.Chain) == 0
}
