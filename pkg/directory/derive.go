// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"slices"

	"github.com/canic-io/canic/pkg/registry"
	"github.com/canic-io/canic/pkg/types"
)

// Derive projects registry entries onto a directory view for the given
// directory-visible roles. Roles appear in the order given; when several
// canisters carry the same role, the oldest one wins so the projection stays
// injective. Roles with no live canister are omitted.
func Derive(entries []registry.CanisterEntry, roles []types.CanisterRole) View {
	var view View
	emitted := map[types.CanisterRole]bool{}
	for _, role := range roles {
		if emitted[role] {
			continue
		}
		emitted[role] = true
		candidates := make([]registry.CanisterEntry, 0, 1)
		for _, entry := range entries {
			if entry.Role == role {
				candidates = append(candidates, entry)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		slices.SortFunc(candidates, func(a, b registry.CanisterEntry) int {
			if a.CreatedAt != b.CreatedAt {
				if a.CreatedAt < b.CreatedAt {
					return -1
				}
				return 1
			}
			return a.Pid.Compare(b.Pid)
		})
		view = append(view, Entry{Role: role, Pid: candidates[0].Pid})
	}
	return view
}
