// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/memory"
	"github.com/canic-io/canic/pkg/types"
)

// Entry maps one role to the principal serving it.
type Entry struct {
	Role types.CanisterRole `json:"role"`
	Pid  types.Principal    `json:"pid"`
}

// View is the ordered snapshot form of a directory, as carried in cascades
// and init payloads.
type View []Entry

// Validate rejects views that list the same role more than once.
func (v View) Validate() error {
	seen := sets.New[types.CanisterRole]()
	for _, entry := range v {
		if seen.Has(entry.Role) {
			return errors.Newf(errors.ErrorTypeValidation, "duplicate role in directory: %s", entry.Role)
		}
		seen.Insert(entry.Role)
	}
	return nil
}

// Lookup returns the principal for a role within the view.
func (v View) Lookup(role types.CanisterRole) (types.Principal, bool) {
	for _, entry := range v {
		if entry.Role == role {
			return entry.Pid, true
		}
	}
	return types.NilPrincipal, false
}

// Store persists one directory projection. Root derives its content from the
// registry; replicas import views received via cascade.
type Store struct {
	cell *memory.Cell[View]
}

// NewStore binds a directory to the given memory slot.
func NewStore(backend memory.Backend, id memory.ID) *Store {
	return &Store{cell: memory.NewCell[View](backend, id)}
}

// Import validates and replaces the directory content. A view with a
// duplicated role is rejected untouched.
func (s *Store) Import(view View) error {
	if err := view.Validate(); err != nil {
		return err
	}

	// Copy so later caller mutations cannot leak into the store.
	stored := make(View, len(view))
	copy(stored, view)
	s.cell.Set(stored)
	return nil
}

// Export returns the current view.
func (s *Store) Export() View {
	return s.cell.Get()
}

// Lookup returns the principal registered for a role.
func (s *Store) Lookup(role types.CanisterRole) (types.Principal, bool) {
	return s.cell.Get().Lookup(role)
}

// Len returns the number of directory entries.
func (s *Store) Len() int {
	return len(s.cell.Get())
}
