// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package state

import (
	"fmt"

	"github.com/canic-io/canic/pkg/memory"
)

// AppMode is the canister-global gate consulted by endpoint guards.
type AppMode string

const (
	AppModeEnabled  AppMode = "Enabled"
	AppModeReadonly AppMode = "Readonly"
	AppModeDisabled AppMode = "Disabled"
)

// AppCommand transitions the application mode.
type AppCommand string

const (
	AppCommandStart    AppCommand = "Start"
	AppCommandReadonly AppCommand = "Readonly"
	AppCommandStop     AppCommand = "Stop"
)

// ModeFor maps a command to the mode it puts the application into.
func (c AppCommand) ModeFor() (AppMode, error) {
	switch c {
	case AppCommandStart:
		return AppModeEnabled, nil
	case AppCommandReadonly:
		return AppModeReadonly, nil
	case AppCommandStop:
		return AppModeDisabled, nil
	default:
		return "", fmt.Errorf("unknown app command %q", string(c))
	}
}

// AppModeStore persists the local application mode.
type AppModeStore struct {
	cell *memory.Cell[AppMode]
}

// NewAppModeStore binds the app mode store to the given memory slot.
func NewAppModeStore(backend memory.Backend, id memory.ID) *AppModeStore {
	return &AppModeStore{cell: memory.NewCell[AppMode](backend, id)}
}

// Get returns the current mode. An unset cell reads as Enabled.
func (s *AppModeStore) Get() AppMode {
	mode, ok := s.cell.TryGet()
	if !ok {
		return AppModeEnabled
	}
	return mode
}

// Set replaces the mode.
func (s *AppModeStore) Set(mode AppMode) {
	s.cell.Set(mode)
}

// Apply executes a command against the current mode.
func (s *AppModeStore) Apply(command AppCommand) (AppMode, error) {
	mode, err := command.ModeFor()
	if err != nil {
		return s.Get(), err
	}
	s.cell.Set(mode)
	return mode, nil
}
