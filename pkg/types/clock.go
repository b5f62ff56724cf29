// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package types

import "time"

// NowFunc returns the current time in seconds since epoch. On the real
// platform this reads replicated time; tests substitute a fixed clock.
type NowFunc func() uint64

// WallClock reads the host clock.
func WallClock() uint64 {
	return uint64(time.Now().Unix())
}

// FixedClock returns a NowFunc that always reports the given instant.
func FixedClock(now uint64) NowFunc {
	return func() uint64 { return now }
}
