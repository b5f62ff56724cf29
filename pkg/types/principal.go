// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// PrincipalLength is the fixed byte length of every principal on the platform.
const PrincipalLength = 29

// Principal is the unique identifier of any caller or callee on the platform.
// It is a fixed-size value type so it can be used directly as a map key and
// compared with ==.
type Principal [PrincipalLength]byte

// NilPrincipal is the zero principal. It never identifies a real canister.
var NilPrincipal = Principal{}

// ParsePrincipal parses the textual (hex) form of a principal.
func ParsePrincipal(s string) (Principal, error) {
	var p Principal
	raw, err := hex.DecodeString(s)
	if err != nil {
		return NilPrincipal, fmt.Errorf("invalid principal %q: %w", s, err)
	}
	if len(raw) != PrincipalLength {
		return NilPrincipal, fmt.Errorf("invalid principal %q: got %d bytes, want %d", s, len(raw), PrincipalLength)
	}
	copy(p[:], raw)
	return p, nil
}

// MustPrincipal parses the textual form of a principal and panics on error.
// Intended for static initialization and tests.
func MustPrincipal(s string) Principal {
	p, err := ParsePrincipal(s)
	if err != nil {
		panic(err)
	}
	return p
}

// PrincipalFromSeed derives a stable principal from an arbitrary seed string.
// Two calls with the same seed yield the same principal, across nodes and
// across restarts.
func PrincipalFromSeed(seed string) Principal {
	var p Principal
	sum := sha256.Sum256([]byte(seed))
	copy(p[:], sum[:])
	return p
}

// NewPrincipal mints a fresh, unique principal. Only the local platform should
// mint principals; on the real platform they are assigned by the system.
func NewPrincipal() Principal {
	return PrincipalFromSeed(uuid.NewString())
}

// IsNil reports whether p is the zero principal.
func (p Principal) IsNil() bool {
	return p == NilPrincipal
}

// Compare orders principals by raw byte order. It returns -1, 0 or 1.
func (p Principal) Compare(other Principal) int {
	return bytes.Compare(p[:], other[:])
}

// Bytes returns a copy of the raw principal bytes.
func (p Principal) Bytes() []byte {
	out := make([]byte, PrincipalLength)
	copy(out, p[:])
	return out
}

func (p Principal) String() string {
	return hex.EncodeToString(p[:])
}

// Short returns an abbreviated form for log output.
func (p Principal) Short() string {
	return hex.EncodeToString(p[:4])
}

// MarshalText implements encoding.TextMarshaler so principals serialize as
// their textual form, including when used as map keys.
func (p Principal) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Principal) UnmarshalText(text []byte) error {
	parsed, err := ParsePrincipal(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// SortPrincipals sorts the given slice in place by raw byte order.
func SortPrincipals(pids []Principal) {
	slices.SortFunc(pids, Principal.Compare)
}
