// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ModuleHashLength is the byte length of a module digest.
const ModuleHashLength = sha256.Size

// ModuleHash is the sha256 digest of an installed wasm module.
type ModuleHash [ModuleHashLength]byte

// ParseModuleHash parses the hex form of a module hash.
func ParseModuleHash(s string) (ModuleHash, error) {
	var h ModuleHash
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != ModuleHashLength {
		return h, fmt.Errorf("invalid module hash %q", s)
	}
	copy(h[:], raw)
	return h, nil
}

func (h ModuleHash) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalText implements encoding.TextMarshaler.
func (h ModuleHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *ModuleHash) UnmarshalText(text []byte) error {
	parsed, err := ParseModuleHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// WasmModule is an immutable handle on embedded module bytes. The digest is
// computed once at construction so repeated hash lookups stay cheap.
type WasmModule struct {
	bytes []byte
	hash  ModuleHash
}

// NewWasmModule wraps the given module bytes. The caller must not mutate the
// slice afterwards.
func NewWasmModule(bytes []byte) WasmModule {
	return WasmModule{
		bytes: bytes,
		hash:  sha256.Sum256(bytes),
	}
}

// Bytes returns the raw module bytes.
func (w WasmModule) Bytes() []byte {
	return w.bytes
}

// Hash returns the sha256 digest of the module bytes.
func (w WasmModule) Hash() ModuleHash {
	return w.hash
}

// Len returns the module size in bytes.
func (w WasmModule) Len() int {
	return len(w.bytes)
}

// IsEmpty reports whether the handle carries no module bytes.
func (w WasmModule) IsEmpty() bool {
	return len(w.bytes) == 0
}
