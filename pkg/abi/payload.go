// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package abi holds the wire shapes exchanged with canister install hooks.
package abi

import (
	"encoding/json"

	"github.com/canic-io/canic/pkg/directory"
	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/state"
)

// CanisterInitPayload is delivered to a newly installed child. It seeds the
// child's environment and directory replicas before the first cascade
// arrives.
type CanisterInitPayload struct {
	Env             state.Env      `json:"env"`
	AppDirectory    directory.View `json:"app_directory"`
	SubnetDirectory directory.View `json:"subnet_directory"`
	Extra           []byte         `json:"extra,omitempty"`
}

// Encode renders the payload in its wire form.
func (p CanisterInitPayload) Encode() ([]byte, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeTransport, "cannot encode init payload")
	}
	return raw, nil
}

// DecodeInitPayload parses an init payload. Unknown fields are ignored so
// newer roots can install older children.
func DecodeInitPayload(raw []byte) (CanisterInitPayload, error) {
	var payload CanisterInitPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return CanisterInitPayload{}, errors.Wrap(err, errors.ErrorTypeTransport, "cannot decode init payload")
	}
	return payload, nil
}
