// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package canister_test

import (
	"encoding/json"

	. "github.com/onsi/gomega"

	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/rpc"
)

type wireEnvelope struct {
	Ok  *rpc.Response       `json:"ok"`
	Err *errors.PublicError `json:"err"`
}

func encode(req rpc.Request) []byte {
	raw, err := json.Marshal(req)
	Expect(err).NotTo(HaveOccurred())
	return raw
}

func decodeOK(raw []byte) rpc.Response {
	var env wireEnvelope
	Expect(json.Unmarshal(raw, &env)).To(Succeed())
	Expect(env.Err).To(BeNil())
	Expect(env.Ok).NotTo(BeNil())
	return *env.Ok
}

func decodeErr(raw []byte) *errors.PublicError {
	var env wireEnvelope
	Expect(json.Unmarshal(raw, &env)).To(Succeed())
	Expect(env.Err).NotTo(BeNil())
	return env.Err
}
