// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package types_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canic-io/canic/pkg/types"
)

var _ = Describe("Principal", func() {
	It("should derive stable principals from seeds", func() {
		a := types.PrincipalFromSeed("node-1")
		b := types.PrincipalFromSeed("node-1")
		c := types.PrincipalFromSeed("node-2")

		Expect(a).To(Equal(b))
		Expect(a).NotTo(Equal(c))
		Expect(a.IsNil()).To(BeFalse())
	})

	It("should round-trip through the textual form", func() {
		in := types.PrincipalFromSeed("round-trip")
		out, err := types.ParsePrincipal(in.String())
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(in))
	})

	It("should reject text of the wrong length", func() {
		_, err := types.ParsePrincipal("abcdef")
		Expect(err).To(MatchError(ContainSubstring("29")))
	})

	It("should reject non-hex text", func() {
		_, err := types.ParsePrincipal("zz")
		Expect(err).To(HaveOccurred())
	})

	It("should mint unique principals", func() {
		Expect(types.NewPrincipal()).NotTo(Equal(types.NewPrincipal()))
	})

	It("should sort by raw byte order", func() {
		a := types.Principal{1}
		b := types.Principal{2}
		c := types.Principal{0, 255}

		pids := []types.Principal{b, a, c}
		types.SortPrincipals(pids)
		Expect(pids).To(Equal([]types.Principal{c, a, b}))
	})
})
