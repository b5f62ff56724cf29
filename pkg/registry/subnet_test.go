// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package registry_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/memory"
	"github.com/canic-io/canic/pkg/registry"
	"github.com/canic-io/canic/pkg/types"
)

var _ = Describe("SubnetRegistry", func() {
	var (
		reg  *registry.SubnetRegistry
		root = types.PrincipalFromSeed("registry/root")
		a    = types.PrincipalFromSeed("registry/a")
		b    = types.PrincipalFromSeed("registry/b")
		x    = types.PrincipalFromSeed("registry/x")
		y    = types.PrincipalFromSeed("registry/y")
	)

	entryOf := func(pid types.Principal, role string, parent types.Principal) registry.CanisterEntry {
		return registry.CanisterEntry{
			Pid:       pid,
			Role:      types.CanisterRole(role),
			ParentPid: &parent,
			CreatedAt: 100,
		}
	}

	BeforeEach(func() {
		reg = registry.NewSubnetRegistry(memory.NewHeapBackend(), 0, root)
	})

	Describe("#Insert", func() {
		It("should accept children of root", func() {
			Expect(reg.Insert(entryOf(a, "app", root))).To(Succeed())
			Expect(reg.Len()).To(Equal(1))
		})

		It("should accept children of registered parents", func() {
			Expect(reg.Insert(entryOf(a, "app", root))).To(Succeed())
			Expect(reg.Insert(entryOf(b, "worker", a))).To(Succeed())
		})

		It("should reject duplicate principals", func() {
			Expect(reg.Insert(entryOf(a, "app", root))).To(Succeed())

			err := reg.Insert(entryOf(a, "app", root))
			Expect(err).To(HaveOccurred())
			Expect(errors.IsType(err, errors.ErrorTypeConsistency)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("already registered"))
		})

		It("should reject an absent parent and leave the registry unchanged", func() {
			err := reg.Insert(entryOf(x, "app", y))
			Expect(err).To(HaveOccurred())
			Expect(errors.IsType(err, errors.ErrorTypeConsistency)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("parent not found"))
			Expect(reg.Len()).To(BeZero())
		})
	})

	Describe("forest invariants", func() {
		BeforeEach(func() {
			Expect(reg.Insert(entryOf(a, "app", root))).To(Succeed())
			Expect(reg.Insert(entryOf(b, "worker", a))).To(Succeed())
			Expect(reg.Insert(entryOf(x, "worker", a))).To(Succeed())
		})

		It("should resolve every parent to root or a registered entry", func() {
			for _, entry := range reg.Export() {
				Expect(entry.ParentPid).NotTo(BeNil())
				if *entry.ParentPid != root {
					_, ok := reg.Get(*entry.ParentPid)
					Expect(ok).To(BeTrue())
				}
			}
		})

		It("should keep the parent relation acyclic", func() {
			for _, entry := range reg.Export() {
				seen := map[types.Principal]bool{entry.Pid: true}
				current := entry
				for current.ParentPid != nil && *current.ParentPid != root {
					parent, ok := reg.Get(*current.ParentPid)
					Expect(ok).To(BeTrue())
					Expect(seen[parent.Pid]).To(BeFalse())
					seen[parent.Pid] = true
					current = parent
				}
			}
		})
	})

	Describe("#Remove", func() {
		BeforeEach(func() {
			Expect(reg.Insert(entryOf(a, "app", root))).To(Succeed())
			Expect(reg.Insert(entryOf(b, "worker", a))).To(Succeed())
		})

		It("should refuse to remove an entry with children", func() {
			err := reg.Remove(a)
			Expect(err).To(HaveOccurred())
			Expect(errors.IsType(err, errors.ErrorTypeConsistency)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("has children"))
			Expect(reg.Len()).To(Equal(2))
		})

		It("should remove leaves bottom-up", func() {
			Expect(reg.Remove(b)).To(Succeed())
			Expect(reg.Remove(a)).To(Succeed())
			Expect(reg.Len()).To(BeZero())
		})
	})

	Describe("#UpdateModuleHash", func() {
		var hash types.ModuleHash

		BeforeEach(func() {
			hash[0] = 7
			Expect(reg.Insert(entryOf(a, "app", root))).To(Succeed())
		})

		It("should record the hash", func() {
			Expect(reg.UpdateModuleHash(a, hash)).To(Succeed())

			entry, ok := reg.Get(a)
			Expect(ok).To(BeTrue())
			Expect(entry.ModuleHash).To(HaveValue(Equal(hash)))
		})

		It("should be an idempotent no-op for an unchanged hash", func() {
			Expect(reg.UpdateModuleHash(a, hash)).To(Succeed())

			changes := 0
			reg.OnChange(func([]registry.CanisterEntry) { changes++ })
			Expect(reg.UpdateModuleHash(a, hash)).To(Succeed())
			Expect(changes).To(BeZero())
		})

		It("should fail for unknown canisters", func() {
			Expect(reg.UpdateModuleHash(y, hash)).NotTo(Succeed())
		})
	})

	Describe("#Children", func() {
		It("should return direct children ordered by principal", func() {
			Expect(reg.Insert(entryOf(a, "app", root))).To(Succeed())
			Expect(reg.Insert(entryOf(b, "worker", a))).To(Succeed())
			Expect(reg.Insert(entryOf(x, "worker", a))).To(Succeed())

			children := reg.Children(a)
			Expect(children).To(HaveLen(2))
			Expect(children[0].Pid.Compare(children[1].Pid)).To(Equal(-1))
		})
	})

	Describe("#ParentChain", func() {
		It("should walk from the first hop down to the target", func() {
			Expect(reg.Insert(entryOf(a, "app", root))).To(Succeed())
			Expect(reg.Insert(entryOf(b, "worker", a))).To(Succeed())

			chain, err := reg.ParentChain(b)
			Expect(err).NotTo(HaveOccurred())
			Expect(chain).To(HaveLen(2))
			Expect(chain[0].Pid).To(Equal(a))
			Expect(chain[1].Pid).To(Equal(b))
		})
	})

	Describe("#OnChange", func() {
		It("should run on every mutation with the current snapshot", func() {
			var snapshots [][]registry.CanisterEntry
			reg.OnChange(func(entries []registry.CanisterEntry) {
				snapshots = append(snapshots, entries)
			})

			Expect(reg.Insert(entryOf(a, "app", root))).To(Succeed())
			Expect(reg.Remove(a)).To(Succeed())

			Expect(snapshots).To(HaveLen(2))
			Expect(snapshots[0]).To(HaveLen(1))
			Expect(snapshots[1]).To(BeEmpty())
		})
	})
})
