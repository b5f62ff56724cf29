// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package memory_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canic-io/canic/pkg/memory"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

var _ = Describe("Store", func() {
	var (
		backend  memory.Backend
		registry *memory.Registry
	)

	BeforeEach(func() {
		backend = memory.NewHeapBackend()
		registry = memory.NewRegistry()
	})

	Describe("Map", func() {
		var m *memory.Map[string, record]

		BeforeEach(func() {
			id := registry.Allocate("test", "records")
			m = memory.NewMap[string, record](backend, id, func(k string) string { return k })
		})

		It("should store and retrieve values", func() {
			m.Set("a", record{Name: "first", Count: 1})

			value, ok := m.Get("a")
			Expect(ok).To(BeTrue())
			Expect(value).To(Equal(record{Name: "first", Count: 1}))
		})

		It("should report absent keys", func() {
			_, ok := m.Get("missing")
			Expect(ok).To(BeFalse())
			Expect(m.Has("missing")).To(BeFalse())
		})

		It("should iterate in key order", func() {
			m.Set("b", record{Count: 2})
			m.Set("a", record{Count: 1})
			m.Set("c", record{Count: 3})

			var keys []string
			m.Range(func(key string, _ record) bool {
				keys = append(keys, key)
				return true
			})
			Expect(keys).To(Equal([]string{"a", "b", "c"}))
		})

		It("should stop iteration when the callback returns false", func() {
			m.Set("a", record{})
			m.Set("b", record{})

			calls := 0
			m.Range(func(string, record) bool {
				calls++
				return false
			})
			Expect(calls).To(Equal(1))
		})

		It("should bump the generation on every mutation", func() {
			start := m.Generation()
			m.Set("a", record{})
			m.Delete("a")
			Expect(m.Generation()).To(Equal(start + 2))
		})

		It("should clear all entries", func() {
			m.Set("a", record{})
			m.Set("b", record{})
			m.Clear()
			Expect(m.Len()).To(BeZero())
		})
	})

	Describe("Cell", func() {
		var c *memory.Cell[record]

		BeforeEach(func() {
			id := registry.Allocate("test", "cell")
			c = memory.NewCell[record](backend, id)
		})

		It("should distinguish unset from zero", func() {
			_, ok := c.TryGet()
			Expect(ok).To(BeFalse())

			c.Set(record{})
			_, ok = c.TryGet()
			Expect(ok).To(BeTrue())
		})

		It("should replace and clear the value", func() {
			c.Set(record{Name: "x"})
			Expect(c.Get().Name).To(Equal("x"))

			c.Clear()
			_, ok := c.TryGet()
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Registry", func() {
		It("should allocate dense monotonic ids", func() {
			a := registry.Allocate("canic", "one")
			b := registry.Allocate("canic", "two")
			Expect(b).To(Equal(a + 1))

			entries := registry.Export()
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].Label).To(Equal("one"))
		})

		It("should panic on duplicate registration", func() {
			registry.Allocate("canic", "slot")
			Expect(func() { registry.Allocate("canic", "slot") }).To(Panic())
		})

		It("should run init hooks exactly once", func() {
			touched := 0
			registry.OnInit(func() { touched++ })
			registry.Init()
			registry.Init()
			Expect(touched).To(Equal(1))
		})
	})
})
