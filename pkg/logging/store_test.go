// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package logging_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canic-io/canic/pkg/logging"
	"github.com/canic-io/canic/pkg/memory"
	"github.com/canic-io/canic/pkg/types"
)

var _ = Describe("Store", func() {
	newStore := func(params logging.RetentionParams, now uint64) *logging.Store {
		return logging.NewStore(memory.NewHeapBackend(), 0, params, types.FixedClock(now))
	}

	It("should retain entries in append order", func() {
		store := newStore(logging.RetentionParams{MaxEntries: 10, MaxEntryBytes: 256}, 1000)
		store.Append("canic", logging.LevelInfo, nil, "first")
		store.Append("canic", logging.LevelWarn, nil, "second")

		entries := store.Entries()
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Message).To(Equal("first"))
		Expect(entries[1].Level).To(Equal(logging.LevelWarn))
	})

	It("should truncate messages to the per-entry byte cap", func() {
		store := newStore(logging.RetentionParams{MaxEntries: 10, MaxEntryBytes: 8}, 1000)
		store.Append("canic", logging.LevelInfo, nil, strings.Repeat("x", 100))

		Expect(store.Entries()[0].Message).To(HaveLen(8))
	})

	It("should drop the oldest entries beyond the count cap", func() {
		store := newStore(logging.RetentionParams{MaxEntries: 2, MaxEntryBytes: 256}, 1000)
		store.Append("canic", logging.LevelInfo, nil, "one")
		store.Append("canic", logging.LevelInfo, nil, "two")
		store.Append("canic", logging.LevelInfo, nil, "three")

		entries := store.Entries()
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Message).To(Equal("two"))
	})

	It("should prune entries older than the age cap", func() {
		store := newStore(logging.RetentionParams{MaxEntries: 10, MaxEntryBytes: 256, MaxAgeSecs: 60}, 1000)
		store.Append("canic", logging.LevelInfo, nil, "old")

		Expect(store.Prune(2000)).To(Equal(1))
		Expect(store.Len()).To(BeZero())
	})

	It("should record the topic", func() {
		store := newStore(logging.RetentionParams{MaxEntries: 10, MaxEntryBytes: 256}, 1000)
		topic := logging.TopicSync
		store.Append("canic", logging.LevelError, &topic, "cascade failed")

		Expect(store.Entries()[0].Topic).To(HaveValue(Equal(logging.TopicSync)))
	})
})
