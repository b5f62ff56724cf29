// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package logging_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canic-io/canic/pkg/logging"
	"github.com/canic-io/canic/pkg/memory"
	"github.com/canic-io/canic/pkg/types"
)

var _ = Describe("TeeToStore", func() {
	var store *logging.Store

	BeforeEach(func() {
		store = logging.NewStore(memory.NewHeapBackend(), 0, logging.RetentionParams{
			MaxEntries:    100,
			MaxEntryBytes: 1024,
		}, types.FixedClock(1000))
	})

	It("should retain info and error records", func() {
		log := logging.TeeToStore(logging.Discard(), store)
		log.Info("cascade started")
		log.Error(errors.New("boom"), "cascade failed")

		entries := store.Entries()
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Level).To(Equal(logging.LevelInfo))
		Expect(entries[1].Level).To(Equal(logging.LevelError))
		Expect(entries[1].Message).To(ContainSubstring("boom"))
	})

	It("should pick up the topic key", func() {
		log := logging.TeeToStore(logging.Discard(), store)
		log.Error(errors.New("boom"), "sync failed", "topic", "Sync")

		Expect(store.Entries()[0].Topic).To(HaveValue(Equal(logging.TopicSync)))
	})

	It("should record the logger name as component", func() {
		log := logging.TeeToStore(logging.Discard(), store).WithName("cascade")
		log.Info("hop done")

		Expect(store.Entries()[0].Component).To(Equal("cascade"))
	})
})
