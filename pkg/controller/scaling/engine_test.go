// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package scaling_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canic-io/canic/pkg/apis/config"
	"github.com/canic-io/canic/pkg/controller/scaling"
	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/testutil"
	"github.com/canic-io/canic/pkg/types"
)

var _ = Describe("Engine", func() {
	var (
		ctx     context.Context
		fixture *testutil.RootFixture
		engine  *scaling.Engine
	)

	newConfig := func(capacity, target uint32) *config.Config {
		return &config.Config{
			Canisters: map[string]config.CanisterConfig{
				"worker": {InitialCycles: types.Cycles(1_000_000)},
			},
			Pool: config.PoolConfig{
				MinimumSize: 1,
				Pools: map[string]config.ScalingPoolConfig{
					"workers": {Role: "worker", Capacity: capacity, Target: target},
				},
			},
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		fixture = testutil.NewRootFixture(newConfig(4, 2))
		engine = fixture.Root.Scaling()
	})

	Describe("#PlanCreateWorker", func() {
		It("should plan while the pool is below target", func() {
			Expect(engine.PlanCreateWorker("workers")).To(BeTrue())
		})

		It("should not plan for unknown pools", func() {
			Expect(engine.PlanCreateWorker("ghost")).To(BeFalse())
		})

		It("should not plan at target", func() {
			for i := 0; i < 2; i++ {
				_, err := engine.CreateWorker(ctx, "workers")
				Expect(err).NotTo(HaveOccurred())
			}
			Expect(engine.PlanCreateWorker("workers")).To(BeFalse())
		})

		It("should mutate nothing", func() {
			engine.PlanCreateWorker("workers")
			Expect(engine.PoolSize("workers")).To(BeZero())
		})
	})

	Describe("#CreateWorker", func() {
		It("should provision and register a worker", func() {
			pid, err := engine.CreateWorker(ctx, "workers")
			Expect(err).NotTo(HaveOccurred())

			worker, ok := engine.Get(pid)
			Expect(ok).To(BeTrue())
			Expect(worker.Pool).To(Equal(types.PoolName("workers")))
			Expect(worker.Role).To(Equal(types.CanisterRole("worker")))

			// The worker is also a real canister under root.
			entry, ok := fixture.Root.Registry().Get(pid)
			Expect(ok).To(BeTrue())
			Expect(entry.ParentPid).To(HaveValue(Equal(fixture.RootPid)))
		})

		It("should fail for unknown pools", func() {
			_, err := engine.CreateWorker(ctx, "ghost")
			Expect(err).To(HaveOccurred())
			Expect(errors.IsType(err, errors.ErrorTypeResource)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("scaling disabled"))
		})

		It("should fail once the target is reached", func() {
			for i := 0; i < 2; i++ {
				_, err := engine.CreateWorker(ctx, "workers")
				Expect(err).NotTo(HaveOccurred())
			}

			_, err := engine.CreateWorker(ctx, "workers")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("cap reached"))
		})

		It("should grant exactly one of two racing requests on the last slot", func() {
			fixture = testutil.NewRootFixture(newConfig(1, 1))
			engine = fixture.Root.Scaling()

			// Both requests pass the unlocked dry-run before either mutates.
			Expect(engine.PlanCreateWorker("workers")).To(BeTrue())
			Expect(engine.PlanCreateWorker("workers")).To(BeTrue())

			results := make([]error, 2)
			var wg sync.WaitGroup
			for i := 0; i < 2; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, results[i] = engine.CreateWorker(ctx, "workers")
				}(i)
			}
			wg.Wait()

			failures := 0
			for _, err := range results {
				if err != nil {
					failures++
					Expect(errors.IsType(err, errors.ErrorTypeResource)).To(BeTrue())
					Expect(err.Error()).To(ContainSubstring("cap reached"))
				}
			}
			Expect(failures).To(Equal(1))
			Expect(engine.PoolSize("workers")).To(Equal(1))
		})
	})

	Describe("pool bounds", func() {
		It("should floor the target at the global minimum size", func() {
			fixture = testutil.NewRootFixture(&config.Config{
				Canisters: map[string]config.CanisterConfig{
					"worker": {InitialCycles: types.Cycles(1_000_000)},
				},
				Pool: config.PoolConfig{
					MinimumSize: 2,
					Pools: map[string]config.ScalingPoolConfig{
						"workers": {Role: "worker", Capacity: 4, Target: 0},
					},
				},
			})
			engine = fixture.Root.Scaling()

			Expect(engine.PlanCreateWorker("workers")).To(BeTrue())
			_, err := engine.CreateWorker(ctx, "workers")
			Expect(err).NotTo(HaveOccurred())
			_, err = engine.CreateWorker(ctx, "workers")
			Expect(err).NotTo(HaveOccurred())
			_, err = engine.CreateWorker(ctx, "workers")
			Expect(err).To(HaveOccurred())
		})
	})
})
