// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package lifecycle_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canic-io/canic/pkg/apis/config"
	"github.com/canic-io/canic/pkg/controller/cascade"
	"github.com/canic-io/canic/pkg/controller/lifecycle"
	"github.com/canic-io/canic/pkg/directory"
	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/logging"
	"github.com/canic-io/canic/pkg/memory"
	"github.com/canic-io/canic/pkg/platform/local"
	"github.com/canic-io/canic/pkg/registry"
	"github.com/canic-io/canic/pkg/rpc"
	"github.com/canic-io/canic/pkg/state"
	"github.com/canic-io/canic/pkg/types"
	"github.com/canic-io/canic/pkg/wasm"
)

const testNow = uint64(1_700_000_000)

type orchestratorFixture struct {
	orchestrator *lifecycle.Orchestrator
	registry     *registry.SubnetRegistry
	platform     *local.Platform
	wasms        *wasm.Registry
	root         types.Principal
}

// newOrchestratorFixture wires an orchestrator by hand, without install
// hooks, so provisioning failures and partial flows can be exercised.
func newOrchestratorFixture(cfg *config.Config) *orchestratorFixture {
	log := logging.Discard()
	sim := local.New()
	backend := memory.NewHeapBackend()
	root := types.PrincipalFromSeed("lifecycle/root")

	env := state.NewEnvStore(backend, 0, root)
	self := root
	env.Import(state.Env{RootPid: &self})

	reg := registry.NewSubnetRegistry(backend, 1, root)
	appDir := directory.NewStore(backend, 2)
	subnetDir := directory.NewStore(backend, 3)
	wasms := wasm.NewRegistry()

	client := rpc.NewClient(root, sim)
	engine := cascade.NewEngine(log, client, reg)

	return &orchestratorFixture{
		orchestrator: lifecycle.NewOrchestrator(log, cfg, sim, wasms, reg, appDir, subnetDir, env, engine, types.FixedClock(testNow)),
		registry:     reg,
		platform:     sim,
		wasms:        wasms,
		root:         root,
	}
}

var _ = Describe("Orchestrator", func() {
	var (
		ctx context.Context
		f   *orchestratorFixture
	)

	cfg := func() *config.Config {
		return &config.Config{
			Canisters: map[string]config.CanisterConfig{
				"app": {InitialCycles: types.Cycles(1_000_000)},
			},
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		f = newOrchestratorFixture(cfg())
		f.wasms.Register("app", types.NewWasmModule([]byte("module:app")))
	})

	Describe("create", func() {
		It("should register the child with module hash and creation time", func() {
			result, err := f.orchestrator.Apply(ctx, lifecycle.Event{
				Create: &lifecycle.CreateEvent{Role: "app", Parent: f.root},
			})
			Expect(err).NotTo(HaveOccurred())

			entry, ok := f.registry.Get(result.Pid)
			Expect(ok).To(BeTrue())
			module, _ := f.wasms.Get("app")
			Expect(entry.ModuleHash).To(HaveValue(Equal(module.Hash())))
			Expect(entry.CreatedAt).To(Equal(testNow))
		})

		It("should fail for a role that is not configured", func() {
			_, err := f.orchestrator.Apply(ctx, lifecycle.Event{
				Create: &lifecycle.CreateEvent{Role: "ghost", Parent: f.root},
			})
			Expect(err).To(HaveOccurred())
			Expect(errors.IsType(err, errors.ErrorTypeValidation)).To(BeTrue())
		})

		It("should fail with a resource error when no module is registered", func() {
			f = newOrchestratorFixture(cfg())

			_, err := f.orchestrator.Apply(ctx, lifecycle.Event{
				Create: &lifecycle.CreateEvent{Role: "app", Parent: f.root},
			})
			Expect(err).To(HaveOccurred())
			Expect(errors.IsType(err, errors.ErrorTypeResource)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("wasm not registered"))
		})

		It("should leave no registry trace when install fails", func() {
			f.platform.SetInstallHook(func(types.Principal, types.WasmModule, []byte) (rpc.Handler, error) {
				return nil, errors.New(errors.ErrorTypeTransport, "install rejected")
			})

			_, err := f.orchestrator.Apply(ctx, lifecycle.Event{
				Create: &lifecycle.CreateEvent{Role: "app", Parent: f.root},
			})
			Expect(err).To(HaveOccurred())
			Expect(f.registry.Len()).To(BeZero())
		})
	})

	Describe("delete", func() {
		It("should remove a leaf", func() {
			result, err := f.orchestrator.Apply(ctx, lifecycle.Event{
				Create: &lifecycle.CreateEvent{Role: "app", Parent: f.root},
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = f.orchestrator.Apply(ctx, lifecycle.Event{
				Delete: &lifecycle.DeleteEvent{Pid: result.Pid},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(f.registry.Len()).To(BeZero())
		})

		It("should refuse to delete a canister with children", func() {
			parent, err := f.orchestrator.Apply(ctx, lifecycle.Event{
				Create: &lifecycle.CreateEvent{Role: "app", Parent: f.root},
			})
			Expect(err).NotTo(HaveOccurred())
			_, err = f.orchestrator.Apply(ctx, lifecycle.Event{
				Create: &lifecycle.CreateEvent{Role: "app", Parent: parent.Pid},
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = f.orchestrator.Apply(ctx, lifecycle.Event{
				Delete: &lifecycle.DeleteEvent{Pid: parent.Pid},
			})
			Expect(err).To(HaveOccurred())
			Expect(errors.IsType(err, errors.ErrorTypeConsistency)).To(BeTrue())
		})
	})

	It("should reject an empty event", func() {
		_, err := f.orchestrator.Apply(ctx, lifecycle.Event{})
		Expect(err).To(HaveOccurred())
		Expect(errors.IsType(err, errors.ErrorTypeValidation)).To(BeTrue())
	})
})
