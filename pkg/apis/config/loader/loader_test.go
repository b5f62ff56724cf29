// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package loader_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/canic-io/canic/pkg/apis/config"
	"github.com/canic-io/canic/pkg/apis/config/loader"
	"github.com/canic-io/canic/pkg/types"
)

var _ = Describe("Loader", func() {
	controller := types.PrincipalFromSeed("config/controller")

	It("should parse a full configuration", func() {
		data := `
controllers = ["` + controller.String() + `"]

[pool]
minimum_size = 1

[pool.pools.workers]
role = "worker"
capacity = 10
target = 4

[canisters.app]
initial_cycles = "5T"
auto_create = 2
uses_directory = true
directory_scope = "app"

[canisters.worker]
initial_cycles = "1T"

[canisters.worker.topup]
threshold = "500G"
amount = "1T"

[canisters.shard]
initial_cycles = "1T"

[sharding.pools.tenants]
role = "shard"
max_shards = 8
shard_capacity = 1000

[log]
max_entries = 500
max_entry_bytes = 2048
max_age_secs = 86400

[randomness]
enabled = true
reseed_interval_secs = 3600

[standards]
icrc10 = true
`
		cfg, err := loader.Load([]byte(data))
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.Controllers).To(ConsistOf([]types.Principal{controller}))
		Expect(cfg.Pool.MinimumSize).To(Equal(uint32(1)))
		Expect(cfg.Pool.Pools["workers"].Capacity).To(Equal(uint32(10)))

		app, ok := cfg.CanisterFor("app")
		Expect(ok).To(BeTrue())
		Expect(app.InitialCycles).To(Equal(types.Cycles(5_000_000_000_000)))
		Expect(app.AutoCreate).To(Equal(uint32(2)))
		Expect(app.DirectoryScope).To(Equal(config.DirectoryScopeApp))

		worker, ok := cfg.CanisterFor("worker")
		Expect(ok).To(BeTrue())
		Expect(worker.Topup).NotTo(BeNil())
		Expect(worker.Topup.Threshold).To(Equal(types.Cycles(500_000_000_000)))

		Expect(cfg.Sharding.Pools["tenants"].MaxShards).To(Equal(uint32(8)))
		Expect(cfg.Log.MaxEntries).To(Equal(uint64(500)))
		Expect(cfg.Log.MaxAgeSecs).To(HaveValue(Equal(uint64(86400))))
		Expect(cfg.Randomness.Enabled).To(BeTrue())
		Expect(cfg.Standards.ICRC10).To(BeTrue())
	})

	It("should apply defaults to an empty configuration", func() {
		cfg, err := loader.Load(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Log.MaxEntries).To(BeNumerically(">", 0))
		Expect(cfg.Log.MaxEntryBytes).To(BeNumerically(">", 0))
		Expect(cfg.Pool.MinimumSize).To(Equal(uint32(1)))
	})

	It("should default the directory scope of directory-visible roles", func() {
		cfg, err := loader.Load([]byte(`
[canisters.app]
initial_cycles = "1T"
uses_directory = true
`))
		Expect(err).NotTo(HaveOccurred())
		app, _ := cfg.CanisterFor("app")
		Expect(app.DirectoryScope).To(Equal(config.DirectoryScopeSubnet))
	})

	It("should reject malformed TOML", func() {
		_, err := loader.Load([]byte("controllers = ["))
		Expect(err).To(HaveOccurred())
	})

	It("should round-trip through Export", func() {
		cfg, err := loader.Load([]byte(`
[canisters.app]
initial_cycles = "1T"
`))
		Expect(err).NotTo(HaveOccurred())

		out, err := loader.Export(cfg)
		Expect(err).NotTo(HaveOccurred())

		again, err := loader.Load([]byte(out))
		Expect(err).NotTo(HaveOccurred())
		app, _ := again.CanisterFor("app")
		Expect(app.InitialCycles).To(Equal(types.Cycles(1_000_000_000_000)))
	})
})
