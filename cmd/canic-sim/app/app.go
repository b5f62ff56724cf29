// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/apimachinery/pkg/util/validation/field"

	configloader "github.com/canic-io/canic/pkg/apis/config/loader"
	configvalidation "github.com/canic-io/canic/pkg/apis/config/validation"
	"github.com/canic-io/canic/pkg/canister"
	"github.com/canic-io/canic/pkg/logging"
	"github.com/canic-io/canic/pkg/platform/local"
	"github.com/canic-io/canic/pkg/types"
	"github.com/canic-io/canic/pkg/wasm"
)

// Options are the flags of the simulator command.
type Options struct {
	ConfigFile string
	Verbosity  int
}

// AddFlags registers the simulator flags.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ConfigFile, "config", "canic.toml", "path to the deployment configuration")
	fs.IntVar(&o.Verbosity, "v", 0, "log verbosity")
}

// NewSimulatorCommand creates the command running a local in-memory fleet:
// it boots a root on the local platform, runs bootstrap, and prints the
// resulting topology and directories.
func NewSimulatorCommand(ctx context.Context) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "canic-sim",
		Short: "boot a canic fleet on the in-memory platform",
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(ctx, opts)
		},
	}

	opts.AddFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, opts *Options) error {
	log := logging.NewLogger(opts.Verbosity)

	cfg, err := configloader.LoadFromFile(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("cannot load config: %w", err)
	}
	if errs := configvalidation.ValidateConfig(cfg, field.NewPath("config")); len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", errs.ToAggregate())
	}

	sim := local.New()

	// Every configured role gets a placeholder module so lifecycle flows can
	// run end to end without real wasm builds.
	wasms := wasm.NewRegistry()
	for role := range cfg.Canisters {
		wasms.Register(types.CanisterRole(role), types.NewWasmModule([]byte("module:"+role)))
	}

	rootPid := types.PrincipalFromSeed("sim/root")
	subnetPid := types.PrincipalFromSeed("sim/subnet")

	root, err := canister.NewRoot(canister.RootOptions{
		Log:        log,
		Config:     cfg,
		Self:       rootPid,
		SubnetPid:  subnetPid,
		SubnetRole: "prime",
		Factory:    sim,
		Wasms:      wasms,
		Now:        types.WallClock,
	})
	if err != nil {
		return err
	}
	sim.RegisterNode(rootPid, root)

	// Installed children come up as replica nodes wired to the same platform.
	sim.SetInstallHook(canister.ReplicaInstallHook(log, cfg, sim, types.WallClock))

	if err := root.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	fmt.Printf("subnet root %s\n", rootPid)
	for _, entry := range root.Registry().Export() {
		fmt.Printf("  %-16s %s\n", entry.Role, entry.Pid)
	}
	for _, entry := range root.SubnetDirectory().Export() {
		fmt.Printf("  directory %s -> %s\n", entry.Role, entry.Pid)
	}
	return nil
}
