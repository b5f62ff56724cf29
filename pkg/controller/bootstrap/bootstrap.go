// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package bootstrap

import (
	"context"
	"slices"

	"github.com/go-logr/logr"

	"github.com/canic-io/canic/pkg/apis/config"
	"github.com/canic-io/canic/pkg/controller/lifecycle"
	"github.com/canic-io/canic/pkg/types"
)

// Bootstrapper provisions the configured auto-create canisters when a root
// comes up. It assumes the environment has already been seeded; it performs
// orchestration only.
type Bootstrapper struct {
	log          logr.Logger
	cfg          *config.Config
	orchestrator *lifecycle.Orchestrator
	root         types.Principal
}

// NewBootstrapper wires a root bootstrapper.
func NewBootstrapper(log logr.Logger, cfg *config.Config, orchestrator *lifecycle.Orchestrator, root types.Principal) *Bootstrapper {
	return &Bootstrapper{
		log:          log.WithName("bootstrap"),
		cfg:          cfg,
		orchestrator: orchestrator,
		root:         root,
	}
}

// Run creates auto_create canisters for every configured role, roles in
// lexicographic order so bootstrap is deterministic. The first failure
// aborts: a partially bootstrapped subnet is visible in the registry and the
// operator decides whether to retry.
func (b *Bootstrapper) Run(ctx context.Context) error {
	roles := make([]string, 0, len(b.cfg.Canisters))
	for role := range b.cfg.Canisters {
		roles = append(roles, role)
	}
	slices.Sort(roles)

	for _, role := range roles {
		canisterCfg := b.cfg.Canisters[role]
		for i := uint32(0); i < canisterCfg.AutoCreate; i++ {
			result, err := b.orchestrator.Apply(ctx, lifecycle.Event{
				Create: &lifecycle.CreateEvent{
					Role:   types.CanisterRole(role),
					Parent: b.root,
				},
			})
			if err != nil {
				return err
			}
			b.log.Info("bootstrapped canister", "topic", "Bootstrap", "role", role, "pid", result.Pid.Short())
		}
	}
	return nil
}
