// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package policy holds the pure decision functions of the orchestration core.
// Nothing in here logs, mutates state, schedules work or makes calls; every
// function is independently testable against plain inputs.
package policy

import (
	"time"

	"github.com/canic-io/canic/pkg/apis/config"
	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/types"
)

// CycleTrackerRetentionSecs is how long cycle samples are kept (~7 days).
const CycleTrackerRetentionSecs = 60 * 60 * 24 * 7

// RetentionCutoff returns the purge cutoff for cycle samples, saturating at
// zero.
func RetentionCutoff(now uint64) uint64 {
	if now < CycleTrackerRetentionSecs {
		return 0
	}
	return now - CycleTrackerRetentionSecs
}

// TopupPlan says how many cycles to deposit.
type TopupPlan struct {
	Amount types.Cycles
}

// ShouldTopup returns a plan iff the balance is below the configured
// threshold. A role without topup configuration never plans one.
func ShouldTopup(current types.Cycles, cfg config.CanisterConfig) *TopupPlan {
	topup := cfg.Topup
	if topup == nil {
		return nil
	}
	if current >= topup.Threshold {
		return nil
	}
	return &TopupPlan{Amount: topup.Amount}
}

// RequirePoolAdmin checks whether the caller may perform pool admin
// operations. Current policy: root-only.
func RequirePoolAdmin(isRoot bool) error {
	if !isRoot {
		return errors.New(errors.ErrorTypeAccess, "not authorized for pool administration")
	}
	return nil
}

// UpgradePlan is the decision whether to upgrade a canister.
type UpgradePlan struct {
	ShouldUpgrade bool
}

// PlanUpgrade decides whether a canister should be upgraded based on module
// hashes. An unknown current hash always upgrades.
func PlanUpgrade(currentHash *types.ModuleHash, targetHash types.ModuleHash) UpgradePlan {
	return UpgradePlan{
		ShouldUpgrade: currentHash == nil || *currentHash != targetHash,
	}
}

// RandomnessSchedule returns the reseed interval, or nil when reseeding is
// disabled or the interval is zero.
func RandomnessSchedule(cfg config.RandomnessConfig) *time.Duration {
	if !cfg.Enabled || cfg.ReseedIntervalSecs == 0 {
		return nil
	}
	interval := time.Duration(cfg.ReseedIntervalSecs) * time.Second
	return &interval
}

// LogRetentionParams are the effective bounds on the log store at a point in
// time.
type LogRetentionParams struct {
	Cutoff        *uint64
	MaxEntries    uint64
	MaxEntryBytes uint32
}

// LogRetention resolves the log configuration into concrete bounds.
func LogRetention(cfg config.LogConfig, now uint64) LogRetentionParams {
	params := LogRetentionParams{
		MaxEntries:    cfg.MaxEntries,
		MaxEntryBytes: cfg.MaxEntryBytes,
	}
	if cfg.MaxAgeSecs != nil {
		cutoff := uint64(0)
		if now > *cfg.MaxAgeSecs {
			cutoff = now - *cfg.MaxAgeSecs
		}
		params.Cutoff = &cutoff
	}
	return params
}
