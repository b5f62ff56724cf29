// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/canic-io/canic/pkg/apis/config"
	"github.com/canic-io/canic/pkg/types"
)

// ValidateConfig validates a deployment configuration.
func ValidateConfig(cfg *config.Config, fldPath *field.Path) field.ErrorList {
	allErrs := field.ErrorList{}

	for i, controller := range cfg.Controllers {
		if controller.IsNil() {
			allErrs = append(allErrs, field.Invalid(fldPath.Child("controllers").Index(i), controller.String(), "controller principal must not be nil"))
		}
	}

	for name, canister := range cfg.Canisters {
		allErrs = append(allErrs, validateCanister(name, canister, fldPath.Child("canisters").Key(name))...)
	}

	allErrs = append(allErrs, validatePool(cfg.Pool, cfg, fldPath.Child("pool"))...)
	allErrs = append(allErrs, validateSharding(cfg.Sharding, cfg, fldPath.Child("sharding"))...)

	return allErrs
}

func validateCanister(name string, canister config.CanisterConfig, fldPath *field.Path) field.ErrorList {
	allErrs := field.ErrorList{}

	if err := types.CanisterRole(name).Validate(); err != nil {
		allErrs = append(allErrs, field.Invalid(fldPath, name, err.Error()))
	}

	if canister.UsesDirectory {
		switch canister.DirectoryScope {
		case config.DirectoryScopeApp, config.DirectoryScopeSubnet:
		default:
			allErrs = append(allErrs, field.NotSupported(fldPath.Child("directory_scope"), string(canister.DirectoryScope), []string{string(config.DirectoryScopeApp), string(config.DirectoryScopeSubnet)}))
		}
	}

	if topup := canister.Topup; topup != nil {
		if topup.Amount == 0 {
			allErrs = append(allErrs, field.Invalid(fldPath.Child("topup", "amount"), topup.Amount.String(), "topup amount must be positive"))
		}
		if topup.Threshold == 0 {
			allErrs = append(allErrs, field.Invalid(fldPath.Child("topup", "threshold"), topup.Threshold.String(), "topup threshold must be positive"))
		}
	}

	return allErrs
}

func validatePool(pool config.PoolConfig, cfg *config.Config, fldPath *field.Path) field.ErrorList {
	allErrs := field.ErrorList{}

	for name, p := range pool.Pools {
		poolPath := fldPath.Child("pools").Key(name)

		if err := types.PoolName(name).Validate(); err != nil {
			allErrs = append(allErrs, field.Invalid(poolPath, name, err.Error()))
		}
		allErrs = append(allErrs, validatePoolRole(p.Role, cfg, poolPath.Child("role"))...)

		if p.Capacity == 0 {
			allErrs = append(allErrs, field.Invalid(poolPath.Child("capacity"), p.Capacity, "capacity must be positive"))
		}
		if p.Target > p.Capacity {
			allErrs = append(allErrs, field.Invalid(poolPath.Child("target"), p.Target, "target must not exceed capacity"))
		}
	}

	return allErrs
}

func validateSharding(sharding config.ShardingConfig, cfg *config.Config, fldPath *field.Path) field.ErrorList {
	allErrs := field.ErrorList{}

	for name, p := range sharding.Pools {
		poolPath := fldPath.Child("pools").Key(name)

		if err := types.PoolName(name).Validate(); err != nil {
			allErrs = append(allErrs, field.Invalid(poolPath, name, err.Error()))
		}
		allErrs = append(allErrs, validatePoolRole(p.Role, cfg, poolPath.Child("role"))...)

		if p.MaxShards == 0 {
			allErrs = append(allErrs, field.Invalid(poolPath.Child("max_shards"), p.MaxShards, "max_shards must be positive"))
		}
		if p.ShardCapacity == 0 {
			allErrs = append(allErrs, field.Invalid(poolPath.Child("shard_capacity"), p.ShardCapacity, "shard_capacity must be positive"))
		}
	}

	return allErrs
}

func validatePoolRole(role types.CanisterRole, cfg *config.Config, fldPath *field.Path) field.ErrorList {
	allErrs := field.ErrorList{}

	if err := role.Validate(); err != nil {
		allErrs = append(allErrs, field.Invalid(fldPath, role.String(), err.Error()))
		return allErrs
	}
	if _, ok := cfg.CanisterFor(role); !ok {
		allErrs = append(allErrs, field.Invalid(fldPath, role.String(), "role is not configured under [canisters]"))
	}

	return allErrs
}
