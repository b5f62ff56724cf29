// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/canic-io/canic/pkg/apis/config"
)

// LoadFromFile takes a filename and de-serializes the contents into a Config object.
func LoadFromFile(filename string) (*config.Config, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	return Load(bytes)
}

// Load takes a byte slice and de-serializes the contents into a Config object.
// Encapsulates de-serialization without assuming the source is a file.
func Load(data []byte) (*config.Config, error) {
	cfg := &config.Config{}

	if len(data) > 0 {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot decode config: %w", err)
		}
	}

	config.SetDefaults(cfg)
	return cfg, nil
}

// Export serializes a Config back to TOML.
func Export(cfg *config.Config) (string, error) {
	out, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("cannot encode config: %w", err)
	}
	return string(out), nil
}
