// Copyright 2025 Nexus Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/athulkannan2000/nexus-functions/internal/config"
)

// Config is the top-level configuration for the Nexus server, assembled
// the way the teacher's server Config struct is: one struct per concern,
// unmarshalled in one shot via config.ReadConfigFromViper.
type Config struct {
	HTTPServer   HTTPServerConfig     `mapstructure:"http_server"`
	MetricServer MetricServerConfig   `mapstructure:"metric_server"`
	Logging      config.LoggingConfig `mapstructure:"logging"`
	Stream       StreamConfig         `mapstructure:"stream"`
	Catalog      CatalogConfig        `mapstructure:"catalog"`
}

// CatalogConfig locates the function-catalog YAML file (§6 schema v1).
type CatalogConfig struct {
	// Path is the filesystem path to the catalog file.
	Path string `mapstructure:"path" default:"./functions.yaml"`
}

// SetViperDefaults sets the viper defaults for the entire server config via
// the generic reflection-based SetViperStructDefaults sweep, so every field
// tagged with `default` is bound to an env var and given a default value.
func SetViperDefaults(v *viper.Viper) {
	config.SetViperStructDefaults(v, "", Config{})
}

// DefaultConfigForTest returns a Config populated the way the teacher's
// DefaultConfigForTest does: read viper defaults into a fresh struct so
// tests exercise the same defaulting path production code uses.
func DefaultConfigForTest() (*Config, error) {
	v := viper.New()
	SetViperDefaults(v)
	cfg, err := config.ReadConfigFromViper[Config](v)
	if err != nil {
		return nil, fmt.Errorf("failed to read default config: %w", err)
	}
	return cfg, nil
}
