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

// Package server holds the configuration types for the Nexus server process:
// the HTTP surface (§6), the durable-stream connection, and the function
// catalog location.
package server

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/athulkannan2000/nexus-functions/internal/config"
)

// HTTPServerConfig is the configuration for the HTTP surface described in §6.
type HTTPServerConfig struct {
	// Host is the host to bind to
	Host string `mapstructure:"host" default:"0.0.0.0"`
	// Port is the port to bind to
	Port int `mapstructure:"port" default:"8080"`
}

// GetAddress returns the address to bind to.
func (s *HTTPServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MetricServerConfig is the configuration for the Prometheus metrics server.
type MetricServerConfig struct {
	// Host is the host to bind to
	Host string `mapstructure:"host" default:"127.0.0.1"`
	// Port is the port to bind to
	Port int `mapstructure:"port" default:"9090"`
}

// GetAddress returns the address to bind to.
func (s *MetricServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RegisterServerFlags registers the command-line flags for the Nexus server.
func RegisterServerFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := registerHTTPServerFlags(v, flags); err != nil {
		return err
	}
	return registerMetricServerFlags(v, flags)
}

func registerHTTPServerFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	err := config.BindConfigFlag(v, flags, "http_server.host", "http-host", "0.0.0.0",
		"The host to bind to for the HTTP server", flags.String)
	if err != nil {
		return err
	}

	return config.BindConfigFlag(v, flags, "http_server.port", "http-port", 8080,
		"The port to bind to for the HTTP server", flags.Int)
}

func registerMetricServerFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	err := config.BindConfigFlag(v, flags, "metric_server.host", "metric-host", "127.0.0.1",
		"The host to bind to for the metric server", flags.String)
	if err != nil {
		return err
	}

	return config.BindConfigFlag(v, flags, "metric_server.port", "metric-port", 9090,
		"The port to bind to for the metric server", flags.Int)
}
