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

package app

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var metricsLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")).Width(28)
var metricsValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show a snapshot of server metrics",
	Long:  "Fetches /health from the server, shows its status fields, and prints the /metrics URL to scrape for raw counters.",
	RunE:  runMetrics,
}

func init() {
	RootCmd.AddCommand(metricsCmd)
}

func runMetrics(_ *cobra.Command, _ []string) error {
	var health struct {
		Status        string `json:"status"`
		Version       string `json:"version"`
		NATSConnected bool   `json:"nats_connected"`
	}
	if err := apiGet("/health", &health); err != nil {
		return err
	}

	row := func(label string, value any) {
		fmt.Printf("%s %v\n", metricsLabelStyle.Render(label), metricsValueStyle.Render(fmt.Sprint(value)))
	}

	row("status", health.Status)
	row("server_version", health.Version)
	row("nats_connected", health.NATSConnected)
	fmt.Println()
	fmt.Println("for raw counters and derived rates, scrape the Prometheus endpoint directly:")
	fmt.Printf("  curl %s/metrics\n", serverAddr())
	return nil
}
