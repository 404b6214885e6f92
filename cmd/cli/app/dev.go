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

	"github.com/spf13/cobra"

	serverapp "github.com/athulkannan2000/nexus-functions/cmd/server/app"
)

// devCmd runs the full server in the foreground, delegating straight to
// nexus-server's own `serve` subcommand so the two binaries never drift.
var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Run the nexus server in the foreground for local development",
	Long:  "Starts the ingestion pipeline and HTTP surface against the local catalog, same as `nexus-server serve`.",
	RunE: func(_ *cobra.Command, _ []string) error {
		fmt.Println("starting nexus in development mode, Ctrl+C to stop")
		args := []string{"serve"}
		if cfgFile != "" {
			args = append(args, "--config", cfgFile)
		}
		serverapp.RootCmd.SetArgs(args)
		return serverapp.RootCmd.Execute()
	},
}

func init() {
	RootCmd.AddCommand(devCmd)
}
