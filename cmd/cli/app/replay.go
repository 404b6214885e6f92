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
)

var replayCmd = &cobra.Command{
	Use:   "replay <event-id>",
	Short: "Replay a previously ingested event",
	Long:  "Republishes the original envelope unchanged (same id, time, and data) and re-runs dispatch against it.",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	RootCmd.AddCommand(replayCmd)
}

func runReplay(_ *cobra.Command, args []string) error {
	id := args[0]

	var resp struct {
		EventID string `json:"event_id"`
		Status  string `json:"status"`
	}
	if err := apiPost("/replay/"+id, nil, &resp); err != nil {
		return err
	}

	fmt.Printf("%s: %s\n", resp.EventID, resp.Status)
	return nil
}
