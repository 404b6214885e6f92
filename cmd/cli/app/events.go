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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	eventsHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	eventsIDStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	eventsTypeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
)

var (
	eventsType  string
	eventsLimit int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List ingested events",
	Long:  "Lists envelopes from the durable event log, optionally filtered by type.",
	RunE:  runEvents,
}

func init() {
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "filter by event type")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 100, "maximum number of events to list")
	RootCmd.AddCommand(eventsCmd)
}

type listedEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Time string          `json:"time"`
	Data json.RawMessage `json:"data"`
}

func runEvents(_ *cobra.Command, _ []string) error {
	path := fmt.Sprintf("/events?limit=%d", eventsLimit)
	if eventsType != "" {
		path += "&type=" + eventsType
	}

	var resp struct {
		Events []listedEvent `json:"events"`
	}
	if err := apiGet(path, &resp); err != nil {
		return err
	}

	if len(resp.Events) == 0 {
		fmt.Println("no events found")
		return nil
	}

	fmt.Println(eventsHeaderStyle.Render(fmt.Sprintf("%-36s  %-28s  %s", "ID", "TYPE", "TIME")))
	fmt.Println(strings.Repeat("-", 90))
	for _, ev := range resp.Events {
		fmt.Printf("%-36s  %-28s  %s\n",
			eventsIDStyle.Render(ev.ID),
			eventsTypeStyle.Render(ev.Type),
			ev.Time,
		)
	}
	return nil
}
