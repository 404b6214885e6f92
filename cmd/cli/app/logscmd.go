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
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var logsFollow bool

// logsCmd tails the server's configured log file (LoggingConfig.LogFile),
// the same file nexus-server opens in append mode at startup.
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Tail the nexus server's log file",
	Long:  "Reads (and optionally follows) the log file configured under logging.logFile in the server config.",
	RunE:  runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "keep reading as new lines are appended")
	RootCmd.AddCommand(logsCmd)
}

func runLogs(_ *cobra.Command, _ []string) error {
	path := viper.GetString("logging.logFile")
	if path == "" {
		return fmt.Errorf("no logging.logFile configured; pass --config pointing at the server's config file")
	}

	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			fmt.Print(line)
		}
		if err == io.EOF {
			if !logsFollow {
				return nil
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
	}
}
