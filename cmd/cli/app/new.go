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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	newRuntime string
	newSubject string
)

// newCmd scaffolds a fresh guest-function project skeleton: a stub source
// file plus the catalog entry the user pastes into their config. It does not
// run a WASM toolchain — that step happens outside the CLI, same as the
// reference implementation's own `new` subcommand.
var newCmd = &cobra.Command{
	Use:   "new <function-name>",
	Short: "Scaffold a new guest function",
	Long:  "Creates a stub source file for a function and prints the catalog entry to add to your config.",
	Args:  cobra.ExactArgs(1),
	RunE:  runNew,
}

func init() {
	newCmd.Flags().StringVar(&newRuntime, "runtime", "wasi-preview1", "guest runtime (wasi-preview1|wasi-preview2)")
	newCmd.Flags().StringVar(&newSubject, "subject", "", "stream subject substring to trigger on")
	RootCmd.AddCommand(newCmd)
}

const guestStub = `// Guest function entrypoint. Build with your WASI toolchain and point the
// catalog's "code" field at the compiled module.
fn main() {
    // read request payload from stdin, write the response to stdout
}
`

func runNew(_ *cobra.Command, args []string) error {
	name := args[0]
	dir := filepath.Join("functions", name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	srcPath := filepath.Join(dir, "main.rs")
	if err := os.WriteFile(srcPath, []byte(guestStub), 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("writing %s: %w", srcPath, err)
	}

	subject := newSubject
	if subject == "" {
		subject = name
	}

	fmt.Printf("scaffolded %s\n\nAdd this to your catalog:\n\n", srcPath)
	fmt.Printf("  - name: %s\n", name)
	fmt.Printf("    on: { nats: { subject: %q } }\n", subject)
	fmt.Printf("    runtime: %s\n", newRuntime)
	fmt.Printf("    code: functions/%s/%s.wasm\n", name, name)
	return nil
}
