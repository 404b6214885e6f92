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

// Package sandbox implements §4.7: compiling, caching, instantiating, and
// running user modules inside a capability-restricted WASI runtime, built
// on github.com/tetratelabs/wazero (present in the retrieval pack only as
// an indirect dependency of rubiojr-ergs; see DESIGN.md).
package sandbox

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/athulkannan2000/nexus-functions/internal/catalog"
	"github.com/athulkannan2000/nexus-functions/internal/nexuserr"
)

// Config matches the configuration recognized at executor construction (§4.7).
type Config struct {
	MultiMemory  bool
	AsyncSupport bool
}

// DefaultConfig is {multi_memory: true, async_support: true} per §4.7.
func DefaultConfig() Config {
	return Config{MultiMemory: true, AsyncSupport: true}
}

// Result describes the synthetic output shape the default-mode executor
// emits (§4.7, §9 open question 1: "preserve the synthetic contract").
type Result struct {
	Status    string `json:"status"`
	InputSize int    `json:"input_size"`
	Function  string `json:"function,omitempty"`
	Trapped   bool   `json:"-"`
}

// Executor compiles, caches, instantiates, and runs WASI modules. The
// module cache is a single mutex-guarded map from digest to compiled
// module (§5): the critical section is the lookup/insert only, so no
// other lock is taken inside it.
type Executor struct {
	runtime wazero.Runtime
	cfg     Config

	mu    sync.Mutex
	cache map[string]wazero.CompiledModule
}

// NewExecutor constructs an Executor bound to ctx's lifetime.
func NewExecutor(ctx context.Context, cfg Config) (*Executor, error) {
	rcfg := wazero.NewRuntimeConfig().
		WithCompilationCache(wazero.NewCompilationCache()).
		WithCloseOnContextDone(cfg.AsyncSupport)

	rt := wazero.NewRuntimeWithConfig(ctx, rcfg)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return nil, nexuserr.NewSandboxError("failed to link WASI host functions: %v", err)
	}

	return &Executor{
		runtime: rt,
		cfg:     cfg,
		cache:   make(map[string]wazero.CompiledModule),
	}, nil
}

// Close releases the runtime and every cached compiled module.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// CacheSize returns the number of distinct compiled-module cache lines,
// used to assert the cache-idempotence property (§8).
func (e *Executor) CacheSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cache)
}

func digestKey(moduleBytes []byte, funcName string) string {
	sum := sha256.Sum256(moduleBytes)
	key := hex.EncodeToString(sum[:])
	if funcName != "" {
		key = key + "_" + funcName
	}
	return key
}

// resolve compiles moduleBytes, caching by hash(moduleBytes) for the
// default entry point or hash(moduleBytes)+"_"+funcName for named entry
// points (§4.7). Cache stores the compiled module, not an instance.
func (e *Executor) resolve(ctx context.Context, moduleBytes []byte, funcName string) (wazero.CompiledModule, error) {
	key := digestKey(moduleBytes, funcName)

	e.mu.Lock()
	defer e.mu.Unlock()

	if mod, ok := e.cache[key]; ok {
		return mod, nil
	}

	mod, err := e.runtime.CompileModule(ctx, moduleBytes)
	if err != nil {
		return nil, nexuserr.NewSandboxError("failed to compile module: %v", err)
	}
	e.cache[key] = mod
	return mod, nil
}

// Execute runs the invocation protocol of §4.7:
//  1. resolve the compiled module (cache hit/insert)
//  2. build per-invocation state: WASI context with the host's stdin and
//     stderr, stdout captured into a per-invocation buffer, and only the
//     descriptor's env entries as its environment (host environment
//     variables are not passed through); input is not passed
//     to the module (only its size is reported) and the captured stdout is
//     not read back into the result
//  3. link WASI host functions (done once, at executor construction)
//  4. instantiate the module
//  5. invoke: default mode calls "_start" (failures logged, non-fatal);
//     named mode calls the named export (failure is fatal)
//  6. emit a synthetic output envelope describing success
//
// funcName == "" selects default mode.
func (e *Executor) Execute(ctx context.Context, fn catalog.Function, moduleBytes, input []byte, funcName string) (Result, error) {
	mod, err := e.resolve(ctx, moduleBytes, funcName)
	if err != nil {
		return Result{}, err
	}

	var stdout bytes.Buffer
	modCfg := wazero.NewModuleConfig().
		WithStdin(os.Stdin).
		WithStdout(&stdout).
		WithStderr(os.Stderr).
		WithStartFunctions() // disable the implicit _start call so we control invocation mode

	for k, v := range fn.Env {
		modCfg = modCfg.WithEnv(k, v)
	}

	instance, err := e.runtime.InstantiateModule(ctx, mod, modCfg)
	if err != nil {
		return Result{}, nexuserr.NewSandboxError("failed to instantiate module for function %q: %v", fn.Name, err)
	}
	defer instance.Close(ctx)

	if funcName == "" {
		start := instance.ExportedFunction("_start")
		trapped := false
		if start == nil {
			trapped = true
		} else if _, err := start.Call(ctx); err != nil {
			// Default-mode traps are logged by the caller and classified
			// TrapNonFatal (§4.7); control proceeds to the output step.
			trapped = true
		}
		return Result{Status: "executed", InputSize: len(input), Trapped: trapped}, nil
	}

	export := instance.ExportedFunction(funcName)
	if export == nil {
		return Result{}, nexuserr.NewSandboxError("function %q not found in module", funcName)
	}
	if _, err := export.Call(ctx); err != nil {
		return Result{}, nexuserr.NewSandboxError("function %q trapped: %v", funcName, err)
	}

	return Result{Status: "executed", InputSize: len(input), Function: funcName}, nil
}
