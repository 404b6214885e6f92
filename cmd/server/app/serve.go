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
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/athulkannan2000/nexus-functions/internal/bus"
	"github.com/athulkannan2000/nexus-functions/internal/catalog"
	"github.com/athulkannan2000/nexus-functions/internal/eventlog"
	"github.com/athulkannan2000/nexus-functions/internal/httpapi"
	"github.com/athulkannan2000/nexus-functions/internal/logger"
	"github.com/athulkannan2000/nexus-functions/internal/metrics"
	"github.com/athulkannan2000/nexus-functions/internal/orchestrator"
	"github.com/athulkannan2000/nexus-functions/internal/publisher"
	"github.com/athulkannan2000/nexus-functions/internal/sandbox"
	"github.com/athulkannan2000/nexus-functions/internal/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the nexus server",
	Long:  "Starts the HTTP surface, the durable stream connection, and the dispatch bus.",
	RunE:  runServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := readConfig()
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	zlog := logger.FromFlags(cfg.Logging)
	ctx := zlog.WithContext(cmd.Context())
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("failed to load function catalog: %w", err)
	}

	maxAge, err := time.ParseDuration(cfg.Stream.MaxAge)
	if err != nil {
		return fmt.Errorf("invalid stream.max_age: %w", err)
	}
	retryInterval, err := time.ParseDuration(cfg.Stream.ConnectRetryInterval)
	if err != nil {
		return fmt.Errorf("invalid stream.connect_retry_interval: %w", err)
	}

	mtr := metrics.New()

	adapter := stream.New()
	if err := adapter.Connect(cfg.Stream.URL, cfg.Stream.ConnectRetryAttempts, retryInterval); err != nil {
		return fmt.Errorf("failed to connect to stream backend: %w", err)
	}
	mtr.SetStreamConnected(adapter.Connected())
	defer adapter.Close()

	policy := stream.Policy{MaxMsgs: cfg.Stream.MaxMsgs, MaxAge: maxAge}
	if err := adapter.EnsureStream(cfg.Stream.Name, policy); err != nil {
		return fmt.Errorf("failed to ensure stream %q: %w", cfg.Stream.Name, err)
	}

	exec, err := sandbox.NewExecutor(ctx, sandbox.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to start sandbox executor: %w", err)
	}
	defer exec.Close(ctx) //nolint:errcheck

	b, err := bus.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to start dispatch bus: %w", err)
	}

	pub := publisher.New(adapter)
	evlog := eventlog.New(adapter, cfg.Stream.Name)
	orch := orchestrator.New(pub, evlog, cat, exec, b, mtr)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := orch.Run(ctx); err != nil {
			zlog.Error().Err(err).Msg("dispatch bus exited")
		}
	}()
	<-orch.Running()

	apiSrv := &http.Server{
		Addr:    cfg.HTTPServer.GetAddress(),
		Handler: httpapi.New(orch, evlog, adapter, mtr).Router(),
	}
	metricsSrv := &http.Server{
		Addr:    cfg.MetricServer.GetAddress(),
		Handler: httpapi.MetricsHandler(mtr),
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		zlog.Info().Str("address", apiSrv.Addr).Msg("starting HTTP API server")
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error().Err(err).Msg("HTTP API server exited")
		}
	}()
	go func() {
		defer wg.Done()
		zlog.Info().Str("address", metricsSrv.Addr).Msg("starting metrics server")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error().Err(err).Msg("metrics server exited")
		}
	}()

	<-ctx.Done()
	zlog.Info().Msg("shutdown signal received, draining in-flight work")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	_ = orch.Close(shutdownCtx)

	wg.Wait()
	return nil
}
