/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/facebook/lttng-relay/internal/config"
	"github.com/facebook/lttng-relay/internal/relay"
	"github.com/facebook/lttng-relay/internal/relaydrain"
	"github.com/facebook/lttng-relay/internal/relaystats"
)

var runCfg = config.Config{
	StaticConfig: config.StaticConfig{
		ListenAddr:     ":5344",
		LogLevel:       "warning",
		MonitoringPort: 8888,
		PrometheusPort: 0,
		PidFile:        "/var/run/lttng-relayd.pid",
		DrainFile:      "/var/tmp/kill_lttng_relayd",
	},
	DynamicConfig: config.DynamicConfig{
		LiveTimerDefault:   30 * time.Second,
		ViewerIdleTimeout:  5 * time.Minute,
		MetadataBatchBytes: 4096,
		DrainInterval:      30 * time.Second,
		MetricInterval:     1 * time.Minute,
	},
}

func init() {
	RootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runCfg.ConfigFile, "config", "", "Path to a config with dynamic settings")
	runCmd.Flags().StringVar(&runCfg.ListenAddr, "listenaddr", runCfg.ListenAddr, "Address the live viewer transport binds on (wire framing is handled by an external collaborator)")
	runCmd.Flags().StringVar(&runCfg.LogLevel, "loglevel", runCfg.LogLevel, "Set a log level. Can be: debug, info, warning, error")
	runCmd.Flags().IntVar(&runCfg.MonitoringPort, "monitoringport", runCfg.MonitoringPort, "Port to serve the JSON counters endpoint on")
	runCmd.Flags().IntVar(&runCfg.PrometheusPort, "prometheusport", runCfg.PrometheusPort, "Port to serve the Prometheus /metrics endpoint on, 0 disables it")
	runCmd.Flags().StringVar(&runCfg.PidFile, "pidfile", runCfg.PidFile, "Pid file location")
	runCmd.Flags().StringVar(&runCfg.DrainFile, "drainfile", runCfg.DrainFile, "Killswitch file; its appearance drains the registry")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the relay/live-tracing core daemon",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runDaemon(&runCfg)
	},
}

func configureLogLevel(level string) error {
	switch level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warning":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		return fmt.Errorf("unrecognized log level: %v", level)
	}
	return nil
}

func runDaemon(c *config.Config) error {
	if err := configureLogLevel(c.LogLevel); err != nil {
		return err
	}

	if c.ConfigFile != "" {
		dc, err := config.ReadDynamicConfig(c.ConfigFile)
		if err != nil {
			return fmt.Errorf("reading dynamic config: %w", err)
		}
		c.DynamicConfig = *dc
	}

	if err := c.CreatePidFile(); err != nil {
		return fmt.Errorf("creating pid file: %w", err)
	}
	defer func() {
		if err := c.DeletePidFile(); err != nil {
			log.Warningf("failed to remove pid file %s: %v", c.PidFile, err)
		}
	}()

	counters := relaystats.New()
	reg := relay.NewRegistry(counters)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	jsonStats := relaystats.NewJSONServer(counters)
	eg.Go(func() error {
		jsonStats.Start(c.MonitoringPort)
		return nil
	})

	if c.PrometheusPort != 0 {
		prom := relaystats.NewPrometheusExporter(c.PrometheusPort, c.MonitoringPort, c.MetricInterval)
		eg.Go(func() error {
			prom.Start()
			return nil
		})
	}

	drainer := &relaydrain.FileDrain{Interval: c.DrainInterval, File: c.DrainFile}
	eg.Go(func() error {
		drainer.Start(reg)
		cancel()
		return nil
	})

	eg.Go(func() error {
		driveEpoch(ctx, reg, counters, c.MetricInterval)
		return nil
	})

	log.Infof("lttng-relayd listening on %s (wire framing is handled by an external collaborator)", c.ListenAddr)

	eg.Go(func() error {
		waitForSignal(ctx)
		cancel()
		return nil
	})

	<-ctx.Done()
	log.Warning("shutting down, draining relay registry")
	reg.Drain()
	// jsonStats/prom never return on their own (they block in
	// http.ListenAndServe for the process lifetime) and the drain watcher
	// polls until its file appears; only driveEpoch and the signal waiter
	// honor ctx, so there's nothing further worth waiting on.
	return nil
}

// driveEpoch advances the registry's epoch substrate on a timer and
// republishes the deferred-destructor queue depth, until ctx is
// cancelled. The relay package never calls Advance itself (see
// relay.Registry.Epoch's doc comment); this loop is the daemon-owned
// caller.
func driveEpoch(ctx context.Context, reg *relay.Registry, counters *relaystats.Counters, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reg.Epoch().Advance()
			counters.SetEpochPending(int64(reg.Epoch().Pending()))
		}
	}
}

func waitForSignal(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
}
