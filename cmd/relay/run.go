package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"helios-hq/relay/pkg/accounts"
	"helios-hq/relay/pkg/accounts/strategies"
	"helios-hq/relay/pkg/chain"
	"helios-hq/relay/pkg/chain/stages"
	"helios-hq/relay/pkg/config"
	"helios-hq/relay/pkg/gateway"
	"helios-hq/relay/pkg/rules"
	"helios-hq/relay/pkg/storage"
	"helios-hq/relay/pkg/stream"
	"helios-hq/relay/pkg/telemetry/logging"
	"helios-hq/relay/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the relay proxy",
	Long: `Start the relay proxy with the specified configuration.

The proxy listens on the configured address, classifies each request against
the rule list, attaches a pool credential, and forwards upstream. Metrics and
health are served on the management address.

Examples:
  # Start with the default config file
  relay run

  # Start with a custom config file
  relay run --config /etc/relay/relay.yaml

  # Override the listen address
  relay run --listen 0.0.0.0:8080`,
	RunE: runProxy,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

func runProxy(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if runFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Telemetry.Metrics.Namespace, nil)
	}

	matcher, err := rules.NewMatcher(cfg.Rules)
	if err != nil {
		return fmt.Errorf("compiling rules: %w", err)
	}

	strategy, err := strategies.FromName(cfg.Rotation.Strategy, cfg.Rotation.CheckInterval, cfg.Rotation.SwitchAfter)
	if err != nil {
		return err
	}
	pool, err := accounts.NewPool(cfg.Accounts.Pool, strategy,
		accounts.WithQuotaUnit(cfg.Accounts.QuotaUnit),
		accounts.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("building account pool: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Usage persistence.
	if cfg.Snapshot.Enabled {
		var backend storage.Backend
		switch cfg.Snapshot.Backend {
		case "memory":
			backend = storage.NewMemory()
		default:
			backend, err = storage.NewSQLite(storage.SQLiteConfig{Path: cfg.Snapshot.Path}, logger)
			if err != nil {
				return err
			}
		}
		defer backend.Close()

		if cfg.Snapshot.RestoreOnStart {
			records, err := backend.LoadUsage(ctx)
			switch {
			case err == nil:
				pool.RestoreUsage(records)
				logger.Info("usage restored from snapshot", "accounts", len(records))
			case errors.Is(err, storage.ErrNoSnapshot):
				logger.Info("no usage snapshot to restore")
			default:
				return err
			}
		}

		snapshotter, err := storage.NewSnapshotter(pool, backend, cfg.Snapshot.Schedule, logger)
		if err != nil {
			return err
		}
		snapshotter.Start()
		defer snapshotter.Stop()
	}

	// Interceptor chain, in fixed stage order.
	forwarder := gateway.NewForwarder(&http.Client{}, cfg.Proxy.MaxBodySize)
	credCfg := stages.CredentialConfig{
		HeaderName:         cfg.Accounts.AuthHeader,
		Scheme:             cfg.Accounts.AuthScheme,
		DegradePassthrough: cfg.Rotation.DegradePassthrough,
	}
	stageList := []chain.Stage{
		stages.NewRuleGate(matcher, logger),
		stages.NewCredential(pool, credCfg, logger, collector),
		stages.NewUsage(pool, logger, collector),
		stages.NewFailover(pool, forwarder, stages.FailoverConfig{
			ExhaustedStatus: cfg.Rotation.ExhaustedStatus,
			HeaderName:      cfg.Accounts.AuthHeader,
			Scheme:          cfg.Accounts.AuthScheme,
		}, logger, collector),
	}
	if len(cfg.Monitor.PathMarkers) > 0 {
		stageList = append(stageList, stages.NewMonitor(cfg.Monitor.PathMarkers, logger))
	}
	interceptors := chain.New(logger, stageList...)

	handler := gateway.NewHandler(interceptors, forwarder,
		stream.NewGate(cfg.Streaming.ContentTypes, cfg.Streaming.Paths),
		gateway.HandlerConfig{
			UpstreamTimeout:    cfg.Proxy.UpstreamTimeout,
			HeaderStageTimeout: cfg.Streaming.HeaderStageTimeout,
			MaxBodySize:        cfg.Proxy.MaxBodySize,
		}, logger, collector)

	// Report config drift; the running state stays immutable.
	if watcher, err := config.NewWatcher(cfgFile, logger, nil); err == nil {
		go watcher.Run(ctx)
	} else {
		logger.Warn("configuration watch unavailable", "error", err)
	}

	logger.Info("relay starting",
		"version", Version,
		"stages", interceptors.Stages(),
		"strategy", pool.Strategy(),
		"accounts", len(cfg.Accounts.Pool),
		"rules", matcher.Len(),
	)

	server := gateway.NewServer(gateway.ServerConfig{
		ListenAddress:     cfg.Proxy.ListenAddress,
		ManagementAddress: cfg.Proxy.ManagementAddress,
		ReadTimeout:       cfg.Proxy.ReadTimeout,
		WriteTimeout:      cfg.Proxy.WriteTimeout,
		ShutdownTimeout:   cfg.Proxy.ShutdownTimeout,
	}, handler, collector, logger)

	return server.Run(ctx)
}
