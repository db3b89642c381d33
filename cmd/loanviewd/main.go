package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"lendview/core/pricing"
	"lendview/native/lending"
	"lendview/observability"
	"lendview/observability/logging"
	telemetry "lendview/observability/otel"
	lendingsvc "lendview/services/lending"
	"lendview/services/lending/rpcclient"
	"lendview/services/loanviewd/config"
	"lendview/services/loanviewd/server"
	"lendview/services/loanviewd/storage"
	"lendview/services/notify"
	"lendview/services/staking"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "services/loanviewd/config.yaml", "path to loanviewd config")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.SetupWithFile("loanviewd", cfg.Environment, logging.FileConfig{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.ConfigFromEnv("loanviewd", cfg.Environment))
	if err != nil {
		log.Fatalf("init telemetry: %v", err)
	}
	defer func() {
		_ = shutdownTelemetry(context.Background())
	}()

	paramsCfg, err := lending.LoadConfig(cfg.ParamsPath)
	if err != nil {
		log.Fatalf("load protocol params: %v", err)
	}
	params := lending.NewParamsStore(paramsCfg.Params())

	rpc, err := rpcclient.NewClient(rpcclient.Config{
		BaseURL:         cfg.RPC.URL,
		BearerToken:     cfg.RPC.BearerToken,
		TLSClientCAFile: cfg.RPC.ClientCAPath,
		AllowInsecure:   cfg.RPC.AllowInsecure,
		Timeout:         cfg.RPC.Timeout,
	})
	if err != nil {
		log.Fatalf("rpc client: %v", err)
	}

	db, err := storage.Open(cfg.Journal.DSN)
	if err != nil {
		log.Fatalf("journal: %v", err)
	}
	if err := storage.AutoMigrate(db); err != nil {
		log.Fatalf("journal migrate: %v", err)
	}

	notifiers := notify.Multi{notify.NewLogNotifier(logger)}
	if cfg.Notify.WebhookURL != "" {
		webhook, err := notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:    cfg.Notify.WebhookURL,
			Secret: cfg.Notify.WebhookSecret,
			Limit:  cfg.Notify.Limit,
			Window: cfg.Notify.Window,
		})
		if err != nil {
			log.Fatalf("webhook notifier: %v", err)
		}
		notifiers = append(notifiers, webhook)
	}

	feed := pricing.NewFeed(cfg.Price.MaxAge)
	srv := server.New(server.Config{
		Params:         params,
		Prices:         feed,
		Quotes:         feed,
		Submitter:      lendingsvc.NewSubmitter(rpc),
		Notifier:       notifiers,
		Journal:        storage.NewJournal(db),
		Pools:          staking.NewRPCLister(rpc),
		Metrics:        observability.LoanForm(),
		StakingMetrics: observability.Staking(),
		Auth: server.AuthConfig{
			HMACSecret: cfg.Auth.HMACSecret,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			ClockSkew:  cfg.Auth.ClockSkew,
		},
		RateLimit: server.RateLimit{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		},
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
		Logger:     logger,
	})

	if oracle := paramsCfg.Oracle(); oracle != (common.Address{}) {
		source, err := lendingsvc.NewOracleSource(rpc, oracle)
		if err != nil {
			log.Fatalf("oracle source: %v", err)
		}
		watcher, err := pricing.NewWatcher(source, feed, paramsCfg.Pair(), cfg.Price.PollInterval, pricing.WithLogger(logger))
		if err != nil {
			log.Fatalf("price watcher: %v", err)
		}
		watcher.Subscribe(srv.OnQuote)
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("price watcher stopped", "error", err)
			}
		}()
	} else {
		logger.Info("fixed-rate line selected, price polling disabled")
	}

	go reloadParamsOnHangup(ctx, logger, cfg.ParamsPath, params, feed, srv)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("loanviewd listening", "listen", cfg.ListenAddress)
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("forcing server stop", "error", err)
			_ = httpServer.Close()
		}
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve http: %v", err)
		}
	}
}

// reloadParamsOnHangup re-reads the protocol parameters on SIGHUP and
// re-derives every mounted form against the new snapshot. The oracle address
// is fixed for the lifetime of the process.
func reloadParamsOnHangup(ctx context.Context, logger *slog.Logger, path string, store *lending.ParamsStore, feed *pricing.Feed, srv *server.Server) {
	hangup := make(chan os.Signal, 1)
	signal.Notify(hangup, syscall.SIGHUP)
	defer signal.Stop(hangup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hangup:
			next, err := lending.LoadConfig(path)
			if err != nil {
				logger.Error("reload protocol params", "error", err)
				continue
			}
			current := store.ProtocolParams()
			params := next.Params()
			if params.OracleAddress != current.OracleAddress {
				logger.Warn("oracle change requires restart", "oracle", params.OracleAddress.Hex())
				params.OracleAddress = current.OracleAddress
			}
			store.Set(params)
			quote, status := feed.Latest()
			if current.FixedRateLine() {
				status = pricing.PriceStatusOK
			}
			srv.OnQuote(quote, status)
			logger.Info("protocol params reloaded", "sessions", srv.Sessions())
		}
	}
}
