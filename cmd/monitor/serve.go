package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"factoryMonitor/internal/api"
	"factoryMonitor/internal/candles"
	"factoryMonitor/internal/chain"
	"factoryMonitor/internal/config"
	"factoryMonitor/internal/factory"
	"factoryMonitor/internal/feed"
	"factoryMonitor/internal/ingest"
	"factoryMonitor/internal/projector"
	"factoryMonitor/internal/quote"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, _, err := openStore(ctx, cfg.Store, cfg.PGDSN, cfg.AutoMigrate, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	decoder, err := factory.NewDecoder()
	if err != nil {
		return err
	}

	broker := feed.NewBroker(cfg.FeedBuffer, logger.Named("feed"))
	defer broker.Close()

	processor, err := ingest.NewProcessor(
		ingest.Config{FactoryAddress: cfg.FactoryAddress, Network: cfg.Network},
		decoder,
		projector.New(store, broker, logger.Named("projector")),
		journalSink(cfg.FailureJournal),
		logger.Named("ingest"),
	)
	if err != nil {
		return err
	}

	deps := api.Deps{
		Ingester: processor,
		Store:    store,
		Candles:  candles.NewService(store),
		Feed:     broker,
		Logger:   logger.Named("api"),
	}

	if cfg.RPCURL != "" {
		chainClient, err := chain.Dial(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()

		reader, err := factory.NewReader(chainClient, cfg.FactoryAddress)
		if err != nil {
			return err
		}
		deps.Quotes = quote.NewService(reader)
	}

	server, err := api.New(api.Config{
		ListenAddr:   cfg.ListenAddr,
		WebhookPath:  cfg.WebhookPath,
		SigningKey:   cfg.SigningKey,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Debug:        cfg.LogLevel == "debug",
	}, deps)
	if err != nil {
		return err
	}

	logger.Info("monitor start",
		zap.String("factory", cfg.FactoryAddress),
		zap.String("network", cfg.Network),
		zap.String("store", cfg.Store),
		zap.Bool("signature_check", cfg.SigningKey != ""),
		zap.Bool("quotes", deps.Quotes != nil),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-errCh
}
