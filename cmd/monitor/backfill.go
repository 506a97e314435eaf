package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"factoryMonitor/internal/backfill"
	"factoryMonitor/internal/chain"
	"factoryMonitor/internal/config"
	"factoryMonitor/internal/factory"
	"factoryMonitor/internal/ingest"
	"factoryMonitor/internal/projector"
)

func runBackfill(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadBackfill(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	factoryAddress, err := backfill.ParseAddress(cfg.FactoryAddress)
	if err != nil {
		return err
	}
	topics, err := backfill.FactoryTopics()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}

	store, pg, err := openStore(ctx, cfg.Store, cfg.PGDSN, true, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	var checkpoint backfill.Checkpointer
	switch {
	case !cfg.CheckpointEnabled:
	case pg != nil:
		checkpoint = backfill.NewStoreCheckpoint(pg, cfg.CheckpointName)
	default:
		checkpoint = backfill.NewFileCheckpoint(cfg.Checkpoint)
	}

	decoder, err := factory.NewDecoder()
	if err != nil {
		return err
	}
	processor, err := ingest.NewProcessor(
		ingest.Config{FactoryAddress: cfg.FactoryAddress, Network: cfg.Network},
		decoder,
		projector.New(store, nil, logger.Named("projector")),
		journalSink(cfg.FailureJournal),
		logger.Named("ingest"),
	)
	if err != nil {
		return err
	}

	runner := backfill.NewRunner(backfill.RunConfig{
		FactoryAddress: factoryAddress,
		Topic0:         topics,
		FromBlock:      cfg.FromBlock,
		ToBlock:        cfg.ToBlock,
		BatchSize:      cfg.BatchSize,
		Confirmations:  cfg.Confirmations,
		MaxRetries:     cfg.MaxRetries,
		RetryBackoff:   cfg.RetryBackoff,
	}, chainClient, processor, checkpoint, logger.Named("backfill"))

	logger.Info("backfill start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("chain_id", chainID.String()),
		zap.String("factory", cfg.FactoryAddress),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("store", cfg.Store),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	result, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("backfill complete",
		zap.Uint64("from", result.FromBlock),
		zap.Uint64("to", result.ToBlock),
		zap.Int("blocks", result.Blocks),
		zap.Int("logs", result.Logs),
		zap.Int("applied", result.Applied),
		zap.Int("failed", result.Failed),
	)
	return nil
}
