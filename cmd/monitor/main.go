package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "monitor",
		Short:        "Bonding-curve factory event monitor",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the webhook endpoint and read API",
		RunE:  runServe,
	}

	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("webhook-path", "/api/webhook", "webhook route path")
	serveCmd.Flags().String("factory", "", "factory contract address")
	serveCmd.Flags().String("network", "testnet", "network label reported in responses")
	serveCmd.Flags().String("signing-key", "", "webhook HMAC signing key (empty disables the check)")
	serveCmd.Flags().String("store", "memory", "store backend (memory, postgres)")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	serveCmd.Flags().Bool("auto-migrate", true, "apply migrations on startup (postgres)")
	serveCmd.Flags().String("rpc", "", "RPC URL for quotes (empty disables quotes)")
	serveCmd.Flags().String("failure-journal", "", "JSONL path for failed projections")
	serveCmd.Flags().Int("feed-buffer", 64, "per-subscriber feed buffer")
	serveCmd.Flags().Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	serveCmd.Flags().Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	serveCmd.Flags().Duration("shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	backfillCmd := &cobra.Command{
		Use:   "backfill",
		Short: "Replay factory logs from RPC into the store",
		RunE:  runBackfill,
	}

	backfillCmd.Flags().String("rpc", "", "RPC URL")
	backfillCmd.Flags().String("factory", "", "factory contract address")
	backfillCmd.Flags().String("network", "testnet", "network label")
	backfillCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	backfillCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	backfillCmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	backfillCmd.Flags().Uint64("confirmations", 0, "blocks to stay behind latest")
	backfillCmd.Flags().String("store", "memory", "store backend (memory, postgres)")
	backfillCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	backfillCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path (memory store)")
	backfillCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	backfillCmd.Flags().String("checkpoint-name", "backfill", "checkpoint name (postgres store)")
	backfillCmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	backfillCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	backfillCmd.Flags().String("failure-journal", "", "JSONL path for failed projections")
	backfillCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(backfillCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Preview a buy or sell against the bonding curve",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("rpc", "", "RPC URL")
	quoteCmd.Flags().String("factory", "", "factory contract address")
	quoteCmd.Flags().String("token", "", "token address")
	quoteCmd.Flags().String("side", "buy", "trade side (buy, sell)")
	quoteCmd.Flags().String("amount", "", "input amount in ether units (ETH for buy, tokens for sell)")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres migrations",
		RunE:  runMigrate,
	}

	migrateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	migrateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
