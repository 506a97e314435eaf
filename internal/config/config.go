package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "MONITOR"

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// ServeConfig holds configuration for the serve command.
type ServeConfig struct {
	ListenAddr      string
	WebhookPath     string
	FactoryAddress  string
	Network         string
	SigningKey      string
	Store           string
	PGDSN           string
	AutoMigrate     bool
	RPCURL          string
	FailureJournal  string
	FeedBuffer      int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string
}

// BackfillConfig holds configuration for the backfill command.
type BackfillConfig struct {
	RPCURL            string
	FactoryAddress    string
	Network           string
	FromBlock         uint64
	ToBlock           uint64
	BatchSize         uint64
	Confirmations     uint64
	Store             string
	PGDSN             string
	Checkpoint        string
	CheckpointEnabled bool
	CheckpointName    string
	MaxRetries        int
	RetryBackoff      time.Duration
	FailureJournal    string
	LogLevel          string
}

// QuoteConfig holds configuration for the quote command.
type QuoteConfig struct {
	RPCURL         string
	FactoryAddress string
	Token          string
	Side           string
	Amount         string
	LogLevel       string
}

// MigrateConfig holds configuration for the migrate command.
type MigrateConfig struct {
	PGDSN    string
	LogLevel string
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("listen", ":8080")
		v.SetDefault("webhook-path", "/api/webhook")
		v.SetDefault("network", "testnet")
		v.SetDefault("store", StoreMemory)
		v.SetDefault("auto-migrate", true)
		v.SetDefault("feed-buffer", 64)
		v.SetDefault("read-timeout", 10*time.Second)
		v.SetDefault("write-timeout", 30*time.Second)
		v.SetDefault("shutdown-timeout", 10*time.Second)
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		ListenAddr:      v.GetString("listen"),
		WebhookPath:     v.GetString("webhook-path"),
		FactoryAddress:  v.GetString("factory"),
		Network:         v.GetString("network"),
		SigningKey:      v.GetString("signing-key"),
		Store:           strings.ToLower(v.GetString("store")),
		PGDSN:           v.GetString("pg-dsn"),
		AutoMigrate:     v.GetBool("auto-migrate"),
		RPCURL:          v.GetString("rpc"),
		FailureJournal:  v.GetString("failure-journal"),
		FeedBuffer:      v.GetInt("feed-buffer"),
		ReadTimeout:     v.GetDuration("read-timeout"),
		WriteTimeout:    v.GetDuration("write-timeout"),
		ShutdownTimeout: v.GetDuration("shutdown-timeout"),
		LogLevel:        v.GetString("log-level"),
	}
	return cfg, cfg.Validate()
}

// Validate checks required serve settings.
func (c ServeConfig) Validate() error {
	if err := validateFactory(c.FactoryAddress); err != nil {
		return err
	}
	if !strings.HasPrefix(c.WebhookPath, "/") {
		return fmt.Errorf("webhook path must start with /: %q", c.WebhookPath)
	}
	return validateStore(c.Store, c.PGDSN)
}

// LoadBackfill merges config file, environment variables, and flags into BackfillConfig.
func LoadBackfill(cfgFile string, flags *pflag.FlagSet) (BackfillConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("network", "testnet")
		v.SetDefault("batch-size", uint64(2000))
		v.SetDefault("store", StoreMemory)
		v.SetDefault("checkpoint", "./data/checkpoint.json")
		v.SetDefault("checkpoint-enabled", true)
		v.SetDefault("checkpoint-name", "backfill")
		v.SetDefault("max-retries", 5)
		v.SetDefault("retry-backoff", 500*time.Millisecond)
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return BackfillConfig{}, err
	}

	cfg := BackfillConfig{
		RPCURL:            v.GetString("rpc"),
		FactoryAddress:    v.GetString("factory"),
		Network:           v.GetString("network"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		BatchSize:         v.GetUint64("batch-size"),
		Confirmations:     v.GetUint64("confirmations"),
		Store:             strings.ToLower(v.GetString("store")),
		PGDSN:             v.GetString("pg-dsn"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		CheckpointName:    v.GetString("checkpoint-name"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		FailureJournal:    v.GetString("failure-journal"),
		LogLevel:          v.GetString("log-level"),
	}
	return cfg, cfg.Validate()
}

// Validate checks required backfill settings.
func (c BackfillConfig) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc is required")
	}
	if err := validateFactory(c.FactoryAddress); err != nil {
		return err
	}
	if c.BatchSize == 0 {
		return fmt.Errorf("batch-size must be greater than zero")
	}
	if c.ToBlock != 0 && c.ToBlock < c.FromBlock {
		return fmt.Errorf("to block must be >= from block")
	}
	return validateStore(c.Store, c.PGDSN)
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("side", "buy")
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	cfg := QuoteConfig{
		RPCURL:         v.GetString("rpc"),
		FactoryAddress: v.GetString("factory"),
		Token:          v.GetString("token"),
		Side:           strings.ToLower(v.GetString("side")),
		Amount:         v.GetString("amount"),
		LogLevel:       v.GetString("log-level"),
	}
	if cfg.RPCURL == "" {
		return cfg, fmt.Errorf("rpc is required")
	}
	if err := validateFactory(cfg.FactoryAddress); err != nil {
		return cfg, err
	}
	if !common.IsHexAddress(cfg.Token) {
		return cfg, fmt.Errorf("invalid token address %q", cfg.Token)
	}
	if cfg.Amount == "" {
		return cfg, fmt.Errorf("amount is required")
	}
	return cfg, nil
}

// LoadMigrate merges config file, environment variables, and flags into MigrateConfig.
func LoadMigrate(cfgFile string, flags *pflag.FlagSet) (MigrateConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("log-level", "info")
	})
	if err != nil {
		return MigrateConfig{}, err
	}
	cfg := MigrateConfig{
		PGDSN:    v.GetString("pg-dsn"),
		LogLevel: v.GetString("log-level"),
	}
	if cfg.PGDSN == "" {
		return cfg, fmt.Errorf("pg-dsn is required")
	}
	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults func(*viper.Viper)) (*viper.Viper, error) {
	loadEnv(cfgFile)

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	defaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

// loadEnv loads .env files next to the config file (or the working directory).
// Variables already present in the environment win.
func loadEnv(cfgFile string) {
	dir := "."
	if cfgFile != "" {
		dir = filepath.Dir(cfgFile)
	}
	for _, name := range []string{".env.local", ".env"} {
		_ = godotenv.Load(filepath.Join(dir, name))
	}
}

func validateFactory(address string) error {
	if address == "" {
		return fmt.Errorf("factory address is required")
	}
	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid factory address %q", address)
	}
	return nil
}

func validateStore(store, dsn string) error {
	switch store {
	case StoreMemory:
		return nil
	case StorePostgres:
		if dsn == "" {
			return fmt.Errorf("pg-dsn is required for the postgres store")
		}
		return nil
	default:
		return fmt.Errorf("unknown store %q", store)
	}
}
