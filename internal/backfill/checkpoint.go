package backfill

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpointer persists the last fully processed block.
type Checkpointer interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, lastProcessed uint64) error
}

// Checkpoint is the on-disk checkpoint format.
type Checkpoint struct {
	LastProcessedBlock uint64 `json:"last_processed_block"`
	UpdatedAt          string `json:"updated_at"`
}

// FileCheckpoint persists checkpoints to a JSON file.
type FileCheckpoint struct {
	path string
}

func NewFileCheckpoint(path string) *FileCheckpoint {
	return &FileCheckpoint{path: path}
}

func (c *FileCheckpoint) Load(_ context.Context) (uint64, bool, error) {
	stat, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("stat checkpoint: %w", err)
	}
	if stat.IsDir() {
		return 0, false, fmt.Errorf("checkpoint path is a directory")
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return 0, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return 0, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	return cp.LastProcessedBlock, true, nil
}

func (c *FileCheckpoint) Save(_ context.Context, lastProcessed uint64) error {
	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	data, err := json.Marshal(Checkpoint{
		LastProcessedBlock: lastProcessed,
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}

// StateStore is a named block checkpoint table, such as the postgres store.
type StateStore interface {
	LoadCheckpoint(ctx context.Context, name string) (uint64, bool, error)
	SaveCheckpoint(ctx context.Context, name string, block uint64) error
}

// StoreCheckpoint keeps the checkpoint in a StateStore under name.
type StoreCheckpoint struct {
	store StateStore
	name  string
}

func NewStoreCheckpoint(store StateStore, name string) *StoreCheckpoint {
	return &StoreCheckpoint{store: store, name: name}
}

func (c *StoreCheckpoint) Load(ctx context.Context) (uint64, bool, error) {
	return c.store.LoadCheckpoint(ctx, c.name)
}

func (c *StoreCheckpoint) Save(ctx context.Context, lastProcessed uint64) error {
	return c.store.SaveCheckpoint(ctx, c.name, lastProcessed)
}

type noCheckpoint struct{}

func (noCheckpoint) Load(context.Context) (uint64, bool, error) { return 0, false, nil }
func (noCheckpoint) Save(context.Context, uint64) error { return nil }
