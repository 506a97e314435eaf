// Package journal records logs whose projection failed.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"factoryMonitor/internal/model"
)

// Sink accepts projection failures.
type Sink interface {
	Record(failures ...model.ProjectionFailure) error
}

// JSONL appends failures to a JSON lines file.
type JSONL struct {
	path string
	mu   sync.Mutex
}

func NewJSONL(path string) *JSONL {
	return &JSONL{path: path}
}

// Record appends failures as JSON lines.
func (j *JSONL) Record(failures ...model.ProjectionFailure) error {
	if len(failures) == 0 {
		return nil
	}

	dir := filepath.Dir(j.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, failure := range failures {
		line, err := json.Marshal(failure)
		if err != nil {
			return fmt.Errorf("marshal failure: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write failure: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}
	return nil
}

// Nop discards failures.
type Nop struct{}

func (Nop) Record(...model.ProjectionFailure) error { return nil }
