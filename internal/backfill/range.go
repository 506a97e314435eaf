package backfill

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Window is an inclusive block span.
type Window struct {
	From uint64
	To   uint64
}

// Empty reports whether the window covers no blocks.
func (w Window) Empty() bool {
	return w.From > w.To
}

// Batches calls fn for consecutive sub-windows of at most size blocks, stopping at the first error.
func (w Window) Batches(size uint64, fn func(Window) error) error {
	if size == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	for start := w.From; start <= w.To; {
		end := w.To
		if w.To-start >= size {
			end = start + size - 1
		}
		if err := fn(Window{From: start, To: end}); err != nil {
			return err
		}
		if end == w.To {
			return nil
		}
		start = end + 1
	}
	return nil
}

// window resolves the span of this run: an open end follows the confirmed head,
// and a checkpoint inside the span moves the start past it.
func (r *Runner) window(ctx context.Context) (Window, error) {
	w := Window{From: r.cfg.FromBlock, To: r.cfg.ToBlock}
	if w.To == 0 {
		latest, err := r.source.LatestBlockNumber(ctx)
		if err != nil {
			return w, fmt.Errorf("get latest block: %w", err)
		}
		if latest < r.cfg.Confirmations {
			return Window{From: 1, To: 0}, nil
		}
		w.To = latest - r.cfg.Confirmations
	}

	last, ok, err := r.checkpoint.Load(ctx)
	if err != nil {
		return w, fmt.Errorf("load checkpoint: %w", err)
	}
	if ok && last >= w.From {
		w.From = last + 1
		r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", last), zap.Uint64("from", w.From))
	}
	return w, nil
}
