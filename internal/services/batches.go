package services

import (
	"context"

	"infinite-experiment/poolroster/internal/logging"
	"infinite-experiment/poolroster/internal/store"
)

// commitBatches writes ops in sequential sub-batches of at most size.
// It stops at the first failing sub-batch, or before the next one once ctx
// is done, and returns how many operations were committed.
func commitBatches[T any](ctx context.Context, s store.DocumentStore[T], stage string, ops []store.Op[T], size int) (int, error) {
	committed := 0
	for i, chunk := range store.Chunk(ops, size) {
		if err := ctx.Err(); err != nil {
			return committed, &PartialBatchError{Stage: stage, Committed: committed, Total: len(ops), Err: err}
		}
		if err := s.BatchWrite(ctx, chunk); err != nil {
			logging.Error("Sub-batch commit failed",
				"stage", stage,
				"batch", i,
				"committed", committed,
				"total", len(ops),
				"error", err,
			)
			return committed, &PartialBatchError{Stage: stage, Committed: committed, Total: len(ops), Err: err}
		}
		committed += len(chunk)
	}
	return committed, nil
}
