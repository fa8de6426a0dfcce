package store

import (
	"context"
	"errors"
	"fmt"

	"tradestat/internal/engine"
	apperrors "tradestat/internal/errors"
	"tradestat/internal/logging"
	"tradestat/pkg/utils"
)

// Recorder persists engine publications and trims the history.
type Recorder struct {
	store  RunStore
	source string
	keep   int
	retry  utils.RetryConfig
}

// NewRecorder creates a Recorder. Runs are tagged with source; keep bounds the
// history length, zero keeps everything. Logging goes to the logger carried by
// the publication context.
func NewRecorder(store RunStore, source string, keep int) *Recorder {
	retry := utils.DefaultRetryConfig()
	// a locked database is worth another attempt, a bad payload is not
	retry.Retryable = func(err error) bool {
		return errors.Is(err, apperrors.ErrDatabaseError)
	}
	return &Recorder{store: store, source: source, keep: keep, retry: retry}
}

// OnPublish implements engine.Consumer.
func (r *Recorder) OnPublish(ctx context.Context, pub *engine.Publication) error {
	run := NewRun(pub.RunID, pub.Sequence, pub.PublishedAt, r.source, pub.Report)
	err := utils.Retry(ctx, r.retry, func() error {
		return r.store.SaveRun(ctx, run)
	})
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", pub.RunID, err)
	}

	pruned, err := r.store.Prune(ctx, r.keep)
	if err != nil {
		return err
	}

	logger := logging.FromContext(ctx)
	logger.Debug().
		Str("source", r.source).
		Int("pruned", pruned).
		Msg("Run recorded")
	return nil
}
