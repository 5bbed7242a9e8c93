package sync

import (
	"time"

	"go.uber.org/zap"

	"github.com/matheus3301/freightmsg/internal/store"
)

// abandonReason is journaled for sends interrupted by a daemon restart.
const abandonReason = "interrupted by daemon restart"

// Reconciler brings the cache to a consistent state at startup and reports
// its checkpoints.
type Reconciler struct {
	db     *store.DB
	logger *zap.Logger
}

// NewReconciler creates a new reconciler.
func NewReconciler(db *store.DB, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{db: db, logger: logger}
}

// Reconcile fails journal entries left queued or sending by a previous run.
// They are not retried.
func (r *Reconciler) Reconcile() error {
	n, err := r.db.AbandonUnfinished(abandonReason)
	if err != nil {
		return err
	}
	if n > 0 {
		r.logger.Warn("abandoned unfinished sends", zap.Int64("count", n))
	}
	return nil
}

// LastRefresh returns when the inbox was last persisted, or the zero time.
func (r *Reconciler) LastRefresh() time.Time {
	v, err := r.db.Checkpoint(store.CheckpointLastRefresh)
	if err != nil || v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
