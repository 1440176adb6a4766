package service

import (
	"context"
	"log/slog"
	"time"

	"mamane/internal/repository/mysql"
	"mamane/internal/repository/redis"

	"gorm.io/gorm"
)

// ReactionCountReconciler raises lagging post counters to their reaction row count.
// It never lowers a counter.
type ReactionCountReconciler struct {
	posts     *mysql.PostRepository
	cache     *redis.ReactionCacheRepository
	batchSize int
	interval  time.Duration
	log       *slog.Logger
}

func NewReactionCountReconciler(db *gorm.DB, cache *redis.ReactionCacheRepository, log *slog.Logger) *ReactionCountReconciler {
	return &ReactionCountReconciler{
		posts:     &mysql.PostRepository{DB: db},
		cache:     cache,
		batchSize: 500,
		interval:  5 * time.Minute,
		log:       log,
	}
}

func (r *ReactionCountReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.reconcileOnce(ctx)
		}
	}
}

func (r *ReactionCountReconciler) reconcileOnce(ctx context.Context) int {
	drift, err := r.posts.ListCountDrift(ctx, r.batchSize)
	if err != nil {
		r.log.Error("reconcile list failed", "err", err)
		return 0
	}
	fixed := 0
	for _, d := range drift {
		raised, err := r.posts.RaiseReactionCount(ctx, d.ID)
		if err != nil {
			r.log.Warn("reconcile update failed", "post_id", d.ID, "err", err)
			continue
		}
		// increments landed since the drift was read
		if !raised {
			continue
		}
		if r.cache != nil {
			_ = r.cache.Forget(ctx, d.ID)
		}
		fixed++
	}
	if fixed > 0 {
		r.log.Info("reaction counters reconciled", "posts", fixed)
	}
	return fixed
}
