package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mamane/internal/model"
	"mamane/internal/pkg"
	"mamane/internal/repository/mysql"
	"mamane/internal/repository/redis"

	"gorm.io/gorm"
)

// Dispatcher hands a notification intent off the request path.
// Implementations never report failure to the caller; they log it.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent model.Intent)
}

// SyncDispatcher delivers inline and swallows the result.
type SyncDispatcher struct {
	notifier IntentNotifier
	log      *slog.Logger
}

func NewSyncDispatcher(n IntentNotifier, log *slog.Logger) *SyncDispatcher {
	return &SyncDispatcher{notifier: n, log: log}
}

func (d *SyncDispatcher) Dispatch(ctx context.Context, intent model.Intent) {
	if _, err := d.notifier.Notify(ctx, intent); err != nil {
		logDropped(d.log, intent, err, 1)
	}
}

// AsyncDispatcher queues intents for a worker pool with bounded retry.
// A full queue drops the intent.
type AsyncDispatcher struct {
	notifier    IntentNotifier
	dedup       *redis.DedupRepository
	log         *slog.Logger
	queue       chan model.Intent
	maxAttempts int
	backoff     time.Duration
	timeout     time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type AsyncOptions struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	Backoff     time.Duration
	// Dedup is optional; without it a retried intent may be mailed twice.
	Dedup *redis.DedupRepository
}

func NewAsyncDispatcher(n IntentNotifier, opts AsyncOptions, log *slog.Logger) *AsyncDispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	d := &AsyncDispatcher{
		notifier:    n,
		dedup:       opts.Dedup,
		log:         log,
		queue:       make(chan model.Intent, opts.QueueSize),
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		timeout:     30 * time.Second,
	}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}
	return d
}

func (d *AsyncDispatcher) Dispatch(_ context.Context, intent model.Intent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("notification dropped after shutdown", "type", intent.Type, "post_id", intent.PostID)
		return
	}
	select {
	case d.queue <- intent:
	default:
		d.log.Warn("notification queue full",
			"type", intent.Type, "post_id", intent.PostID, "recipient", intent.RecipientUserID)
	}
}

// Close stops accepting intents and waits for the queue to drain.
func (d *AsyncDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *AsyncDispatcher) worker() {
	defer d.wg.Done()
	for intent := range d.queue {
		d.deliver(intent)
	}
}

func (d *AsyncDispatcher) deliver(intent model.Intent) {
	ctx := context.Background()
	key := intent.Key()
	if d.dedup != nil {
		if seen, err := d.dedup.Seen(ctx, key); err == nil && seen {
			d.log.Debug("notification already delivered", "key", key)
			return
		}
	}

	var err error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		err = d.attempt(ctx, intent)
		if err == nil {
			return
		}
		if !retryable(err) || attempt == d.maxAttempts {
			logDropped(d.log, intent, err, attempt)
			return
		}
		time.Sleep(d.backoff * time.Duration(attempt))
	}
}

func (d *AsyncDispatcher) attempt(ctx context.Context, intent model.Intent) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	out, err := d.notifier.Notify(ctx, intent)
	if err != nil {
		return err
	}
	if out.Skipped() {
		d.log.Debug("notification skipped", "reason", out.Reason, "recipient", intent.RecipientUserID)
		return nil
	}
	if d.dedup != nil {
		if _, err := d.dedup.Mark(ctx, intent.Key()); err != nil {
			d.log.Warn("dedup mark failed", "key", intent.Key(), "err", err)
		}
	}
	return nil
}

// OutboxDispatcher persists intents for OutboxRelayer.
type OutboxDispatcher struct {
	repo *mysql.OutboxRepository
	log  *slog.Logger
}

func NewOutboxDispatcher(db *gorm.DB, log *slog.Logger) *OutboxDispatcher {
	return &OutboxDispatcher{repo: &mysql.OutboxRepository{DB: db}, log: log}
}

func (d *OutboxDispatcher) Dispatch(ctx context.Context, intent model.Intent) {
	if err := d.repo.Insert(context.WithoutCancel(ctx), intent); err != nil {
		logDropped(d.log, intent, err, 1)
	}
}

func logDropped(log *slog.Logger, intent model.Intent, err error, attempts int) {
	log.Warn("notification dropped",
		"type", intent.Type,
		"post_id", intent.PostID,
		"recipient", intent.RecipientUserID,
		"attempts", attempts,
		"kind", pkg.KindOf(err).String(),
		"err", err)
}
