package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"mamane/internal/model"
	"mamane/internal/pkg"
	"mamane/internal/repository/mysql"
	"mamane/internal/repository/redis"

	"gorm.io/gorm"
)

type Sender func(ctx context.Context, ob *model.NotificationOutbox) error

// OutboxRelayer drains notification_outbox into a Sender.
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	batchSize int
	maxRetry  int
	interval  time.Duration
	sender    Sender
	log       *slog.Logger
}

func NewOutboxRelayer(db *gorm.DB, sender Sender, log *slog.Logger) *OutboxRelayer {
	return &OutboxRelayer{
		repo:      &mysql.OutboxRepository{DB: db},
		batchSize: 200,
		maxRetry:  5,
		interval:  time.Second,
		sender:    sender,
		log:       log,
	}
}

func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

func (r *OutboxRelayer) drainOnce(ctx context.Context) {
	rows, err := r.repo.ListRetryable(ctx, r.batchSize, r.maxRetry)
	if err != nil {
		r.log.Error("outbox query failed", "err", err)
		return
	}
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			r.log.Warn("outbox send failed", "id", ob.ID, "retry", ob.Retry, "err", err)
			if err := r.repo.MarkFailed(ctx, ob.ID); err != nil {
				r.log.Error("outbox mark failed", "id", ob.ID, "err", err)
			}
			continue
		}
		if err := r.repo.MarkSent(ctx, ob.ID); err != nil {
			r.log.Error("outbox mark sent", "id", ob.ID, "err", err)
		}
	}
}

// KafkaSender publishes the stored payload keyed by recipient so one user's notices stay ordered.
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.NotificationOutbox) error {
		return p.Send(ctx, ob.Recipient, []byte(ob.Payload))
	}
}

// NotifierSender delivers outbox rows in-process. Used when no broker is configured.
func NotifierSender(n IntentNotifier) Sender {
	return func(ctx context.Context, ob *model.NotificationOutbox) error {
		var intent model.Intent
		if err := json.Unmarshal([]byte(ob.Payload), &intent); err != nil {
			return nil
		}
		if _, err := n.Notify(ctx, intent); err != nil && retryable(err) {
			return err
		}
		return nil
	}
}

// IntentHandler turns broker messages into deliveries. Malformed or permanently
// undeliverable messages return nil so the consumer commits past them.
func IntentHandler(n IntentNotifier, dedup *redis.DedupRepository, log *slog.Logger) func(ctx context.Context, key, value []byte) error {
	return func(ctx context.Context, _, value []byte) error {
		var intent model.Intent
		if err := json.Unmarshal(value, &intent); err != nil {
			log.Warn("malformed notification message", "err", err)
			return nil
		}
		if dedup != nil {
			if seen, err := dedup.Seen(ctx, intent.Key()); err == nil && seen {
				return nil
			}
		}
		out, err := n.Notify(ctx, intent)
		if err != nil {
			if !retryable(err) {
				logDropped(log, intent, err, 1)
				return nil
			}
			return err
		}
		if dedup != nil && !out.Skipped() {
			if _, err := dedup.Mark(ctx, intent.Key()); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("dedup mark failed", "key", intent.Key(), "err", err)
			}
		}
		return nil
	}
}
