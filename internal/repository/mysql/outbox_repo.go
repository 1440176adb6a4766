package mysql

import (
	"context"
	"encoding/json"

	"mamane/internal/model"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

func (r *OutboxRepository) Insert(ctx context.Context, intent model.Intent) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Create(&model.NotificationOutbox{
		EventType: intent.Type,
		PostID:    intent.PostID,
		Recipient: intent.RecipientUserID,
		Payload:   string(payload),
		Status:    model.OutboxPending,
	}).Error
}

// ListRetryable returns pending rows and failed rows still under maxRetry, oldest first.
func (r *OutboxRepository) ListRetryable(ctx context.Context, batchSize, maxRetry int) ([]model.NotificationOutbox, error) {
	var list []model.NotificationOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = ? OR (status = ? AND retry < ?)", model.OutboxPending, model.OutboxFailed, maxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.NotificationOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.NotificationOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}
