package stores

import (
	"context"
	"time"

	"github.com/esaldgut/booking-payments/models"
	"gorm.io/gorm"
)

type WebhookDeliveryStore struct {
	BaseStore
}

func CreateWebhookDeliveryStore(db *gorm.DB) *WebhookDeliveryStore {
	return &WebhookDeliveryStore{BaseStore: BaseStore{db: db}}
}

func (s *WebhookDeliveryStore) Record(ctx context.Context, delivery *models.WebhookDelivery) error {
	return s.GetDB(ctx).Create(delivery).Error
}

func (s *WebhookDeliveryStore) ListRecent(ctx context.Context, outcome *models.DeliveryOutcome, limit, offset int) ([]*models.WebhookDelivery, error) {
	var deliveries []*models.WebhookDelivery
	query := s.GetDB(ctx).Model(&models.WebhookDelivery{})

	if outcome != nil {
		query = query.Where("outcome = ?", *outcome)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Order("created_at DESC").Find(&deliveries).Error; err != nil {
		return nil, err
	}
	return deliveries, nil
}

func (s *WebhookDeliveryStore) CountByOutcome(ctx context.Context, outcome models.DeliveryOutcome) (int64, error) {
	var count int64
	err := s.GetDB(ctx).Model(&models.WebhookDelivery{}).
		Where("outcome = ?", outcome).
		Count(&count).Error
	return count, err
}

func (s *WebhookDeliveryStore) CleanupOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	result := s.GetDB(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.WebhookDelivery{})
	return result.RowsAffected, result.Error
}
