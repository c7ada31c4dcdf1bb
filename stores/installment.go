package stores

import (
	"context"
	"time"

	"github.com/esaldgut/booking-payments/models"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

type InstallmentStore struct {
	BaseStore
}

func CreateInstallmentStore(db *gorm.DB) *InstallmentStore {
	return &InstallmentStore{BaseStore: BaseStore{db: db}}
}

// GetPlan reads the full installment plan for a reservation. The read is
// pinned to the primary: completion decisions must observe installment writes
// from concurrent deliveries, and replica lag would hide them.
func (s *InstallmentStore) GetPlan(ctx context.Context, reservationID string) (*models.InstallmentPlan, error) {
	var installments []models.Installment
	err := s.GetDB(ctx).
		Clauses(dbresolver.Write).
		Where("reservation_id = ?", reservationID).
		Order("number ASC").
		Find(&installments).Error
	if err != nil {
		return nil, err
	}
	if len(installments) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.InstallmentPlan{
		ReservationID: reservationID,
		Installments:  installments,
	}, nil
}

func (s *InstallmentStore) SetStatus(ctx context.Context, reservationID string, number int, status models.InstallmentStatus, paidDate *time.Time) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if paidDate != nil {
		updates["paid_date"] = *paidDate
	}

	result := s.GetDB(ctx).Model(&models.Installment{}).
		Where("reservation_id = ? AND number = ?", reservationID, number).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
