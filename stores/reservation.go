package stores

import (
	"context"

	"github.com/esaldgut/booking-payments/models"
	"gorm.io/gorm"
)

type ReservationStore struct {
	BaseStore
}

func CreateReservationStore(db *gorm.DB) *ReservationStore {
	return &ReservationStore{BaseStore: BaseStore{db: db}}
}

func (s *ReservationStore) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := s.GetDB(ctx).First(&reservation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// UpdateStatus is the authoritative settlement write. Last write wins; the
// store performs no locking of its own.
func (s *ReservationStore) UpdateStatus(ctx context.Context, id string, status models.ReservationStatus) error {
	result := s.GetDB(ctx).Model(&models.Reservation{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
