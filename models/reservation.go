package models

import (
	"time"
)

type ReservationStatus string

const (
	// Pre-payment statuses are owned by the booking flow; the webhook core
	// only ever reads them.
	ReservationStatusPendingPayment ReservationStatus = "PENDING_PAYMENT"

	// Statuses written by the settlement core.
	ReservationStatusProcessed             ReservationStatus = "PROCESSED"
	ReservationStatusMITPaymentPending     ReservationStatus = "MIT_PAYMENT_PENDING"
	ReservationStatusAwaitingManualPayment ReservationStatus = "AWAITING_MANUAL_PAYMENT"
)

type Reservation struct {
	ID          string            `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UserID      string            `json:"user_id" gorm:"index"`
	ProductID   string            `json:"product_id" gorm:"index"`
	Status      ReservationStatus `json:"status" gorm:"not null;default:'PENDING_PAYMENT'"`
	TotalAmount float64           `json:"total_amount"`
	Currency    string            `json:"currency"`
	Metadata    JSON              `json:"metadata" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}
