package models

import (
	"time"
)

type DeliveryOutcome string

const (
	DeliveryOutcomeProcessed DeliveryOutcome = "processed"
	DeliveryOutcomeRejected  DeliveryOutcome = "rejected"
	DeliveryOutcomeFailed    DeliveryOutcome = "failed"
)

// WebhookDelivery is the audit record for one authenticated gateway delivery.
// Recording is best-effort; the HTTP outcome never depends on it.
type WebhookDelivery struct {
	ID            string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	EventType     string          `json:"event_type" gorm:"not null"`
	PaymentID     string          `json:"payment_id" gorm:"index"`
	ReservationID string          `json:"reservation_id" gorm:"index"`
	Payload       JSON            `json:"payload" gorm:"type:jsonb"`
	Outcome       DeliveryOutcome `json:"outcome" gorm:"not null"`
	ResponseCode  int             `json:"response_code"`
	ErrorMessage  string          `json:"error_message"`
	Redelivered   bool            `json:"redelivered" gorm:"default:false"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime"`
}
