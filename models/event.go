package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type EventType string

const (
	EventPaymentCompleted EventType = "payment.completed"
	EventPaymentFailed    EventType = "payment.failed"
	EventPaymentCancelled EventType = "payment.cancelled"
)

var (
	ErrUnknownEventType     = errors.New("unknown event type")
	ErrMissingPaymentID     = errors.New("payment_id is required")
	ErrMissingReservationID = errors.New("reservation_id is required")
	ErrInvalidInstallment   = errors.New("installment_number must be a positive integer")
)

// PaymentEvent is the gateway notification envelope. It must only ever be
// built from bytes that already passed signature verification.
type PaymentEvent struct {
	Event EventType        `json:"event"`
	Data  PaymentEventData `json:"data"`
}

type PaymentEventData struct {
	PaymentID         string     `json:"payment_id"`
	ReservationID     string     `json:"reservation_id"`
	InstallmentNumber *int       `json:"installment_number,omitempty"`
	Amount            float64    `json:"amount,omitempty"`
	Currency          string     `json:"currency,omitempty"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`
	FailedReason      string     `json:"failed_reason,omitempty"`
}

// ParsePaymentEvent decodes and validates a raw notification body.
func ParsePaymentEvent(raw []byte) (*PaymentEvent, error) {
	var event PaymentEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("invalid webhook payload: %w", err)
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}

func (e *PaymentEvent) Validate() error {
	switch e.Event {
	case EventPaymentCompleted, EventPaymentFailed, EventPaymentCancelled:
	default:
		return ErrUnknownEventType
	}
	if e.Data.PaymentID == "" {
		return ErrMissingPaymentID
	}
	if e.Data.ReservationID == "" {
		return ErrMissingReservationID
	}
	if e.Data.InstallmentNumber != nil && *e.Data.InstallmentNumber < 1 {
		return ErrInvalidInstallment
	}
	return nil
}

// FirstInstallment reports whether the event settles the whole obligation up
// front: either a single full payment (no installment number) or the first
// installment of a plan.
func (e *PaymentEvent) FirstInstallment() bool {
	return e.Data.InstallmentNumber == nil || *e.Data.InstallmentNumber == 1
}
