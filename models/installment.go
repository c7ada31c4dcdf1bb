package models

import (
	"time"
)

type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "pending"
	InstallmentStatusPaid    InstallmentStatus = "paid"
)

// Installment is one entry of a reservation's payment plan. Numbers are
// contiguous starting at 1; the total count is fixed when the plan is created.
type Installment struct {
	ID            string            `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ReservationID string            `json:"reservation_id" gorm:"not null;index"`
	Number        int               `json:"number" gorm:"not null"`
	Status        InstallmentStatus `json:"status" gorm:"not null;default:'pending'"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	DueDate       *time.Time        `json:"due_date"`
	PaidDate      *time.Time        `json:"paid_date"`
	CreatedAt     time.Time         `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time         `json:"updated_at" gorm:"autoUpdateTime"`
}

type InstallmentPlan struct {
	ReservationID string        `json:"reservation_id"`
	Installments  []Installment `json:"installments"`
}
