package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/esaldgut/booking-payments/models"
	"github.com/esaldgut/booking-payments/utils"
	"gorm.io/gorm"
)

var (
	ErrPlanNotFound = errors.New("installment plan not found")
	ErrUnknownEvent = errors.New("unknown event type")
)

// PlanResolver reads the current installment plan for a reservation. Consulted
// only when an event concerns a non-first installment.
type PlanResolver interface {
	GetPlan(ctx context.Context, reservationID string) (*models.InstallmentPlan, error)
}

// PersistenceGateway durably records installment and reservation status. The
// two writes are independent: no transaction spans them.
type PersistenceGateway interface {
	SetInstallmentStatus(ctx context.Context, reservationID string, number int, status models.InstallmentStatus, paidDate *time.Time) error
	SetReservationStatus(ctx context.Context, reservationID string, status models.ReservationStatus) error
}

// Decision is the outcome of the settlement table for one event.
type Decision struct {
	ReservationStatus   models.ReservationStatus
	MarkInstallmentPaid bool
	InstallmentNumber   int
	PaidDate            time.Time
}

// Decide maps (event type, installment position, plan completion state) to the
// next reservation status. Pure; plan may be nil except for completed events
// beyond the first installment.
func Decide(event *models.PaymentEvent, plan *models.InstallmentPlan, now time.Time) (Decision, error) {
	switch event.Event {
	case models.EventPaymentCompleted:
		paidDate := now
		if event.Data.PaidAt != nil {
			paidDate = *event.Data.PaidAt
		}

		decision := Decision{PaidDate: paidDate}
		if event.Data.InstallmentNumber != nil {
			decision.MarkInstallmentPaid = true
			decision.InstallmentNumber = *event.Data.InstallmentNumber
		}

		// The first payment unlocks service: a full payment or the first
		// installment settles the reservation immediately, with later
		// installments tracked on their own.
		if event.FirstInstallment() {
			decision.ReservationStatus = models.ReservationStatusProcessed
			return decision, nil
		}

		if plan == nil {
			return Decision{}, ErrPlanNotFound
		}
		if planFullyPaidWith(plan, decision.InstallmentNumber) {
			decision.ReservationStatus = models.ReservationStatusProcessed
		} else {
			decision.ReservationStatus = models.ReservationStatusMITPaymentPending
		}
		return decision, nil

	case models.EventPaymentFailed:
		// A failure does not regress the plan; it stays pending for retry.
		return Decision{ReservationStatus: models.ReservationStatusMITPaymentPending}, nil

	case models.EventPaymentCancelled:
		return Decision{ReservationStatus: models.ReservationStatusAwaitingManualPayment}, nil

	default:
		// The parser already rejects these; rejected again here so the table
		// never acts on an event it does not know.
		return Decision{}, ErrUnknownEvent
	}
}

// planFullyPaidWith counts installments already paid unioned with the one
// being processed. The union exists because this check may run before the
// current installment's write is durable; the decision must not depend on
// write-then-read consistency the store does not guarantee.
func planFullyPaidWith(plan *models.InstallmentPlan, number int) bool {
	paid := 0
	for _, inst := range plan.Installments {
		if inst.Status == models.InstallmentStatusPaid || inst.Number == number {
			paid++
		}
	}
	return paid == len(plan.Installments)
}

// SettlementResult describes what a processed event did.
type SettlementResult struct {
	ReservationID     string
	ReservationStatus models.ReservationStatus
	InstallmentPaid   bool
	InstallmentNumber int
}

type SettlementService struct {
	resolver    PlanResolver
	gateway     PersistenceGateway
	callTimeout time.Duration
}

func NewSettlementService(resolver PlanResolver, gateway PersistenceGateway, callTimeout time.Duration) *SettlementService {
	if callTimeout <= 0 {
		callTimeout = 5 * time.Second
	}
	return &SettlementService{
		resolver:    resolver,
		gateway:     gateway,
		callTimeout: callTimeout,
	}
}

// Process advances a reservation's payment state for one authenticated,
// parsed event. The installment write is best-effort; the reservation write
// is authoritative and fatal on failure.
func (s *SettlementService) Process(ctx context.Context, event *models.PaymentEvent) (*SettlementResult, error) {
	now := time.Now()
	reservationID := event.Data.ReservationID

	needsPlan := event.Event == models.EventPaymentCompleted && !event.FirstInstallment()

	var plan *models.InstallmentPlan
	if needsPlan {
		var err error
		plan, err = s.resolvePlan(ctx, reservationID)
		if err != nil {
			return nil, err
		}
	}

	decision, err := Decide(event, plan, now)
	if err != nil {
		return nil, err
	}

	installmentPaid := false
	if decision.MarkInstallmentPaid {
		if err := s.markInstallmentPaid(ctx, reservationID, decision); err != nil {
			// Best-effort relative to the reservation write: the reservation
			// status is the signal the rest of the system observes, and a
			// redelivery repairs the installment record.
			utils.Warn(ctx, "installment update failed", map[string]interface{}{
				"reservation_id": reservationID,
				"installment":    decision.InstallmentNumber,
				"error":          err.Error(),
			})
		} else {
			installmentPaid = true
		}
	}

	if needsPlan {
		// Re-read after the installment write so completions from concurrent
		// deliveries are observed; fall back to the pre-write snapshot when
		// the re-read fails. The union in planFullyPaidWith still counts the
		// current installment either way.
		if fresh, err := s.resolvePlan(ctx, reservationID); err == nil {
			decision, err = Decide(event, fresh, now)
			if err != nil {
				return nil, err
			}
		} else {
			utils.Warn(ctx, "plan re-read failed, deciding from initial snapshot", map[string]interface{}{
				"reservation_id": reservationID,
				"error":          err.Error(),
			})
		}
	}

	if err := s.setReservationStatus(ctx, reservationID, decision.ReservationStatus); err != nil {
		return nil, fmt.Errorf("failed to update reservation %s: %w", reservationID, err)
	}

	return &SettlementResult{
		ReservationID:     reservationID,
		ReservationStatus: decision.ReservationStatus,
		InstallmentPaid:   installmentPaid,
		InstallmentNumber: decision.InstallmentNumber,
	}, nil
}

func (s *SettlementService) resolvePlan(ctx context.Context, reservationID string) (*models.InstallmentPlan, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	plan, err := s.resolver.GetPlan(ctx, reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: reservation %s", ErrPlanNotFound, reservationID)
		}
		return nil, fmt.Errorf("failed to resolve installment plan for reservation %s: %w", reservationID, err)
	}
	return plan, nil
}

func (s *SettlementService) markInstallmentPaid(ctx context.Context, reservationID string, decision Decision) error {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	paidDate := decision.PaidDate
	return s.gateway.SetInstallmentStatus(ctx, reservationID, decision.InstallmentNumber,
		models.InstallmentStatusPaid, &paidDate)
}

func (s *SettlementService) setReservationStatus(ctx context.Context, reservationID string, status models.ReservationStatus) error {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	return s.gateway.SetReservationStatus(ctx, reservationID, status)
}
