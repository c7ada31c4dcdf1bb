package stores

import (
	"context"
	"time"

	"github.com/esaldgut/booking-payments/models"
)

// SettlementGateway adapts the reservation and installment stores to the
// settlement service's persistence contract. The two writes are deliberately
// independent calls: the external store offers no transaction spanning both
// aggregates, and collapsing them would hide the best-effort/fatal asymmetry.
type SettlementGateway struct {
	reservations *ReservationStore
	installments *InstallmentStore
}

func CreateSettlementGateway(reservations *ReservationStore, installments *InstallmentStore) *SettlementGateway {
	return &SettlementGateway{
		reservations: reservations,
		installments: installments,
	}
}

func (g *SettlementGateway) SetInstallmentStatus(ctx context.Context, reservationID string, number int, status models.InstallmentStatus, paidDate *time.Time) error {
	return g.installments.SetStatus(ctx, reservationID, number, status, paidDate)
}

func (g *SettlementGateway) SetReservationStatus(ctx context.Context, reservationID string, status models.ReservationStatus) error {
	return g.reservations.UpdateStatus(ctx, reservationID, status)
}
