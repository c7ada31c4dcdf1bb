package testing

import (
	"context"
	"time"

	"github.com/esaldgut/booking-payments/models"
)

func MockPaymentEvent(eventType models.EventType, installment *int) *models.PaymentEvent {
	return &models.PaymentEvent{
		Event: eventType,
		Data: models.PaymentEventData{
			PaymentID:         "pay_test123",
			ReservationID:     "res_test123",
			InstallmentNumber: installment,
			Amount:            1500,
			Currency:          "MXN",
		},
	}
}

func MockInstallmentPlan(reservationID string, statuses ...models.InstallmentStatus) *models.InstallmentPlan {
	plan := &models.InstallmentPlan{ReservationID: reservationID}
	for i, status := range statuses {
		plan.Installments = append(plan.Installments, models.Installment{
			ReservationID: reservationID,
			Number:        i + 1,
			Status:        status,
			Amount:        500,
			Currency:      "MXN",
		})
	}
	return plan
}

func MockReservation(status models.ReservationStatus) *models.Reservation {
	return &models.Reservation{
		ID:          "res_test123",
		UserID:      "usr_test123",
		ProductID:   "prod_test123",
		Status:      status,
		TotalAmount: 1500,
		Currency:    "MXN",
	}
}

func MockWebhookDelivery(outcome models.DeliveryOutcome) *models.WebhookDelivery {
	return &models.WebhookDelivery{
		EventType:     string(models.EventPaymentCompleted),
		PaymentID:     "pay_test123",
		ReservationID: "res_test123",
		Outcome:       outcome,
		ResponseCode:  200,
	}
}

func MockContext() context.Context {
	return context.Background()
}

func MockContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
