package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/esaldgut/booking-payments/models"
	"gorm.io/gorm"
)

func intPtr(n int) *int { return &n }

func completedEvent(installment *int) *models.PaymentEvent {
	return &models.PaymentEvent{
		Event: models.EventPaymentCompleted,
		Data: models.PaymentEventData{
			PaymentID:         "pay_123",
			ReservationID:     "res_123",
			InstallmentNumber: installment,
			Amount:            100,
			Currency:          "MXN",
		},
	}
}

func planOf(statuses ...models.InstallmentStatus) *models.InstallmentPlan {
	plan := &models.InstallmentPlan{ReservationID: "res_123"}
	for i, status := range statuses {
		plan.Installments = append(plan.Installments, models.Installment{
			ReservationID: "res_123",
			Number:        i + 1,
			Status:        status,
		})
	}
	return plan
}

func TestDecide_CompletedFullPayment(t *testing.T) {
	decision, err := Decide(completedEvent(nil), nil, time.Now())
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decision.ReservationStatus != models.ReservationStatusProcessed {
		t.Errorf("Decide() status = %s, want %s", decision.ReservationStatus, models.ReservationStatusProcessed)
	}
	if decision.MarkInstallmentPaid {
		t.Error("Decide() MarkInstallmentPaid = true, want false without an installment number")
	}
}

func TestDecide_CompletedFirstInstallmentShortCircuits(t *testing.T) {
	// First installment of a 3-installment plan settles the reservation
	// regardless of installments 2-3. No plan is even required.
	decision, err := Decide(completedEvent(intPtr(1)), nil, time.Now())
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decision.ReservationStatus != models.ReservationStatusProcessed {
		t.Errorf("Decide() status = %s, want %s", decision.ReservationStatus, models.ReservationStatusProcessed)
	}
	if !decision.MarkInstallmentPaid || decision.InstallmentNumber != 1 {
		t.Errorf("Decide() installment = (%v, %d), want installment 1 marked paid",
			decision.MarkInstallmentPaid, decision.InstallmentNumber)
	}
}

func TestDecide_CompletedLastInstallment(t *testing.T) {
	plan := planOf(models.InstallmentStatusPaid, models.InstallmentStatusPending)

	decision, err := Decide(completedEvent(intPtr(2)), plan, time.Now())
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decision.ReservationStatus != models.ReservationStatusProcessed {
		t.Errorf("Decide() status = %s, want %s", decision.ReservationStatus, models.ReservationStatusProcessed)
	}
	if !decision.MarkInstallmentPaid || decision.InstallmentNumber != 2 {
		t.Errorf("Decide() installment = (%v, %d), want installment 2 marked paid",
			decision.MarkInstallmentPaid, decision.InstallmentNumber)
	}
}

func TestDecide_CompletedMiddleInstallment(t *testing.T) {
	plan := planOf(models.InstallmentStatusPaid, models.InstallmentStatusPending, models.InstallmentStatusPending)

	decision, err := Decide(completedEvent(intPtr(2)), plan, time.Now())
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decision.ReservationStatus != models.ReservationStatusMITPaymentPending {
		t.Errorf("Decide() status = %s, want %s", decision.ReservationStatus, models.ReservationStatusMITPaymentPending)
	}
}

func TestDecide_CompletedCountsCurrentInstallmentBeforePersist(t *testing.T) {
	// The store still shows installment 2 pending; the union rule must count
	// it anyway so the decision does not depend on write-then-read
	// consistency.
	plan := planOf(models.InstallmentStatusPaid, models.InstallmentStatusPending)

	decision, err := Decide(completedEvent(intPtr(2)), plan, time.Now())
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decision.ReservationStatus != models.ReservationStatusProcessed {
		t.Errorf("Decide() status = %s, want %s", decision.ReservationStatus, models.ReservationStatusProcessed)
	}
}

func TestDecide_CompletedAlreadyPaidInstallmentIsIdempotent(t *testing.T) {
	plan := planOf(models.InstallmentStatusPaid, models.InstallmentStatusPaid)

	decision, err := Decide(completedEvent(intPtr(2)), plan, time.Now())
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decision.ReservationStatus != models.ReservationStatusProcessed {
		t.Errorf("Decide() status = %s, want %s", decision.ReservationStatus, models.ReservationStatusProcessed)
	}
}

func TestDecide_CompletedMultiInstallmentWithoutPlan(t *testing.T) {
	_, err := Decide(completedEvent(intPtr(2)), nil, time.Now())
	if !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("Decide() error = %v, want %v", err, ErrPlanNotFound)
	}
}

func TestDecide_Failed(t *testing.T) {
	event := &models.PaymentEvent{
		Event: models.EventPaymentFailed,
		Data: models.PaymentEventData{
			PaymentID:         "pay_123",
			ReservationID:     "res_123",
			InstallmentNumber: intPtr(2),
			FailedReason:      "insufficient_funds",
		},
	}

	decision, err := Decide(event, nil, time.Now())
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decision.ReservationStatus != models.ReservationStatusMITPaymentPending {
		t.Errorf("Decide() status = %s, want %s", decision.ReservationStatus, models.ReservationStatusMITPaymentPending)
	}
	if decision.MarkInstallmentPaid {
		t.Error("Decide() MarkInstallmentPaid = true, want false for a failed payment")
	}
}

func TestDecide_Cancelled(t *testing.T) {
	event := &models.PaymentEvent{
		Event: models.EventPaymentCancelled,
		Data:  models.PaymentEventData{PaymentID: "pay_123", ReservationID: "res_123"},
	}

	decision, err := Decide(event, nil, time.Now())
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decision.ReservationStatus != models.ReservationStatusAwaitingManualPayment {
		t.Errorf("Decide() status = %s, want %s", decision.ReservationStatus, models.ReservationStatusAwaitingManualPayment)
	}
}

func TestDecide_UnknownEvent(t *testing.T) {
	event := &models.PaymentEvent{
		Event: "payment.refunded",
		Data:  models.PaymentEventData{PaymentID: "pay_123", ReservationID: "res_123"},
	}

	if _, err := Decide(event, nil, time.Now()); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("Decide() error = %v, want %v", err, ErrUnknownEvent)
	}
}

func TestDecide_PaidDateFromEvent(t *testing.T) {
	paidAt := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	event := completedEvent(intPtr(1))
	event.Data.PaidAt = &paidAt

	decision, err := Decide(event, nil, time.Now())
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if !decision.PaidDate.Equal(paidAt) {
		t.Errorf("Decide() PaidDate = %v, want %v", decision.PaidDate, paidAt)
	}
}

type mockResolver struct {
	plans map[string]*models.InstallmentPlan
	calls int
	err   error
}

func (m *mockResolver) GetPlan(ctx context.Context, reservationID string) (*models.InstallmentPlan, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	plan, ok := m.plans[reservationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return plan, nil
}

type mockGateway struct {
	installmentCalls   int
	reservationCalls   int
	lastReservation    string
	lastStatus         models.ReservationStatus
	lastInstallment    int
	installmentErr     error
	reservationErr     error
	onInstallmentWrite func()
}

func (m *mockGateway) SetInstallmentStatus(ctx context.Context, reservationID string, number int, status models.InstallmentStatus, paidDate *time.Time) error {
	m.installmentCalls++
	m.lastInstallment = number
	if m.onInstallmentWrite != nil {
		m.onInstallmentWrite()
	}
	return m.installmentErr
}

func (m *mockGateway) SetReservationStatus(ctx context.Context, reservationID string, status models.ReservationStatus) error {
	m.reservationCalls++
	m.lastReservation = reservationID
	m.lastStatus = status
	return m.reservationErr
}

func TestSettlementService_Process_FullPayment(t *testing.T) {
	resolver := &mockResolver{}
	gateway := &mockGateway{}
	service := NewSettlementService(resolver, gateway, time.Second)

	result, err := service.Process(context.Background(), completedEvent(nil))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if result.ReservationStatus != models.ReservationStatusProcessed {
		t.Errorf("Process() status = %s, want %s", result.ReservationStatus, models.ReservationStatusProcessed)
	}
	if resolver.calls != 0 {
		t.Errorf("Process() resolver calls = %d, want 0 for a full payment", resolver.calls)
	}
	if gateway.installmentCalls != 0 {
		t.Errorf("Process() installment writes = %d, want 0", gateway.installmentCalls)
	}
	if gateway.reservationCalls != 1 {
		t.Errorf("Process() reservation writes = %d, want 1", gateway.reservationCalls)
	}
}

func TestSettlementService_Process_LastInstallment(t *testing.T) {
	resolver := &mockResolver{plans: map[string]*models.InstallmentPlan{
		"res_123": planOf(models.InstallmentStatusPaid, models.InstallmentStatusPending),
	}}
	gateway := &mockGateway{}
	service := NewSettlementService(resolver, gateway, time.Second)

	result, err := service.Process(context.Background(), completedEvent(intPtr(2)))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if result.ReservationStatus != models.ReservationStatusProcessed {
		t.Errorf("Process() status = %s, want %s", result.ReservationStatus, models.ReservationStatusProcessed)
	}
	if !result.InstallmentPaid || result.InstallmentNumber != 2 {
		t.Errorf("Process() installment = (%v, %d), want installment 2 paid", result.InstallmentPaid, result.InstallmentNumber)
	}
	if gateway.installmentCalls != 1 {
		t.Errorf("Process() installment writes = %d, want 1", gateway.installmentCalls)
	}
	// Initial resolve plus the post-write re-read.
	if resolver.calls != 2 {
		t.Errorf("Process() resolver calls = %d, want 2", resolver.calls)
	}
}

func TestSettlementService_Process_ObservesConcurrentCompletion(t *testing.T) {
	// Installment 1's delivery lands between this request's plan snapshot and
	// its re-read. The recomputation must pick it up and settle the
	// reservation instead of leaving it pending.
	resolver := &mockResolver{plans: map[string]*models.InstallmentPlan{
		"res_123": planOf(models.InstallmentStatusPending, models.InstallmentStatusPending, models.InstallmentStatusPending),
	}}
	gateway := &mockGateway{}
	gateway.onInstallmentWrite = func() {
		resolver.plans["res_123"] = planOf(
			models.InstallmentStatusPaid, models.InstallmentStatusPaid, models.InstallmentStatusPending)
	}
	service := NewSettlementService(resolver, gateway, time.Second)

	result, err := service.Process(context.Background(), completedEvent(intPtr(3)))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if result.ReservationStatus != models.ReservationStatusProcessed {
		t.Errorf("Process() status = %s, want %s", result.ReservationStatus, models.ReservationStatusProcessed)
	}
}

func TestSettlementService_Process_InstallmentWriteFailureIsNotFatal(t *testing.T) {
	resolver := &mockResolver{plans: map[string]*models.InstallmentPlan{
		"res_123": planOf(models.InstallmentStatusPaid, models.InstallmentStatusPending),
	}}
	gateway := &mockGateway{installmentErr: errors.New("write timeout")}
	service := NewSettlementService(resolver, gateway, time.Second)

	result, err := service.Process(context.Background(), completedEvent(intPtr(2)))
	if err != nil {
		t.Fatalf("Process() error = %v, want nil despite installment write failure", err)
	}
	if result.InstallmentPaid {
		t.Error("Process() InstallmentPaid = true, want false after a failed write")
	}
	if result.ReservationStatus != models.ReservationStatusProcessed {
		t.Errorf("Process() status = %s, want %s", result.ReservationStatus, models.ReservationStatusProcessed)
	}
	if gateway.reservationCalls != 1 {
		t.Errorf("Process() reservation writes = %d, want 1", gateway.reservationCalls)
	}
}

func TestSettlementService_Process_ReservationWriteFailureIsFatal(t *testing.T) {
	resolver := &mockResolver{}
	gateway := &mockGateway{reservationErr: errors.New("connection refused")}
	service := NewSettlementService(resolver, gateway, time.Second)

	if _, err := service.Process(context.Background(), completedEvent(nil)); err == nil {
		t.Error("Process() error = nil, want error when the reservation write fails")
	}
}

func TestSettlementService_Process_PlanNotFound(t *testing.T) {
	resolver := &mockResolver{}
	gateway := &mockGateway{}
	service := NewSettlementService(resolver, gateway, time.Second)

	_, err := service.Process(context.Background(), completedEvent(intPtr(2)))
	if !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("Process() error = %v, want %v", err, ErrPlanNotFound)
	}
	if gateway.reservationCalls != 0 {
		t.Errorf("Process() reservation writes = %d, want 0 when the plan is missing", gateway.reservationCalls)
	}
}

func TestSettlementService_Process_Idempotent(t *testing.T) {
	resolver := &mockResolver{}
	gateway := &mockGateway{}
	service := NewSettlementService(resolver, gateway, time.Second)

	event := completedEvent(nil)
	first, err := service.Process(context.Background(), event)
	if err != nil {
		t.Fatalf("Process() first delivery error = %v", err)
	}
	second, err := service.Process(context.Background(), event)
	if err != nil {
		t.Fatalf("Process() second delivery error = %v", err)
	}

	if first.ReservationStatus != second.ReservationStatus {
		t.Errorf("Process() redelivery status = %s, want %s", second.ReservationStatus, first.ReservationStatus)
	}
}
