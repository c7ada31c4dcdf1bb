package models

import (
	"errors"
	"testing"
)

func TestParsePaymentEvent(t *testing.T) {
	raw := []byte(`{
		"event": "payment.completed",
		"data": {
			"payment_id": "pay_123",
			"reservation_id": "res_123",
			"installment_number": 2,
			"amount": 1500.50,
			"currency": "MXN"
		}
	}`)

	event, err := ParsePaymentEvent(raw)
	if err != nil {
		t.Fatalf("ParsePaymentEvent() error = %v", err)
	}

	if event.Event != EventPaymentCompleted {
		t.Errorf("ParsePaymentEvent() event = %s, want %s", event.Event, EventPaymentCompleted)
	}
	if event.Data.ReservationID != "res_123" {
		t.Errorf("ParsePaymentEvent() reservation_id = %s, want res_123", event.Data.ReservationID)
	}
	if event.Data.InstallmentNumber == nil || *event.Data.InstallmentNumber != 2 {
		t.Errorf("ParsePaymentEvent() installment_number = %v, want 2", event.Data.InstallmentNumber)
	}
}

func TestParsePaymentEvent_MalformedJSON(t *testing.T) {
	if _, err := ParsePaymentEvent([]byte(`not json`)); err == nil {
		t.Error("ParsePaymentEvent() error = nil, want error for malformed JSON")
	}
}

func TestParsePaymentEvent_UnknownEventType(t *testing.T) {
	raw := []byte(`{"event":"payment.refunded","data":{"payment_id":"p1","reservation_id":"r1"}}`)

	_, err := ParsePaymentEvent(raw)
	if !errors.Is(err, ErrUnknownEventType) {
		t.Errorf("ParsePaymentEvent() error = %v, want %v", err, ErrUnknownEventType)
	}
}

func TestParsePaymentEvent_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{
			name: "missing payment_id",
			raw:  `{"event":"payment.completed","data":{"reservation_id":"r1"}}`,
			want: ErrMissingPaymentID,
		},
		{
			name: "missing reservation_id",
			raw:  `{"event":"payment.completed","data":{"payment_id":"p1"}}`,
			want: ErrMissingReservationID,
		},
		{
			name: "zero installment number",
			raw:  `{"event":"payment.completed","data":{"payment_id":"p1","reservation_id":"r1","installment_number":0}}`,
			want: ErrInvalidInstallment,
		},
		{
			name: "negative installment number",
			raw:  `{"event":"payment.completed","data":{"payment_id":"p1","reservation_id":"r1","installment_number":-3}}`,
			want: ErrInvalidInstallment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePaymentEvent([]byte(tt.raw))
			if !errors.Is(err, tt.want) {
				t.Errorf("ParsePaymentEvent() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPaymentEvent_FirstInstallment(t *testing.T) {
	one, two := 1, 2

	tests := []struct {
		name   string
		number *int
		want   bool
	}{
		{"absent means full payment", nil, true},
		{"first installment", &one, true},
		{"later installment", &two, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &PaymentEvent{Data: PaymentEventData{InstallmentNumber: tt.number}}
			if got := event.FirstInstallment(); got != tt.want {
				t.Errorf("FirstInstallment() = %v, want %v", got, tt.want)
			}
		})
	}
}
