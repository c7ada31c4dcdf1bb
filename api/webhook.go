package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/esaldgut/booking-payments/models"
	"github.com/esaldgut/booking-payments/services"
	"github.com/esaldgut/booking-payments/utils"
	"github.com/gorilla/mux"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Payment-Signature"

const redeliveryMarkerTTL = 24 * time.Hour

type SettlementProcessor interface {
	Process(ctx context.Context, event *models.PaymentEvent) (*services.SettlementResult, error)
}

type DeliveryRecorder interface {
	Record(ctx context.Context, delivery *models.WebhookDelivery) error
}

// RedeliveryMarker remembers recently seen deliveries so redeliveries can be
// tagged in the audit trail. First return value reports whether this is the
// first sighting. Purely observational; correctness never depends on it.
type RedeliveryMarker interface {
	MarkDelivered(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type WebhookHandler struct {
	verifier    *services.SignatureVerifier
	settlements SettlementProcessor
	deliveries  DeliveryRecorder
	marker      RedeliveryMarker
	metrics     *utils.MetricsCollector
}

// CreateWebhookHandler wires the payment webhook endpoint. deliveries and
// marker may be nil; both are best-effort collaborators.
func CreateWebhookHandler(
	verifier *services.SignatureVerifier,
	settlements SettlementProcessor,
	deliveries DeliveryRecorder,
	marker RedeliveryMarker,
	metrics *utils.MetricsCollector,
) *WebhookHandler {
	return &WebhookHandler{
		verifier:    verifier,
		settlements: settlements,
		deliveries:  deliveries,
		marker:      marker,
		metrics:     metrics,
	}
}

// HandlePaymentWebhook processes one gateway notification:
// verify, parse, settle, respond. Verification runs strictly before parsing so
// unauthenticated input is never interpreted, and a 401 leaves no side effects.
func (h *WebhookHandler) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.metrics.RecordDelivery("received")

	// Fail closed: without a secret, unsigned input must never be accepted.
	if !h.verifier.Configured() {
		h.metrics.RecordDelivery("failed")
		writeWebhookError(w, http.StatusInternalServerError, "webhook secret not configured")
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeWebhookError(w, http.StatusBadRequest, "failed to read webhook payload")
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		h.metrics.RecordDelivery("unauthorized")
		writeWebhookError(w, http.StatusUnauthorized, "Missing signature")
		return
	}

	if !h.verifier.Verify(payload, signature) {
		h.metrics.RecordDelivery("unauthorized")
		writeWebhookError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	event, err := models.ParsePaymentEvent(payload)
	if err != nil {
		message := validationMessage(err)
		h.metrics.RecordDelivery("rejected")
		h.recordDelivery(ctx, payload, nil, models.DeliveryOutcomeRejected, http.StatusBadRequest, message, false)
		writeWebhookError(w, http.StatusBadRequest, message)
		return
	}

	redelivered := h.checkRedelivered(ctx, event)

	result, err := h.settlements.Process(ctx, event)
	if err != nil {
		status, message := settlementError(err)
		utils.Error(ctx, "webhook settlement failed", map[string]interface{}{
			"reservation_id": event.Data.ReservationID,
			"event":          string(event.Event),
			"error":          err.Error(),
		})
		h.metrics.RecordDelivery("failed")
		h.recordDelivery(ctx, payload, event, models.DeliveryOutcomeFailed, status, message, redelivered)
		writeWebhookError(w, status, message)
		return
	}

	h.metrics.RecordDelivery("processed")
	h.metrics.RecordSettlement(string(result.ReservationStatus))
	h.recordDelivery(ctx, payload, event, models.DeliveryOutcomeProcessed, http.StatusOK, "", redelivered)

	writeJSON(w, http.StatusOK, WebhookResponse{
		Success:       true,
		Message:       fmt.Sprintf("reservation settled with status %s", result.ReservationStatus),
		ReservationID: result.ReservationID,
	})
}

// HandleWebhookHealth lets the gateway probe whether the endpoint is live and
// configured.
func (h *WebhookHandler) HandleWebhookHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, WebhookHealthResponse{
		Success:    true,
		Configured: h.verifier.Configured(),
	})
}

func (h *WebhookHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/webhooks/payment", h.HandlePaymentWebhook).Methods("POST")
	router.HandleFunc("/webhooks/payment", h.HandleWebhookHealth).Methods("GET")
}

func (h *WebhookHandler) checkRedelivered(ctx context.Context, event *models.PaymentEvent) bool {
	if h.marker == nil {
		return false
	}

	key := fmt.Sprintf("webhook:delivered:%s:%s", event.Data.PaymentID, event.Event)
	first, err := h.marker.MarkDelivered(ctx, key, redeliveryMarkerTTL)
	if err != nil {
		utils.Debug(ctx, "redelivery marker unavailable", map[string]interface{}{"error": err.Error()})
		return false
	}
	return !first
}

func (h *WebhookHandler) recordDelivery(ctx context.Context, payload []byte, event *models.PaymentEvent, outcome models.DeliveryOutcome, code int, errMsg string, redelivered bool) {
	if h.deliveries == nil {
		return
	}

	delivery := &models.WebhookDelivery{
		Outcome:      outcome,
		ResponseCode: code,
		ErrorMessage: errMsg,
		Redelivered:  redelivered,
	}
	if event != nil {
		delivery.EventType = string(event.Event)
		delivery.PaymentID = event.Data.PaymentID
		delivery.ReservationID = event.Data.ReservationID
	}

	var body models.JSON
	if json.Unmarshal(payload, &body) == nil {
		delivery.Payload = body
	}

	if err := h.deliveries.Record(ctx, delivery); err != nil {
		utils.Warn(ctx, "failed to record webhook delivery", map[string]interface{}{"error": err.Error()})
	}
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrUnknownEventType):
		return "Unknown event type"
	case errors.Is(err, models.ErrMissingPaymentID),
		errors.Is(err, models.ErrMissingReservationID),
		errors.Is(err, models.ErrInvalidInstallment):
		return err.Error()
	default:
		return "Invalid webhook payload"
	}
}

func settlementError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrUnknownEvent):
		return http.StatusBadRequest, "Unknown event type"
	case errors.Is(err, services.ErrPlanNotFound):
		return http.StatusInternalServerError, "installment plan not found"
	default:
		return http.StatusInternalServerError, "failed to process payment event"
	}
}
