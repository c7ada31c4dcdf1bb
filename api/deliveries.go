package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/esaldgut/booking-payments/cache"
	"github.com/esaldgut/booking-payments/models"
	"github.com/esaldgut/booking-payments/utils"
	"github.com/gorilla/mux"
)

const deliveryListCacheTTL = 30 * time.Second

type DeliveryLister interface {
	ListRecent(ctx context.Context, outcome *models.DeliveryOutcome, limit, offset int) ([]*models.WebhookDelivery, error)
}

type DeliveryListResponse struct {
	Success    bool                      `json:"success"`
	Count      int                       `json:"count"`
	Deliveries []*models.WebhookDelivery `json:"deliveries"`
}

// DeliveryHandler serves the ops view over recorded webhook deliveries.
type DeliveryHandler struct {
	store DeliveryLister
	cache *cache.RedisCache
}

func CreateDeliveryHandler(store DeliveryLister, redisCache *cache.RedisCache) *DeliveryHandler {
	return &DeliveryHandler{
		store: store,
		cache: redisCache,
	}
}

func (h *DeliveryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	limit, _ := strconv.Atoi(query.Get("limit"))
	limit = clampLimit(limit)
	offset, _ := strconv.Atoi(query.Get("offset"))

	var outcome *models.DeliveryOutcome
	if raw := query.Get("outcome"); raw != "" {
		candidate := models.DeliveryOutcome(raw)
		switch candidate {
		case models.DeliveryOutcomeProcessed, models.DeliveryOutcomeRejected, models.DeliveryOutcomeFailed:
			outcome = &candidate
		default:
			writeJSON(w, http.StatusBadRequest, WebhookResponse{Success: false, Error: "invalid outcome filter"})
			return
		}
	}

	cacheKey := h.cacheKey(outcome, limit, offset)
	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, cacheKey); err == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(cached))
			return
		}
	}

	deliveries, err := h.store.ListRecent(ctx, outcome, limit, offset)
	if err != nil {
		utils.Error(ctx, "failed to list webhook deliveries", map[string]interface{}{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, WebhookResponse{Success: false, Error: "failed to list deliveries"})
		return
	}

	response := DeliveryListResponse{
		Success:    true,
		Count:      len(deliveries),
		Deliveries: deliveries,
	}

	if h.cache != nil {
		if encoded, err := json.Marshal(response); err == nil {
			h.cache.SetWithTTL(ctx, cacheKey, encoded, deliveryListCacheTTL)
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *DeliveryHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/webhook-deliveries", h.HandleList).Methods("GET")
}

func (h *DeliveryHandler) cacheKey(outcome *models.DeliveryOutcome, limit, offset int) string {
	filter := "all"
	if outcome != nil {
		filter = string(*outcome)
	}
	return fmt.Sprintf("webhook_deliveries:%s:%d:%d", filter, limit, offset)
}
