package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/user/webhook"
	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/platform/observability"
)

// Handler содержит HTTP-обработчики для User Service
type Handler struct {
	logger     *zap.Logger
	dispatcher *webhook.Dispatcher
}

// NewHandler создаёт новый HTTP handler
func NewHandler(logger *zap.Logger, dispatcher *webhook.Dispatcher) *Handler {
	return &Handler{
		logger:     logger,
		dispatcher: dispatcher,
	}
}

// paymentWebhookRequest представляет тело webhook-уведомления платёжного провайдера
type paymentWebhookRequest struct {
	EventType       *string `json:"event_type"`
	PaymentID       *string `json:"payment_id"`
	PaymentIntentID *string `json:"payment_intent_id"`
}

// PostPaymentWebhook обрабатывает POST /webhooks/payment
//
// 200 — событие обработано либо тип события не поддерживается (ack + ignore,
// чтобы провайдер не ретраил бесконечно). 400 — тело не парсится или
// отсутствуют обязательные поля. 500 — временная ошибка, провайдер повторит
func (h *Handler) PostPaymentWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	// Логгер из контекста запроса несёт trace_id/span_id
	logger := observability.LoggerFromContext(ctx, h.logger)

	var reqBody paymentWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		logger.Error("payment webhook: decode failed", zap.Error(err))
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if reqBody.EventType == nil || *reqBody.EventType == "" {
		http.Error(w, "event_type is required", http.StatusBadRequest)
		return
	}
	if reqBody.PaymentID == nil || *reqBody.PaymentID == "" {
		http.Error(w, "payment_id is required", http.StatusBadRequest)
		return
	}

	event := webhook.WebhookEvent{
		EventType: *reqBody.EventType,
		PaymentID: *reqBody.PaymentID,
	}
	if reqBody.PaymentIntentID != nil {
		event.PaymentIntentID = *reqBody.PaymentIntentID
	}

	if err := h.dispatcher.Dispatch(ctx, event); err != nil {
		logger.Error("payment webhook: dispatch failed",
			zap.Error(err),
			zap.String("event_type", event.EventType),
			zap.String("payment_id", event.PaymentID),
		)
		http.Error(w, "failed to process webhook", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
