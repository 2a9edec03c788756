package httpapi

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	platformhealth "github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/platform/health/http"
	platformobservability "github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/platform/observability"
)

// NewRouter создаёт и настраивает HTTP роутер для User Service
// readiness - функция для проверки готовности сервиса (например, проверка БД).
// Если readiness возвращает false, health endpoint вернёт 503 Service Unavailable
func NewRouter(handler *Handler, readiness func() bool, logger *zap.Logger) chi.Router {
	router := chi.NewRouter()

	// Observability: trace context + span на каждый запрос
	if logger != nil {
		router.Use(platformobservability.HTTPMiddleware("user", logger))
	}

	router.Post("/webhooks/payment", handler.PostPaymentWebhook)

	router.Get("/health", platformhealth.Handler(readiness))

	return router
}
