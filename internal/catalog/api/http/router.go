package httpapi

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	platformhealth "github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/platform/health/http"
	platformobservability "github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/platform/observability"
)

// NewRouter создаёт и настраивает HTTP роутер для Catalog Service
func NewRouter(handler *Handler, readiness func() bool, logger *zap.Logger) chi.Router {
	router := chi.NewRouter()

	// Observability: trace context + span на каждый запрос
	if logger != nil {
		router.Use(platformobservability.HTTPMiddleware("catalog", logger))
	}

	router.Delete("/sizes", handler.DeleteSizes)
	router.Delete("/brands", handler.DeleteBrands)
	router.Patch("/products/{id}/brand", handler.ChangeProductBrand)

	router.Get("/health", platformhealth.Handler(readiness))

	return router
}
