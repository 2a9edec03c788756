package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/catalog/repository"
	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/catalog/service"
	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/platform/observability"
)

// Handler содержит HTTP-обработчики админских мутаций каталога
type Handler struct {
	logger         *zap.Logger
	catalogService *service.CatalogService
}

// NewHandler создаёт новый HTTP handler
func NewHandler(logger *zap.Logger, catalogService *service.CatalogService) *Handler {
	return &Handler{
		logger:         logger,
		catalogService: catalogService,
	}
}

type deleteSizesRequest struct {
	SizeIDs *[]int64 `json:"size_ids"`
}

type deleteBrandsRequest struct {
	BrandIDs *[]int64 `json:"brand_ids"`
}

type changeProductBrandRequest struct {
	BrandID *int64 `json:"brand_id"`
}

// DeleteSizes обрабатывает DELETE /sizes
func (h *Handler) DeleteSizes(w http.ResponseWriter, r *http.Request) {
	var reqBody deleteSizesRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if reqBody.SizeIDs == nil {
		http.Error(w, "size_ids is required", http.StatusBadRequest)
		return
	}

	if err := h.catalogService.DeleteSizes(r.Context(), *reqBody.SizeIDs); err != nil {
		h.writeError(r.Context(), w, err, "delete sizes")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteBrands обрабатывает DELETE /brands
func (h *Handler) DeleteBrands(w http.ResponseWriter, r *http.Request) {
	var reqBody deleteBrandsRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if reqBody.BrandIDs == nil {
		http.Error(w, "brand_ids is required", http.StatusBadRequest)
		return
	}

	if err := h.catalogService.DeleteBrands(r.Context(), *reqBody.BrandIDs); err != nil {
		h.writeError(r.Context(), w, err, "delete brands")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangeProductBrand обрабатывает PATCH /products/{id}/brand
func (h *Handler) ChangeProductBrand(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	var reqBody changeProductBrandRequest
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if reqBody.BrandID == nil {
		http.Error(w, "brand_id is required", http.StatusBadRequest)
		return
	}

	if err := h.catalogService.ChangeProductBrand(r.Context(), productID, *reqBody.BrandID); err != nil {
		h.writeError(r.Context(), w, err, "change product brand")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError переводит ошибку service слоя в HTTP статус
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrInvalidIDs):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		// Логгер из контекста запроса несёт trace_id/span_id
		observability.LoggerFromContext(ctx, h.logger).Error(op+" failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
