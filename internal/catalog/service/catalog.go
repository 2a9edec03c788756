package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/catalog/repository"
)

// ErrInvalidIDs возвращается при пустом списке ID или неположительном ID
var ErrInvalidIDs = errors.New("ids must be a non-empty list of positive integers")

// CatalogService реализует мутации каталога с публикацией событий
// для downstream-сервисов.
//
// Каждая мутация: запись в каталог, публикация события, ожидание
// подтверждения брокера с таймаутом. При отказе или таймауте мутация
// НЕ откатывается: caller получает ошибку и знает, что распространение
// изменения может задержаться
type CatalogService struct {
	logger     *zap.Logger
	catalog    repository.BrandCatalog
	publisher  EventPublisher
	ackTimeout time.Duration
}

// NewCatalogService создаёт новый сервис каталога
func NewCatalogService(
	logger *zap.Logger,
	catalog repository.BrandCatalog,
	publisher EventPublisher,
	ackTimeout time.Duration,
) *CatalogService {
	if ackTimeout <= 0 {
		ackTimeout = 5 * time.Second
	}
	return &CatalogService{
		logger:     logger,
		catalog:    catalog,
		publisher:  publisher,
		ackTimeout: ackTimeout,
	}
}

// DeleteSizes удаляет размеры из каталога и публикует событие удаления
func (s *CatalogService) DeleteSizes(ctx context.Context, sizeIDs []int64) error {
	if err := validateIDs(sizeIDs); err != nil {
		return err
	}

	if err := s.catalog.DeleteSizes(ctx, sizeIDs); err != nil {
		return fmt.Errorf("delete sizes: %w", err)
	}

	s.logger.Info("sizes deleted from catalog",
		zap.Int64s("size_ids", sizeIDs),
	)

	ack := s.publisher.PublishSizesDeleted(ctx, sizeIDs)
	return s.awaitAck(ctx, ack, "catalog.size.deleted")
}

// DeleteBrands удаляет бренды из каталога и публикует событие удаления
func (s *CatalogService) DeleteBrands(ctx context.Context, brandIDs []int64) error {
	if err := validateIDs(brandIDs); err != nil {
		return err
	}

	if err := s.catalog.DeleteBrands(ctx, brandIDs); err != nil {
		return fmt.Errorf("delete brands: %w", err)
	}

	s.logger.Info("brands deleted from catalog",
		zap.Int64s("brand_ids", brandIDs),
	)

	ack := s.publisher.PublishBrandsDeleted(ctx, brandIDs)
	return s.awaitAck(ctx, ack, "catalog.brand.deleted")
}

// ChangeProductBrand переводит товар на другой бренд и публикует событие
func (s *CatalogService) ChangeProductBrand(ctx context.Context, productID, newBrandID int64) error {
	if productID <= 0 || newBrandID <= 0 {
		return ErrInvalidIDs
	}

	if err := s.catalog.UpdateProductBrand(ctx, productID, newBrandID); err != nil {
		return fmt.Errorf("update product brand: %w", err)
	}

	s.logger.Info("product brand changed",
		zap.Int64("product_id", productID),
		zap.Int64("new_brand_id", newBrandID),
	)

	ack := s.publisher.PublishProductBrandChanged(ctx, productID, newBrandID)
	return s.awaitAck(ctx, ack, "catalog.product.updated")
}

// awaitAck ждёт подтверждения брокера с таймаутом
func (s *CatalogService) awaitAck(ctx context.Context, ack *Ack, eventType string) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.ackTimeout)
	defer cancel()

	if err := ack.Wait(waitCtx); err != nil {
		s.logger.Error("event publish not acknowledged",
			zap.Error(err),
			zap.String("event_type", eventType),
		)
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

// validateIDs проверяет что список непустой и все ID положительные
func validateIDs(ids []int64) error {
	if len(ids) == 0 {
		return ErrInvalidIDs
	}
	for _, id := range ids {
		if id <= 0 {
			return ErrInvalidIDs
		}
	}
	return nil
}
