package service

import "time"

// SizeDeletionEvent — событие удаления размеров из каталога (входящее из Kafka)
type SizeDeletionEvent struct {
	EventID      string
	EventType    string // "catalog.size.deleted"
	EventVersion int
	OccurredAt   time.Time
	SizeIDs      []int64
}

// BrandDeletionEvent — событие удаления брендов из каталога (входящее из Kafka)
type BrandDeletionEvent struct {
	EventID      string
	EventType    string // "catalog.brand.deleted"
	EventVersion int
	OccurredAt   time.Time
	BrandIDs     []int64
}

// ProductBrandChangedEvent — событие смены бренда у товара (входящее из Kafka)
type ProductBrandChangedEvent struct {
	EventID      string
	EventType    string // "catalog.product.updated"
	EventVersion int
	OccurredAt   time.Time
	ProductID    int64
	NewBrandID   int64
}
