package service

import "context"

// EventPublisher публикует события каталога для downstream-сервисов.
// Каждый вызов возвращает Ack, завершающийся когда брокер принял отправку
//
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=EventPublisher --dir=. --output=./mocks --outpkg=mocks
type EventPublisher interface {
	PublishSizesDeleted(ctx context.Context, sizeIDs []int64) *Ack
	PublishBrandsDeleted(ctx context.Context, brandIDs []int64) *Ack
	PublishProductBrandChanged(ctx context.Context, productID, newBrandID int64) *Ack
}
