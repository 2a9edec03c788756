package service

import "context"

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=PaymentGateway --dir=. --output=./mocks --outpkg=mocks

// PaymentGateway определяет интерфейс платёжного шлюза со стороны каскада.
// Использует простые типы вместо типов провайдера — это делает service
// независимым от конкретного платёжного API
type PaymentGateway interface {
	// Refund инициирует возврат средств по payment intent.
	// Блокирует вызывающего до ответа шлюза или отмены контекста
	Refund(ctx context.Context, paymentIntentID string) error
}
