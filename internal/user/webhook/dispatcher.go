package webhook

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// WebhookEvent — входящее событие жизненного цикла платежа от провайдера
type WebhookEvent struct {
	EventType       string
	PaymentID       string
	PaymentIntentID string
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=Handler --dir=. --output=./mocks --outpkg=mocks

// Handler — обработчик одного семейства событий платёжного провайдера.
// Каждый обработчик объявляет множество поддерживаемых типов событий;
// реестр собирается из них один раз при старте процесса
type Handler interface {
	// SupportedEventTypes возвращает типы событий, которые обрабатывает handler
	SupportedEventTypes() []string
	// Handle применяет событие к состоянию заказа. Должен быть идемпотентен
	Handle(ctx context.Context, paymentID, paymentIntentID string) error
}

// NewRegistry строит таблицу event type -> handler из фиксированного набора
// обработчиков. Дублирующаяся регистрация типа — ошибка конфигурации процесса,
// а не молчаливый last-wins
func NewRegistry(handlers ...Handler) (map[string]Handler, error) {
	registry := make(map[string]Handler)
	for _, h := range handlers {
		for _, eventType := range h.SupportedEventTypes() {
			if _, exists := registry[eventType]; exists {
				return nil, fmt.Errorf("duplicate handler registration for event type %q", eventType)
			}
			registry[eventType] = h
		}
	}
	return registry, nil
}

// Dispatcher маршрутизирует входящие webhook события по таблице реестра
type Dispatcher struct {
	logger   *zap.Logger
	registry map[string]Handler
}

// NewDispatcher создаёт dispatcher из набора обработчиков.
// Возвращает ошибку, если два обработчика претендуют на один тип события
func NewDispatcher(logger *zap.Logger, handlers ...Handler) (*Dispatcher, error) {
	registry, err := NewRegistry(handlers...)
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		logger:   logger,
		registry: registry,
	}, nil
}

// Dispatch находит обработчик по типу события и вызывает его.
// Неизвестный тип события — не ошибка: событие подтверждается и игнорируется,
// чтобы провайдер мог добавлять новые типы, не ломая приём
func (d *Dispatcher) Dispatch(ctx context.Context, event WebhookEvent) error {
	handler, ok := d.registry[event.EventType]
	if !ok {
		d.logger.Debug("no handler registered for webhook event type, ignoring",
			zap.String("event_type", event.EventType),
			zap.String("payment_id", event.PaymentID),
		)
		return nil
	}

	d.logger.Info("dispatching webhook event",
		zap.String("event_type", event.EventType),
		zap.String("payment_id", event.PaymentID),
	)

	if err := handler.Handle(ctx, event.PaymentID, event.PaymentIntentID); err != nil {
		return fmt.Errorf("handle webhook event %s: %w", event.EventType, err)
	}
	return nil
}
