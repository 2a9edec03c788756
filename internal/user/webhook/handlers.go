package webhook

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/user/repository"
)

// PaymentSucceededHandler обрабатывает событие успешной оплаты:
// находит заказ по payment id и выставляет статус успешной оплаты
type PaymentSucceededHandler struct {
	logger *zap.Logger
	orders repository.OrderRepository
}

// NewPaymentSucceededHandler создаёт обработчик успешной оплаты
func NewPaymentSucceededHandler(logger *zap.Logger, orders repository.OrderRepository) *PaymentSucceededHandler {
	return &PaymentSucceededHandler{
		logger: logger,
		orders: orders,
	}
}

// SupportedEventTypes возвращает типы событий успешной оплаты
func (h *PaymentSucceededHandler) SupportedEventTypes() []string {
	return []string{"payment_intent.succeeded"}
}

// Handle выставляет заказу статус успешной оплаты
func (h *PaymentSucceededHandler) Handle(ctx context.Context, paymentID, paymentIntentID string) error {
	return applyPaymentStatus(ctx, h.logger, h.orders, paymentID, repository.StatusPaid)
}

// PaymentFailedHandler обрабатывает события отмены/ошибки оплаты:
// находит заказ по payment id и выставляет статус отмены
type PaymentFailedHandler struct {
	logger *zap.Logger
	orders repository.OrderRepository
}

// NewPaymentFailedHandler создаёт обработчик отмены/ошибки оплаты
func NewPaymentFailedHandler(logger *zap.Logger, orders repository.OrderRepository) *PaymentFailedHandler {
	return &PaymentFailedHandler{
		logger: logger,
		orders: orders,
	}
}

// SupportedEventTypes возвращает типы событий отмены/ошибки оплаты
func (h *PaymentFailedHandler) SupportedEventTypes() []string {
	return []string{
		"payment_intent.canceled",
		"payment_intent.partially_funded",
		"payment_intent.payment_failed",
		"payment_intent.amount_capturable_updated",
	}
}

// Handle выставляет заказу статус отмены из-за ошибки оплаты
func (h *PaymentFailedHandler) Handle(ctx context.Context, paymentID, paymentIntentID string) error {
	return applyPaymentStatus(ctx, h.logger, h.orders, paymentID, repository.StatusPaymentCanceled)
}

// applyPaymentStatus находит заказ по payment id и выставляет статус.
// Отсутствие заказа — не ошибка (событие могло прийти раньше записи о заказе
// или относиться к чужому платежу), повторная запись того же статуса — no-op
func applyPaymentStatus(ctx context.Context, logger *zap.Logger, orders repository.OrderRepository, paymentID, status string) error {
	order, err := orders.FindOrderByPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("no order found for payment id, ignoring webhook event",
				zap.String("payment_id", paymentID),
			)
			return nil
		}
		return fmt.Errorf("find order by payment id: %w", err)
	}

	if order.Status == status {
		logger.Info("order already in target status, skipping",
			zap.Int64("order_id", order.ID),
			zap.String("status", status),
		)
		return nil
	}

	if err := orders.SetOrderStatus(ctx, order.ID, status); err != nil {
		return fmt.Errorf("set order status: %w", err)
	}

	logger.Info("order status updated from webhook event",
		zap.Int64("order_id", order.ID),
		zap.String("payment_id", paymentID),
		zap.String("status", status),
	)
	return nil
}
