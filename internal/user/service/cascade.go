package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/user/repository"
)

// ErrEmptyIDs возвращается когда событие удаления пришло без идентификаторов
var ErrEmptyIDs = errors.New("event contains no ids")

// CascadeService содержит бизнес-логику каскадных реакций на события каталога.
// Все обработчики идемпотентны: повторная доставка того же события приводит
// состояние к тому же результату, что и однократная обработка.
type CascadeService struct {
	logger     *zap.Logger
	orders     repository.OrderRepository
	carts      repository.CartRepository
	userBrands repository.UserBrandRepository
	gateway    PaymentGateway
}

// NewCascadeService создаёт новый экземпляр CascadeService
// Принимает интерфейсы как зависимости — это позволяет подменять их в тестах
func NewCascadeService(
	logger *zap.Logger,
	orders repository.OrderRepository,
	carts repository.CartRepository,
	userBrands repository.UserBrandRepository,
	gateway PaymentGateway,
) *CascadeService {
	return &CascadeService{
		logger:     logger,
		orders:     orders,
		carts:      carts,
		userBrands: userBrands,
		gateway:    gateway,
	}
}

// HandleSizesDeleted обрабатывает событие удаления размеров:
// удаляет позиции корзин с этими размерами, находит затронутые заказы
// и применяет к каждому ровно одну компенсацию (возврат, маркер ручного
// возврата или ничего — если заказ уже в пути/доставлен).
func (s *CascadeService) HandleSizesDeleted(ctx context.Context, event SizeDeletionEvent) error {
	if len(event.SizeIDs) == 0 {
		return ErrEmptyIDs
	}

	s.logger.Info("handling size deletion event",
		zap.String("event_id", event.EventID),
		zap.Int64s("size_ids", event.SizeIDs),
	)

	// 1. Чистим корзины. Повторное удаление уже отсутствующих позиций — no-op
	if err := s.carts.DeleteCartItemsBySizeIDs(ctx, event.SizeIDs); err != nil {
		return fmt.Errorf("delete cart items by size ids: %w", err)
	}

	// 2. Находим заказы, содержащие удалённые размеры
	orders, err := s.orders.FindOrdersContainingSizeIDs(ctx, event.SizeIDs)
	if err != nil {
		return fmt.Errorf("find orders containing size ids: %w", err)
	}

	// 3. Компенсируем каждый заказ независимо. Ошибка одного заказа не
	// останавливает остальные: обработчик идемпотентен, redelivery повторит
	// только незавершённые ветки
	var lastErr error
	for _, order := range orders {
		if err := s.compensateOrder(ctx, order); err != nil {
			s.logger.Error("failed to compensate order",
				zap.Error(err),
				zap.Int64("order_id", order.ID),
				zap.String("status", order.Status),
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("compensate orders: %w", lastErr)
	}

	s.logger.Info("size deletion event processed",
		zap.String("event_id", event.EventID),
		zap.Int("orders_affected", len(orders)),
	)
	return nil
}

// compensateOrder применяет к заказу ровно одну компенсацию в зависимости
// от его текущего статуса и наличия payment intent.
// Позиции заказа удаляются строго после записи терминального/маркерного
// статуса: упав посередине, каскад оставит заказ в статусе, который сигналит
// о необходимости сверки, а не молча потеряет платёжный контекст.
func (s *CascadeService) compensateOrder(ctx context.Context, order repository.Order) error {
	switch order.Status {
	case repository.StatusShipped, repository.StatusDelivered:
		// Товар уже в пути или у покупателя — ничего не откатываем
		s.logger.Info("order in terminal status, skipping compensation",
			zap.Int64("order_id", order.ID),
			zap.String("status", order.Status),
		)
		return nil
	case repository.StatusRefunded, repository.StatusMustBeRefunded:
		// Redelivery или рестарт после падения между записью статуса и
		// удалением позиций: возврат не повторяем, только доводим состояние
		return s.orders.DeleteOrderItems(ctx, order.ID)
	}

	if order.PaymentIntentID != "" {
		// Возврат обязан завершиться до любой записи статуса: при таймауте
		// шлюза заказ остаётся в прежнем статусе и redelivery повторит ветку
		if err := s.gateway.Refund(ctx, order.PaymentIntentID); err != nil {
			return fmt.Errorf("refund payment intent: %w", err)
		}
		if err := s.orders.SetOrderStatus(ctx, order.ID, repository.StatusRefunded); err != nil {
			return fmt.Errorf("set status refunded: %w", err)
		}
		s.logger.Info("order refunded",
			zap.Int64("order_id", order.ID),
			zap.String("payment_intent_id", order.PaymentIntentID),
		)
	} else {
		// Оплата не инициировалась — помечаем для ручного вмешательства
		if err := s.orders.SetOrderStatus(ctx, order.ID, repository.StatusMustBeRefunded); err != nil {
			return fmt.Errorf("set status must be refunded: %w", err)
		}
		s.logger.Info("order marked for manual refund", zap.Int64("order_id", order.ID))
	}

	return s.orders.DeleteOrderItems(ctx, order.ID)
}

// HandleBrandsDeleted обрабатывает событие удаления брендов:
// удаляет подписки пользователей на каждый из брендов.
// Бренд без подписок — no-op, частично совпавший батч дообрабатывается.
func (s *CascadeService) HandleBrandsDeleted(ctx context.Context, event BrandDeletionEvent) error {
	if len(event.BrandIDs) == 0 {
		return ErrEmptyIDs
	}

	s.logger.Info("handling brand deletion event",
		zap.String("event_id", event.EventID),
		zap.Int64s("brand_ids", event.BrandIDs),
	)

	var lastErr error
	for _, brandID := range event.BrandIDs {
		if err := s.userBrands.DeleteUserBrandSubscription(ctx, brandID); err != nil {
			s.logger.Error("failed to delete user brand subscription",
				zap.Error(err),
				zap.Int64("brand_id", brandID),
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("delete user brand subscriptions: %w", lastErr)
	}
	return nil
}

// HandleProductBrandChanged обрабатывает событие смены бренда у товара:
// обновляет денормализованный brand_id у всех позиций заказов с этим товаром,
// независимо от статуса заказа. Повторная установка того же бренда — no-op.
func (s *CascadeService) HandleProductBrandChanged(ctx context.Context, event ProductBrandChangedEvent) error {
	s.logger.Info("handling product brand change event",
		zap.String("event_id", event.EventID),
		zap.Int64("product_id", event.ProductID),
		zap.Int64("new_brand_id", event.NewBrandID),
	)

	if err := s.orders.SetOrderItemsBrandForProduct(ctx, event.ProductID, event.NewBrandID); err != nil {
		return fmt.Errorf("set order items brand for product: %w", err)
	}
	return nil
}
