package memory

import (
	"context"
	"sync"

	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/user/repository"
)

// Store реализует OrderRepository, CartRepository и UserBrandRepository
// используя in-memory хранилище. Используется для разработки и тестов.
// В production заменяется на PostgreSQL реализацию
type Store struct {
	mu            sync.RWMutex
	orders        map[int64]repository.Order
	cartItems     []repository.CartItem
	subscriptions []repository.UserBrandSubscription
}

// NewStore создаёт новый in-memory store
func NewStore() *Store {
	return &Store{
		orders: make(map[int64]repository.Order),
	}
}

// SaveOrder сохраняет заказ (используется подсистемой заказов и тестами;
// каскад заказы не создаёт)
func (s *Store) SaveOrder(ctx context.Context, order repository.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order
	return nil
}

// GetOrderByID возвращает заказ по ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (repository.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, exists := s.orders[id]
	if !exists {
		return repository.Order{}, repository.ErrNotFound
	}
	return order, nil
}

// FindOrdersContainingSizeIDs возвращает заказы с позициями указанных размеров
func (s *Store) FindOrdersContainingSizeIDs(ctx context.Context, sizeIDs []int64) ([]repository.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int64]struct{}, len(sizeIDs))
	for _, id := range sizeIDs {
		wanted[id] = struct{}{}
	}

	result := make([]repository.Order, 0)
	for _, order := range s.orders {
		for _, item := range order.Items {
			if _, ok := wanted[item.SizeID]; ok {
				result = append(result, order)
				break
			}
		}
	}
	return result, nil
}

// SetOrderStatus выставляет статус заказа
func (s *Store) SetOrderStatus(ctx context.Context, orderID int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.orders[orderID]
	if !exists {
		return repository.ErrNotFound
	}
	order.Status = status
	s.orders[orderID] = order
	return nil
}

// DeleteOrderItems удаляет все позиции заказа
func (s *Store) DeleteOrderItems(ctx context.Context, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.orders[orderID]
	if !exists {
		// Заказ уже отсутствует — состояние сошлось
		return nil
	}
	order.Items = nil
	s.orders[orderID] = order
	return nil
}

// SetOrderItemsBrandForProduct обновляет brand_id у позиций с указанным товаром
func (s *Store) SetOrderItemsBrandForProduct(ctx context.Context, productID, brandID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for orderID, order := range s.orders {
		changed := false
		for i, item := range order.Items {
			if item.ProductID == productID && item.BrandID != brandID {
				order.Items[i].BrandID = brandID
				changed = true
			}
		}
		if changed {
			s.orders[orderID] = order
		}
	}
	return nil
}

// FindOrderByPaymentID ищет заказ по идентификатору платежа
func (s *Store) FindOrderByPaymentID(ctx context.Context, paymentID string) (repository.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, order := range s.orders {
		if order.PaymentID != "" && order.PaymentID == paymentID {
			return order, nil
		}
	}
	return repository.Order{}, repository.ErrNotFound
}

// SaveCartItem добавляет позицию корзины (подсистема корзины и тесты)
func (s *Store) SaveCartItem(ctx context.Context, item repository.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cartItems = append(s.cartItems, item)
	return nil
}

// CartItems возвращает копию всех позиций корзин
func (s *Store) CartItems(ctx context.Context) ([]repository.CartItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]repository.CartItem, len(s.cartItems))
	copy(out, s.cartItems)
	return out, nil
}

// DeleteCartItemsBySizeIDs удаляет позиции корзин с указанными размерами
func (s *Store) DeleteCartItemsBySizeIDs(ctx context.Context, sizeIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[int64]struct{}, len(sizeIDs))
	for _, id := range sizeIDs {
		wanted[id] = struct{}{}
	}

	kept := s.cartItems[:0]
	for _, item := range s.cartItems {
		if _, ok := wanted[item.SizeID]; !ok {
			kept = append(kept, item)
		}
	}
	s.cartItems = kept
	return nil
}

// SaveSubscription добавляет подписку на бренд (подсистема пользователей и тесты)
func (s *Store) SaveSubscription(ctx context.Context, sub repository.UserBrandSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscriptions = append(s.subscriptions, sub)
	return nil
}

// Subscriptions возвращает копию всех подписок
func (s *Store) Subscriptions(ctx context.Context) ([]repository.UserBrandSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]repository.UserBrandSubscription, len(s.subscriptions))
	copy(out, s.subscriptions)
	return out, nil
}

// DeleteUserBrandSubscription удаляет подписки на бренд.
// Бренд без подписок — no-op
func (s *Store) DeleteUserBrandSubscription(ctx context.Context, brandID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.subscriptions[:0]
	for _, sub := range s.subscriptions {
		if sub.BrandID != brandID {
			kept = append(kept, sub)
		}
	}
	s.subscriptions = kept
	return nil
}
