package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/user/repository"
)

// Repository реализует OrderRepository, CartRepository и UserBrandRepository
// используя PostgreSQL
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository создаёт новый PostgreSQL репозиторий
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
	}
}

// FindOrdersContainingSizeIDs возвращает заказы, в позициях которых
// встречается хотя бы один из указанных размеров
func (r *Repository) FindOrdersContainingSizeIDs(ctx context.Context, sizeIDs []int64) ([]repository.Order, error) {
	if len(sizeIDs) == 0 {
		return []repository.Order{}, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT o.id, o.user_id, o.status, o.payment_id, o.payment_intent_id
		 FROM orders o
		 JOIN order_items oi ON oi.order_id = o.id
		 WHERE oi.size_id = ANY($1)
		 ORDER BY o.id`,
		sizeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]repository.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	// Подгружаем позиции одним запросом для всех найденных заказов
	if err = r.loadOrderItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// SetOrderStatus выставляет статус заказа
func (r *Repository) SetOrderStatus(ctx context.Context, orderID int64, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $2 WHERE id = $1`,
		orderID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteOrderItems удаляет все позиции заказа.
// Повторный вызов для уже пустого заказа — no-op
func (r *Repository) DeleteOrderItems(ctx context.Context, orderID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM order_items WHERE order_id = $1`,
		orderID)
	return err
}

// SetOrderItemsBrandForProduct обновляет brand_id у всех позиций с указанным товаром
func (r *Repository) SetOrderItemsBrandForProduct(ctx context.Context, productID, brandID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE order_items SET brand_id = $2 WHERE product_id = $1 AND brand_id <> $2`,
		productID, brandID)
	return err
}

// FindOrderByPaymentID ищет заказ по идентификатору платежа
func (r *Repository) FindOrderByPaymentID(ctx context.Context, paymentID string) (repository.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, user_id, status, payment_id, payment_intent_id
		 FROM orders
		 WHERE payment_id = $1`,
		paymentID)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.Order{}, repository.ErrNotFound
		}
		return repository.Order{}, err
	}

	orders := []repository.Order{order}
	if err = r.loadOrderItems(ctx, orders); err != nil {
		return repository.Order{}, err
	}

	return orders[0], nil
}

// DeleteCartItemsBySizeIDs удаляет позиции корзин с указанными размерами
func (r *Repository) DeleteCartItemsBySizeIDs(ctx context.Context, sizeIDs []int64) error {
	if len(sizeIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE size_id = ANY($1)`,
		sizeIDs)
	return err
}

// DeleteUserBrandSubscription удаляет все подписки на бренд.
// Бренд без подписок — no-op
func (r *Repository) DeleteUserBrandSubscription(ctx context.Context, brandID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM user_brands WHERE brand_id = $1`,
		brandID)
	return err
}

// scanOrder читает колонки заказа из строки результата.
// payment_id и payment_intent_id в БД nullable
func scanOrder(row pgx.Row) (repository.Order, error) {
	var order repository.Order
	var paymentID, paymentIntentID *string

	if err := row.Scan(&order.ID, &order.UserID, &order.Status, &paymentID, &paymentIntentID); err != nil {
		return repository.Order{}, err
	}
	if paymentID != nil {
		order.PaymentID = *paymentID
	}
	if paymentIntentID != nil {
		order.PaymentIntentID = *paymentIntentID
	}
	return order, nil
}

// loadOrderItems подгружает позиции для переданных заказов одним запросом
func (r *Repository) loadOrderItems(ctx context.Context, orders []repository.Order) error {
	if len(orders) == 0 {
		return nil
	}

	orderIDs := make([]int64, 0, len(orders))
	index := make(map[int64]int, len(orders))
	for i := range orders {
		orders[i].Items = make([]repository.OrderItem, 0)
		orderIDs = append(orderIDs, orders[i].ID)
		index[orders[i].ID] = i
	}

	rows, err := r.pool.Query(ctx,
		`SELECT order_id, product_id, size_id, brand_id, quantity
		 FROM order_items
		 WHERE order_id = ANY($1)
		 ORDER BY order_id, product_id`,
		orderIDs)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item repository.OrderItem
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.SizeID, &item.BrandID, &item.Quantity); err != nil {
			return err
		}
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}

	return rows.Err()
}
