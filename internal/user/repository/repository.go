package repository

import (
	"context"
	"errors"
)

// Статусы заказа. Словарь открытый: в БД могут лежать и другие значения
// (например выставленные оператором вручную), код опирается только на эти.
const (
	// StatusPending — заказ создан, оплата ещё не завершена
	StatusPending = "pending"
	// StatusShipped — заказ передан в доставку (терминальный для каскада)
	StatusShipped = "shipped"
	// StatusDelivered — заказ доставлен (терминальный для каскада)
	StatusDelivered = "delivered"
	// StatusRefunded — оплата возвращена через платёжный шлюз
	StatusRefunded = "refunded"
	// StatusMustBeRefunded — маркер ручного возврата: оплата не была
	// проведена через intent, деньги нужно вернуть оператору вручную
	StatusMustBeRefunded = "must be refunded"
	// StatusPaid — выставляется webhook-обработчиком успешной оплаты
	StatusPaid = "Order has been successfully paid for"
	// StatusPaymentCanceled — выставляется webhook-обработчиком отмены/ошибки оплаты
	StatusPaymentCanceled = "Order was canceled due to a payment error"
)

// Order представляет доменную модель заказа
// Это бизнес-сущность, не привязанная к HTTP или БД
type Order struct {
	ID     int64
	UserID string
	Status string
	// PaymentID — идентификатор платежа у провайдера (по нему приходят webhook события)
	PaymentID string
	// PaymentIntentID — идентификатор payment intent; пустая строка означает,
	// что оплата никогда не инициировалась. Выставляется один раз и каскадом не меняется.
	PaymentIntentID string
	Items           []OrderItem
}

// OrderItem представляет товар в заказе
// BrandID денормализован и должен отслеживать актуальный бренд товара
type OrderItem struct {
	OrderID   int64
	ProductID int64
	SizeID    int64
	BrandID   int64
	Quantity  int32
}

// CartItem представляет товар в корзине пользователя
type CartItem struct {
	UserID    string
	ProductID int64
	SizeID    int64
	Quantity  int32
}

// UserBrandSubscription — подписка пользователя на бренд
type UserBrandSubscription struct {
	UserID  string
	BrandID int64
}

// ErrNotFound возвращается, когда сущность не найдена в хранилище
var ErrNotFound = errors.New("not found")

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=OrderRepository --dir=. --output=./mocks --outpkg=mocks

// OrderRepository определяет интерфейс хранилища заказов со стороны каскада.
// Каскад никогда не создаёт заказы — только меняет статус, удаляет позиции
// и обновляет денормализованный бренд.
type OrderRepository interface {
	// FindOrdersContainingSizeIDs возвращает заказы, содержащие хотя бы одну
	// позицию с указанным size id (вместе с позициями)
	FindOrdersContainingSizeIDs(ctx context.Context, sizeIDs []int64) ([]Order, error)

	// SetOrderStatus выставляет статус заказа. Повторная запись того же
	// статуса — no-op, не ошибка
	SetOrderStatus(ctx context.Context, orderID int64, status string) error

	// DeleteOrderItems удаляет все позиции заказа. Отсутствие позиций — no-op
	DeleteOrderItems(ctx context.Context, orderID int64) error

	// SetOrderItemsBrandForProduct обновляет brand_id у всех позиций
	// с указанным product id, независимо от статуса заказа
	SetOrderItemsBrandForProduct(ctx context.Context, productID, brandID int64) error

	// FindOrderByPaymentID ищет заказ по идентификатору платежа провайдера.
	// Возвращает ErrNotFound, если заказ не найден
	FindOrderByPaymentID(ctx context.Context, paymentID string) (Order, error)
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=CartRepository --dir=. --output=./mocks --outpkg=mocks

// CartRepository определяет интерфейс хранилища корзин со стороны каскада
type CartRepository interface {
	// DeleteCartItemsBySizeIDs удаляет все позиции корзин, ссылающиеся на
	// любой из указанных size id. Отсутствие позиций — no-op
	DeleteCartItemsBySizeIDs(ctx context.Context, sizeIDs []int64) error
}

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=UserBrandRepository --dir=. --output=./mocks --outpkg=mocks

// UserBrandRepository определяет интерфейс хранилища подписок на бренды
type UserBrandRepository interface {
	// DeleteUserBrandSubscription удаляет подписки на бренд.
	// Бренд без подписок — no-op, не ошибка
	DeleteUserBrandSubscription(ctx context.Context, brandID int64) error
}
