package webhook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/user/repository"
)

// MockHandler реализует Handler для тестов
type MockHandler struct {
	mock.Mock
	eventTypes []string
}

func (m *MockHandler) SupportedEventTypes() []string {
	return m.eventTypes
}

func (m *MockHandler) Handle(ctx context.Context, paymentID, paymentIntentID string) error {
	args := m.Called(ctx, paymentID, paymentIntentID)
	return args.Error(0)
}

// MockOrderRepository реализует repository.OrderRepository для тестов
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindOrdersContainingSizeIDs(ctx context.Context, sizeIDs []int64) ([]repository.Order, error) {
	args := m.Called(ctx, sizeIDs)
	return args.Get(0).([]repository.Order), args.Error(1)
}

func (m *MockOrderRepository) SetOrderStatus(ctx context.Context, orderID int64, status string) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *MockOrderRepository) DeleteOrderItems(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockOrderRepository) SetOrderItemsBrandForProduct(ctx context.Context, productID, brandID int64) error {
	args := m.Called(ctx, productID, brandID)
	return args.Error(0)
}

func (m *MockOrderRepository) FindOrderByPaymentID(ctx context.Context, paymentID string) (repository.Order, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(repository.Order), args.Error(1)
}

func TestDispatcher_Dispatch_RoutesByEventType(t *testing.T) {
	ctx := context.Background()

	succeeded := &MockHandler{eventTypes: []string{"payment_intent.succeeded"}}
	failed := &MockHandler{eventTypes: []string{"payment_intent.canceled"}}

	dispatcher, err := NewDispatcher(zap.NewNop(), succeeded, failed)
	require.NoError(t, err)

	succeeded.On("Handle", ctx, "pay_1", "pi_1").Return(nil).Once()

	err = dispatcher.Dispatch(ctx, WebhookEvent{
		EventType:       "payment_intent.succeeded",
		PaymentID:       "pay_1",
		PaymentIntentID: "pi_1",
	})
	require.NoError(t, err)

	succeeded.AssertExpectations(t)
	failed.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_Dispatch_UnknownEventTypeIgnored(t *testing.T) {
	ctx := context.Background()

	handler := &MockHandler{eventTypes: []string{"payment_intent.succeeded"}}
	dispatcher, err := NewDispatcher(zap.NewNop(), handler)
	require.NoError(t, err)

	// Неизвестный тип подтверждается без ошибки и без вызова обработчиков
	err = dispatcher.Dispatch(ctx, WebhookEvent{
		EventType: "charge.dispute.created",
		PaymentID: "pay_1",
	})
	require.NoError(t, err)

	handler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_Dispatch_HandlerError(t *testing.T) {
	ctx := context.Background()

	handler := &MockHandler{eventTypes: []string{"payment_intent.succeeded"}}
	dispatcher, err := NewDispatcher(zap.NewNop(), handler)
	require.NoError(t, err)

	handlerErr := errors.New("db down")
	handler.On("Handle", ctx, "pay_1", "").Return(handlerErr).Once()

	err = dispatcher.Dispatch(ctx, WebhookEvent{
		EventType: "payment_intent.succeeded",
		PaymentID: "pay_1",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, handlerErr)
}

func TestNewDispatcher_DuplicateRegistrationFails(t *testing.T) {
	first := &MockHandler{eventTypes: []string{"payment_intent.succeeded"}}
	second := &MockHandler{eventTypes: []string{"payment_intent.canceled", "payment_intent.succeeded"}}

	_, err := NewDispatcher(zap.NewNop(), first, second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate handler registration")
	assert.Contains(t, err.Error(), "payment_intent.succeeded")
}

func TestPaymentHandlers_Idempotent(t *testing.T) {
	ctx := context.Background()
	orders := new(MockOrderRepository)
	handler := NewPaymentSucceededHandler(zap.NewNop(), orders)

	order := repository.Order{ID: 1, PaymentID: "pay_1", Status: repository.StatusPending}

	// Первая доставка: статус ещё не выставлен
	orders.On("FindOrderByPaymentID", ctx, "pay_1").Return(order, nil).Once()
	orders.On("SetOrderStatus", ctx, int64(1), repository.StatusPaid).Return(nil).Once()
	require.NoError(t, handler.Handle(ctx, "pay_1", "pi_1"))

	// Повторная доставка: статус уже выставлен, запись не повторяется
	paid := order
	paid.Status = repository.StatusPaid
	orders.On("FindOrderByPaymentID", ctx, "pay_1").Return(paid, nil).Once()
	require.NoError(t, handler.Handle(ctx, "pay_1", "pi_1"))

	orders.AssertExpectations(t)
}

func TestPaymentHandlers_MissingOrderIgnored(t *testing.T) {
	ctx := context.Background()
	orders := new(MockOrderRepository)
	handler := NewPaymentFailedHandler(zap.NewNop(), orders)

	orders.On("FindOrderByPaymentID", ctx, "pay_missing").
		Return(repository.Order{}, repository.ErrNotFound).Once()

	// Событие по неизвестному платежу подтверждается без ошибки
	require.NoError(t, handler.Handle(ctx, "pay_missing", ""))
	orders.AssertNotCalled(t, "SetOrderStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentFailedHandler_CoversProviderFailureFamily(t *testing.T) {
	handler := NewPaymentFailedHandler(zap.NewNop(), new(MockOrderRepository))

	assert.ElementsMatch(t, []string{
		"payment_intent.canceled",
		"payment_intent.partially_funded",
		"payment_intent.payment_failed",
		"payment_intent.amount_capturable_updated",
	}, handler.SupportedEventTypes())
}
