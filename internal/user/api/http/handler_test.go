package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/user/webhook"
)

// MockWebhookHandler реализует webhook.Handler для тестов
type MockWebhookHandler struct {
	mock.Mock
	eventTypes []string
}

func (m *MockWebhookHandler) SupportedEventTypes() []string {
	return m.eventTypes
}

func (m *MockWebhookHandler) Handle(ctx context.Context, paymentID, paymentIntentID string) error {
	args := m.Called(ctx, paymentID, paymentIntentID)
	return args.Error(0)
}

func newTestHandler(t *testing.T, webhookHandlers ...webhook.Handler) *Handler {
	t.Helper()
	dispatcher, err := webhook.NewDispatcher(zap.NewNop(), webhookHandlers...)
	require.NoError(t, err)
	return NewHandler(zap.NewNop(), dispatcher)
}

func postWebhook(handler *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.PostPaymentWebhook(rec, req)
	return rec
}

func TestPostPaymentWebhook_OK(t *testing.T) {
	mh := &MockWebhookHandler{eventTypes: []string{"payment_intent.succeeded"}}
	mh.On("Handle", mock.Anything, "pay_1", "pi_1").Return(nil).Once()
	handler := newTestHandler(t, mh)

	rec := postWebhook(handler, `{"event_type":"payment_intent.succeeded","payment_id":"pay_1","payment_intent_id":"pi_1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	mh.AssertExpectations(t)
}

func TestPostPaymentWebhook_UnknownEventTypeAcked(t *testing.T) {
	mh := &MockWebhookHandler{eventTypes: []string{"payment_intent.succeeded"}}
	handler := newTestHandler(t, mh)

	// Неизвестный тип подтверждается 200, чтобы провайдер не ретраил
	rec := postWebhook(handler, `{"event_type":"charge.refund.updated","payment_id":"pay_1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	mh.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything, mock.Anything)
}

func TestPostPaymentWebhook_BadRequests(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `{{{`},
		{"missing event_type", `{"payment_id":"pay_1"}`},
		{"missing payment_id", `{"event_type":"payment_intent.succeeded"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postWebhook(handler, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPostPaymentWebhook_TransientErrorIs500(t *testing.T) {
	mh := &MockWebhookHandler{eventTypes: []string{"payment_intent.succeeded"}}
	mh.On("Handle", mock.Anything, "pay_1", "").Return(errors.New("db down")).Once()
	handler := newTestHandler(t, mh)

	// 500 сигналит провайдеру повторить доставку
	rec := postWebhook(handler, `{"event_type":"payment_intent.succeeded","payment_id":"pay_1"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	mh.AssertExpectations(t)
}
