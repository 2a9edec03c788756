package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HTTPGateway реализует возврат средств через HTTP API платёжного провайдера
type HTTPGateway struct {
	logger  *zap.Logger
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPGateway создаёт новый HTTP клиент платёжного шлюза
func NewHTTPGateway(logger *zap.Logger, baseURL, apiKey string) *HTTPGateway {
	return &HTTPGateway{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Refund инициирует возврат средств по payment intent.
// Сам запрос не повторяется: при таймауте/ошибке вызывающий каскад прервётся
// без записи статуса, и redelivery события повторит возврат целиком
func (g *HTTPGateway) Refund(ctx context.Context, paymentIntentID string) error {
	url := fmt.Sprintf("%s/v1/refunds", g.baseURL)

	payload := map[string]interface{}{
		"payment_intent": paymentIntentID,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// При не-2xx читаем тело ответа для диагностики
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("payment provider status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if status, _ := result["status"].(string); status == "failed" {
		reason, _ := result["failure_reason"].(string)
		return fmt.Errorf("refund failed: %s", reason)
	}

	g.logger.Info("refund accepted by payment provider",
		zap.String("payment_intent_id", paymentIntentID),
	)
	return nil
}

// NoOpGateway — no-op реализация шлюза (для dev окружения без провайдера)
type NoOpGateway struct {
	logger *zap.Logger
}

// NewNoOpGateway создаёт no-op шлюз
func NewNoOpGateway(logger *zap.Logger) *NoOpGateway {
	return &NoOpGateway{
		logger: logger,
	}
}

// Refund ничего не делает, только логирует
func (g *NoOpGateway) Refund(ctx context.Context, paymentIntentID string) error {
	g.logger.Debug("no-op gateway: refund not sent",
		zap.String("payment_intent_id", paymentIntentID),
	)
	return nil
}
