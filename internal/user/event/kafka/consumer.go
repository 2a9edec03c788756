package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/platform/observability"
)

// ParseError представляет ошибку разбора события: сообщение невозможно
// обработать никогда (poison pill), retry бессмыслен — только DLQ
type ParseError struct {
	Field   string
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

// ProcessFunc разбирает payload события и применяет его к доменному состоянию.
// Должна возвращать *ParseError для неисправимо битых сообщений
// и обычную ошибку для временных сбоев (store/gateway недоступны)
type ProcessFunc func(ctx context.Context, payload map[string]interface{}) error

// DLQSink принимает сообщения, которые невозможно обработать
//
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=DLQSink --dir=. --output=./mocks --outpkg=mocks
type DLQSink interface {
	Publish(ctx context.Context, msg kafka.Message, cause error, eventType, eventID string) error
}

// Consumer обрабатывает события одного топика каскада из Kafka.
// Использует at-least-once семантику: FetchMessage + CommitMessages после
// успешной обработки или отправки в DLQ
type Consumer struct {
	logger      *zap.Logger
	reader      *kafka.Reader
	dlq         DLQSink
	process     ProcessFunc
	maxAttempts int
	backoffBase time.Duration
}

// NewConsumer создаёт consumer для указанного топика
func NewConsumer(
	logger *zap.Logger,
	brokers []string,
	groupID, topic string,
	dlq DLQSink,
	process ProcessFunc,
	maxAttempts int,
	backoffBase time.Duration,
) *Consumer {
	// Safety defaults (на случай кривого env/config)
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if backoffBase <= 0 {
		backoffBase = 1 * time.Second
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})

	return &Consumer{
		logger:      logger,
		reader:      reader,
		dlq:         dlq,
		process:     process,
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
	}
}

// Start запускает consumer и начинает обработку сообщений
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("starting kafka consumer",
		zap.String("topic", c.reader.Config().Topic),
		zap.String("group_id", c.reader.Config().GroupID),
		zap.Int("max_retry_attempts", c.maxAttempts),
	)

	for {
		// FetchMessage вместо ReadMessage для ручного контроля commit
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer context cancelled, stopping")
				return nil
			}
			c.logger.Error("failed to fetch message from kafka",
				zap.Error(err),
			)
			continue
		}

		shouldCommit := c.processMessage(ctx, m)

		// Коммитим offset только после успешной обработки или отправки в DLQ
		if shouldCommit {
			if err := c.reader.CommitMessages(ctx, m); err != nil {
				c.logger.Error("failed to commit message offset",
					zap.Error(err),
					zap.String("topic", m.Topic),
					zap.Int("partition", m.Partition),
					zap.Int64("offset", m.Offset),
				)
				continue
			}

			c.logger.Debug("message offset committed",
				zap.String("topic", m.Topic),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
			)
		}
	}
}

// processMessage обрабатывает одно сообщение из Kafka
// Возвращает true, если нужно закоммитить offset (успех или отправка в DLQ)
func (c *Consumer) processMessage(ctx context.Context, m kafka.Message) bool {
	// Восстанавливаем trace context из заголовков сообщения
	msgCtx := observability.ExtractKafkaHeaders(ctx, m)

	var payload map[string]interface{}
	if err := json.Unmarshal(m.Value, &payload); err != nil {
		c.logger.Error("failed to unmarshal kafka message - sending to DLQ",
			zap.Error(err),
			zap.String("topic", m.Topic),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
		)
		return c.sendToDLQ(ctx, m, err, "", "")
	}

	// event_type и event_id нужны для диагностики и DLQ даже если разбор
	// дальше не пройдёт
	eventType, _ := payload["event_type"].(string)
	eventID, _ := payload["event_id"].(string)

	c.logger.Info("received event",
		zap.String("event_id", eventID),
		zap.String("event_type", eventType),
		zap.String("topic", m.Topic),
		zap.Int("partition", m.Partition),
		zap.Int64("offset", m.Offset),
	)

	success := c.handleWithRetry(msgCtx, m, payload, eventType, eventID)
	if !success {
		return false
	}

	c.logger.Info("event processed successfully",
		zap.String("event_id", eventID),
		zap.String("event_type", eventType),
		zap.Int("partition", m.Partition),
		zap.Int64("offset", m.Offset),
	)
	return true
}

// handleWithRetry обрабатывает событие с retry логикой.
// ParseError не ретраится: сообщение сразу уходит в DLQ (poison pill).
// Возвращает true, если offset можно коммитить
func (c *Consumer) handleWithRetry(ctx context.Context, m kafka.Message, payload map[string]interface{}, eventType, eventID string) bool {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		// Вычисляем backoff: 1s, 2s, 4s (экспоненциально)
		if attempt > 1 {
			backoff := c.backoffBase * time.Duration(1<<uint(attempt-2))
			c.logger.Info("retrying event",
				zap.String("event_id", eventID),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", c.maxAttempts),
				zap.Duration("backoff", backoff),
			)

			select {
			case <-ctx.Done():
				return false
			case <-time.After(backoff):
			}
		}

		err := c.process(ctx, payload)
		if err == nil {
			if attempt > 1 {
				c.logger.Info("event processed successfully after retry",
					zap.String("event_id", eventID),
					zap.Int("attempt", attempt),
				)
			}
			return true
		}

		// Битое сообщение: retry не поможет, отправляем в DLQ
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			c.logger.Error("failed to parse event - sending to DLQ",
				zap.Error(err),
				zap.String("event_id", eventID),
				zap.String("field", parseErr.Field),
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
			)
			return c.sendToDLQ(ctx, m, err, eventType, eventID)
		}

		lastErr = err
		c.logger.Warn("failed to handle event",
			zap.Error(err),
			zap.String("event_id", eventID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxAttempts),
		)
	}

	// После исчерпания retry отправляем в DLQ
	c.logger.Error("exhausted all retry attempts - sending to DLQ",
		zap.Error(lastErr),
		zap.String("event_id", eventID),
		zap.Int("max_attempts", c.maxAttempts),
	)
	return c.sendToDLQ(ctx, m, lastErr, eventType, eventID)
}

// sendToDLQ отправляет сообщение в DLQ.
// Возвращает true (можно коммитить) только если отправка удалась
func (c *Consumer) sendToDLQ(ctx context.Context, m kafka.Message, cause error, eventType, eventID string) bool {
	if err := c.dlq.Publish(ctx, m, cause, eventType, eventID); err != nil {
		c.logger.Error("failed to send message to DLQ",
			zap.Error(err),
			zap.String("topic", m.Topic),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
		)
		// Не коммитим: Kafka повторит доставку
		return false
	}
	return true
}

// Close закрывает Kafka reader
func (c *Consumer) Close() error {
	c.logger.Info("closing kafka consumer")
	return c.reader.Close()
}
