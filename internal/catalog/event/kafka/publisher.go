package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/catalog/service"
	platformobservability "github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/platform/observability"
)

// Publisher реализует service.EventPublisher используя Kafka.
// Отдельный writer на каждый топик, публикация асинхронная:
// вызов возвращает Ack, завершающийся когда брокер принял отправку
type Publisher struct {
	logger        *zap.Logger
	sizeWriter    *kafka.Writer
	brandWriter   *kafka.Writer
	productWriter *kafka.Writer
}

// NewPublisher создаёт Kafka publisher для событий каталога
func NewPublisher(logger *zap.Logger, brokers []string, sizeTopic, brandTopic, productTopic string) *Publisher {
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		}
	}

	return &Publisher{
		logger:        logger,
		sizeWriter:    newWriter(sizeTopic),
		brandWriter:   newWriter(brandTopic),
		productWriter: newWriter(productTopic),
	}
}

// Close закрывает все Kafka writers
func (p *Publisher) Close() error {
	var firstErr error
	for _, w := range []*kafka.Writer{p.sizeWriter, p.brandWriter, p.productWriter} {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PublishSizesDeleted публикует событие удаления размеров
func (p *Publisher) PublishSizesDeleted(ctx context.Context, sizeIDs []int64) *service.Ack {
	payload := map[string]interface{}{
		"event_id":      uuid.New().String(),
		"event_type":    "catalog.size.deleted",
		"event_version": 1,
		"occurred_at":   time.Now().UTC().Format(time.RFC3339),
		"size_ids":      sizeIDs,
	}
	return p.publish(ctx, p.sizeWriter, keyFromIDs(sizeIDs), payload)
}

// PublishBrandsDeleted публикует событие удаления брендов
func (p *Publisher) PublishBrandsDeleted(ctx context.Context, brandIDs []int64) *service.Ack {
	payload := map[string]interface{}{
		"event_id":      uuid.New().String(),
		"event_type":    "catalog.brand.deleted",
		"event_version": 1,
		"occurred_at":   time.Now().UTC().Format(time.RFC3339),
		"brand_ids":     brandIDs,
	}
	return p.publish(ctx, p.brandWriter, keyFromIDs(brandIDs), payload)
}

// PublishProductBrandChanged публикует событие смены бренда у товара.
// Ключ = product_id, чтобы обновления одного товара попадали в одну партицию
func (p *Publisher) PublishProductBrandChanged(ctx context.Context, productID, newBrandID int64) *service.Ack {
	payload := map[string]interface{}{
		"event_id":      uuid.New().String(),
		"event_type":    "catalog.product.updated",
		"event_version": 1,
		"occurred_at":   time.Now().UTC().Format(time.RFC3339),
		"product_id":    productID,
		"new_brand_id":  newBrandID,
	}
	return p.publish(ctx, p.productWriter, []byte(strconv.FormatInt(productID, 10)), payload)
}

// publish сериализует payload и отправляет сообщение в отдельной горутине.
// Ошибка маршалинга завершает Ack сразу, без похода в брокер
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, key []byte, payload map[string]interface{}) *service.Ack {
	ack := service.NewAck()

	valueBytes, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("failed to marshal catalog event",
			zap.Error(err),
			zap.String("topic", writer.Topic),
		)
		ack.Complete(err)
		return ack
	}

	message := kafka.Message{
		Key:   key,
		Value: valueBytes,
	}
	platformobservability.InjectKafkaHeaders(ctx, &message)

	eventType, _ := payload["event_type"].(string)
	eventID, _ := payload["event_id"].(string)

	go func() {
		err := writer.WriteMessages(ctx, message)
		if err != nil {
			p.logger.Error("failed to publish catalog event",
				zap.Error(err),
				zap.String("topic", writer.Topic),
				zap.String("event_type", eventType),
				zap.String("event_id", eventID),
			)
		} else {
			p.logger.Info("catalog event published",
				zap.String("topic", writer.Topic),
				zap.String("event_type", eventType),
				zap.String("event_id", eventID),
			)
		}
		ack.Complete(err)
	}()

	return ack
}

// keyFromIDs строит ключ сообщения из первого ID списка
func keyFromIDs(ids []int64) []byte {
	if len(ids) == 0 {
		return nil
	}
	return []byte(strconv.FormatInt(ids[0], 10))
}
