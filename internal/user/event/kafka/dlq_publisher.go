package kafka

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// DLQMessage представляет сообщение для Dead Letter Queue
type DLQMessage struct {
	OriginalTopic     string `json:"original_topic"`     // топик, из которого пришло сообщение
	OriginalPartition int    `json:"original_partition"` // partition исходного сообщения
	OriginalOffset    int64  `json:"original_offset"`    // offset исходного сообщения
	OriginalKey       string `json:"original_key"`       // base64 encoded ключ
	OriginalValue     string `json:"original_value"`     // base64 encoded значение
	ErrorMessage      string `json:"error_message"`      // причина попадания в DLQ
	FailedAt          string `json:"failed_at"`          // время ошибки в формате RFC3339
	EventType         string `json:"event_type"`         // если удалось извлечь тип события
	EventID           string `json:"event_id"`           // если удалось извлечь ID события
}

// DLQPublisher публикует сообщения в Dead Letter Queue
type DLQPublisher struct {
	logger *zap.Logger
	writer *kafka.Writer
	topic  string
}

// NewDLQPublisher создаёт новый publisher для DLQ
func NewDLQPublisher(logger *zap.Logger, brokers []string, topic string) *DLQPublisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &DLQPublisher{
		logger: logger,
		writer: writer,
		topic:  topic,
	}
}

// Publish отправляет сообщение в DLQ
func (p *DLQPublisher) Publish(ctx context.Context, msg kafka.Message, cause error, eventType, eventID string) error {
	errorMsg := "unknown error"
	if cause != nil {
		errorMsg = cause.Error()
	}

	dlqMsg := DLQMessage{
		OriginalTopic:     msg.Topic,
		OriginalPartition: msg.Partition,
		OriginalOffset:    msg.Offset,
		OriginalKey:       base64.StdEncoding.EncodeToString(msg.Key),
		OriginalValue:     base64.StdEncoding.EncodeToString(msg.Value),
		ErrorMessage:      errorMsg,
		FailedAt:          time.Now().UTC().Format(time.RFC3339),
		EventType:         eventType,
		EventID:           eventID,
	}

	valueBytes, err := json.Marshal(dlqMsg)
	if err != nil {
		p.logger.Error("failed to marshal DLQ message",
			zap.Error(err),
			zap.String("original_topic", msg.Topic),
			zap.Int("original_partition", msg.Partition),
			zap.Int64("original_offset", msg.Offset),
		)
		return err
	}

	kafkaMsg := kafka.Message{
		Key:   msg.Key,
		Value: valueBytes,
	}

	if err := p.writer.WriteMessages(ctx, kafkaMsg); err != nil {
		p.logger.Error("failed to publish message to DLQ",
			zap.Error(err),
			zap.String("dlq_topic", p.topic),
			zap.String("original_topic", msg.Topic),
			zap.Int("original_partition", msg.Partition),
			zap.Int64("original_offset", msg.Offset),
		)
		return err
	}

	p.logger.Info("message sent to DLQ",
		zap.String("dlq_topic", p.topic),
		zap.String("original_topic", msg.Topic),
		zap.Int("original_partition", msg.Partition),
		zap.Int64("original_offset", msg.Offset),
		zap.String("error", errorMsg),
	)

	return nil
}

// Close закрывает Kafka writer
func (p *DLQPublisher) Close() error {
	return p.writer.Close()
}
