package kafka

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/feduuusha/Marketplace-Course-Project-for-Tinkoff-Fintech-sub001/internal/user/service"
)

// NewSizeDeletionConsumer создаёт consumer событий удаления размеров
func NewSizeDeletionConsumer(
	logger *zap.Logger,
	brokers []string,
	groupID, topic string,
	svc *service.CascadeService,
	dlq DLQSink,
	maxAttempts int,
	backoffBase time.Duration,
) *Consumer {
	return NewConsumer(logger, brokers, groupID, topic, dlq, func(ctx context.Context, payload map[string]interface{}) error {
		event, err := parseSizeDeletionEvent(payload)
		if err != nil {
			return err
		}
		return svc.HandleSizesDeleted(ctx, event)
	}, maxAttempts, backoffBase)
}

// NewBrandDeletionConsumer создаёт consumer событий удаления брендов
func NewBrandDeletionConsumer(
	logger *zap.Logger,
	brokers []string,
	groupID, topic string,
	svc *service.CascadeService,
	dlq DLQSink,
	maxAttempts int,
	backoffBase time.Duration,
) *Consumer {
	return NewConsumer(logger, brokers, groupID, topic, dlq, func(ctx context.Context, payload map[string]interface{}) error {
		event, err := parseBrandDeletionEvent(payload)
		if err != nil {
			return err
		}
		return svc.HandleBrandsDeleted(ctx, event)
	}, maxAttempts, backoffBase)
}

// NewProductUpdateConsumer создаёт consumer событий смены бренда у товара
func NewProductUpdateConsumer(
	logger *zap.Logger,
	brokers []string,
	groupID, topic string,
	svc *service.CascadeService,
	dlq DLQSink,
	maxAttempts int,
	backoffBase time.Duration,
) *Consumer {
	return NewConsumer(logger, brokers, groupID, topic, dlq, func(ctx context.Context, payload map[string]interface{}) error {
		event, err := parseProductBrandChangedEvent(payload)
		if err != nil {
			return err
		}
		return svc.HandleProductBrandChanged(ctx, event)
	}, maxAttempts, backoffBase)
}

// parseEnvelope извлекает общие поля события из payload
func parseEnvelope(payload map[string]interface{}) (eventID, eventType string, eventVersion int, occurredAt time.Time) {
	if v, ok := payload["event_id"].(string); ok {
		eventID = v
	}
	if v, ok := payload["event_type"].(string); ok {
		eventType = v
	}
	if v, ok := payload["event_version"].(float64); ok {
		eventVersion = int(v)
	}
	if v, ok := payload["occurred_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			occurredAt = t
		}
	}
	return eventID, eventType, eventVersion, occurredAt
}

// parseIDList извлекает непустой список положительных идентификаторов
func parseIDList(payload map[string]interface{}, field string) ([]int64, error) {
	raw, ok := payload[field].([]interface{})
	if !ok {
		return nil, &ParseError{Field: field, Message: field + " is required"}
	}
	if len(raw) == 0 {
		return nil, &ParseError{Field: field, Message: field + " must not be empty"}
	}

	ids := make([]int64, 0, len(raw))
	for i, v := range raw {
		f, ok := v.(float64)
		if !ok || f <= 0 || f != float64(int64(f)) {
			return nil, &ParseError{
				Field:   field,
				Message: fmt.Sprintf("%s[%d] must be a positive integer", field, i),
			}
		}
		ids = append(ids, int64(f))
	}
	return ids, nil
}

// parsePositiveID извлекает обязательный положительный идентификатор
func parsePositiveID(payload map[string]interface{}, field string) (int64, error) {
	f, ok := payload[field].(float64)
	if !ok || f <= 0 || f != float64(int64(f)) {
		return 0, &ParseError{Field: field, Message: field + " must be a positive integer"}
	}
	return int64(f), nil
}

// parseSizeDeletionEvent преобразует payload в SizeDeletionEvent
func parseSizeDeletionEvent(payload map[string]interface{}) (service.SizeDeletionEvent, error) {
	event := service.SizeDeletionEvent{}
	event.EventID, event.EventType, event.EventVersion, event.OccurredAt = parseEnvelope(payload)

	ids, err := parseIDList(payload, "size_ids")
	if err != nil {
		return event, err
	}
	event.SizeIDs = ids
	return event, nil
}

// parseBrandDeletionEvent преобразует payload в BrandDeletionEvent
func parseBrandDeletionEvent(payload map[string]interface{}) (service.BrandDeletionEvent, error) {
	event := service.BrandDeletionEvent{}
	event.EventID, event.EventType, event.EventVersion, event.OccurredAt = parseEnvelope(payload)

	ids, err := parseIDList(payload, "brand_ids")
	if err != nil {
		return event, err
	}
	event.BrandIDs = ids
	return event, nil
}

// parseProductBrandChangedEvent преобразует payload в ProductBrandChangedEvent
func parseProductBrandChangedEvent(payload map[string]interface{}) (service.ProductBrandChangedEvent, error) {
	event := service.ProductBrandChangedEvent{}
	event.EventID, event.EventType, event.EventVersion, event.OccurredAt = parseEnvelope(payload)

	productID, err := parsePositiveID(payload, "product_id")
	if err != nil {
		return event, err
	}
	newBrandID, err := parsePositiveID(payload, "new_brand_id")
	if err != nil {
		return event, err
	}

	event.ProductID = productID
	event.NewBrandID = newBrandID
	return event, nil
}
