package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockDLQSink реализует DLQSink для тестов
type MockDLQSink struct {
	mock.Mock
}

func (m *MockDLQSink) Publish(ctx context.Context, msg kafka.Message, cause error, eventType, eventID string) error {
	args := m.Called(ctx, msg, cause, eventType, eventID)
	return args.Error(0)
}

func newTestConsumer(dlq DLQSink, process ProcessFunc) *Consumer {
	return &Consumer{
		logger:      zap.NewNop(),
		dlq:         dlq,
		process:     process,
		maxAttempts: 3,
		backoffBase: time.Millisecond,
	}
}

func cascadeMessage(value string) kafka.Message {
	return kafka.Message{
		Topic:     "catalog.size.deleted",
		Partition: 0,
		Offset:    42,
		Value:     []byte(value),
	}
}

func TestProcessMessage_SuccessCommitsWithoutDLQ(t *testing.T) {
	dlq := new(MockDLQSink)

	calls := 0
	consumer := newTestConsumer(dlq, func(ctx context.Context, payload map[string]interface{}) error {
		calls++
		return nil
	})

	m := cascadeMessage(`{"event_id": "evt-1", "event_type": "catalog.size.deleted", "size_ids": [1]}`)

	commit := consumer.processMessage(context.Background(), m)

	assert.True(t, commit)
	assert.Equal(t, 1, calls)
	dlq.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessMessage_MalformedJSONGoesToDLQAndCommits(t *testing.T) {
	dlq := new(MockDLQSink)
	dlq.On("Publish", mock.Anything, mock.Anything, mock.Anything, "", "").Return(nil)

	consumer := newTestConsumer(dlq, func(ctx context.Context, payload map[string]interface{}) error {
		t.Errorf("process should not be called for malformed JSON")
		return nil
	})

	commit := consumer.processMessage(context.Background(), cascadeMessage(`{not json`))

	assert.True(t, commit)
	dlq.AssertNumberOfCalls(t, "Publish", 1)
}

func TestProcessMessage_ParseErrorGoesToDLQWithoutRetry(t *testing.T) {
	dlq := new(MockDLQSink)
	dlq.On("Publish", mock.Anything, mock.Anything, mock.Anything, "catalog.size.deleted", "evt-1").Return(nil)

	calls := 0
	consumer := newTestConsumer(dlq, func(ctx context.Context, payload map[string]interface{}) error {
		calls++
		return &ParseError{Field: "size_ids", Message: "size_ids is missing"}
	})

	m := cascadeMessage(`{"event_id": "evt-1", "event_type": "catalog.size.deleted"}`)

	commit := consumer.processMessage(context.Background(), m)

	assert.True(t, commit)
	// Poison pill не ретраится
	assert.Equal(t, 1, calls)
	dlq.AssertNumberOfCalls(t, "Publish", 1)
}

func TestProcessMessage_TransientErrorRetriedThenSucceeds(t *testing.T) {
	dlq := new(MockDLQSink)

	calls := 0
	consumer := newTestConsumer(dlq, func(ctx context.Context, payload map[string]interface{}) error {
		calls++
		if calls < 2 {
			return errors.New("store unavailable")
		}
		return nil
	})

	m := cascadeMessage(`{"event_id": "evt-1", "event_type": "catalog.size.deleted", "size_ids": [1]}`)

	commit := consumer.processMessage(context.Background(), m)

	assert.True(t, commit)
	assert.Equal(t, 2, calls)
	dlq.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessMessage_ExhaustedRetriesGoToDLQAndCommit(t *testing.T) {
	transientErr := errors.New("store unavailable")

	dlq := new(MockDLQSink)
	dlq.On("Publish", mock.Anything, mock.Anything, transientErr, "catalog.size.deleted", "evt-1").Return(nil)

	calls := 0
	consumer := newTestConsumer(dlq, func(ctx context.Context, payload map[string]interface{}) error {
		calls++
		return transientErr
	})

	m := cascadeMessage(`{"event_id": "evt-1", "event_type": "catalog.size.deleted", "size_ids": [1]}`)

	commit := consumer.processMessage(context.Background(), m)

	assert.True(t, commit)
	assert.Equal(t, 3, calls)
	dlq.AssertNumberOfCalls(t, "Publish", 1)
}

func TestProcessMessage_DLQFailureBlocksCommit(t *testing.T) {
	dlq := new(MockDLQSink)
	dlq.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("dlq broker unavailable"))

	consumer := newTestConsumer(dlq, func(ctx context.Context, payload map[string]interface{}) error {
		return &ParseError{Field: "size_ids", Message: "size_ids is missing"}
	})

	m := cascadeMessage(`{"event_id": "evt-1", "event_type": "catalog.size.deleted"}`)

	// Kafka должна повторить доставку, offset не коммитим
	commit := consumer.processMessage(context.Background(), m)

	assert.False(t, commit)
}
