package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"go-payroll/internal/directory"
	"go-payroll/internal/events"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EmployeeLifecycleConsumer drops cached directory snapshots when the
// employee registry announces a change. Payroll rows are untouched here:
// cascade deletion is an explicit API call from the registry, never a side
// effect of an event.
type EmployeeLifecycleConsumer struct {
	reader *kafkago.Reader
	rdb    *redis.Client
	logger *zap.Logger
}

func NewEmployeeLifecycleConsumer(broker, groupID string, rdb *redis.Client, logger ...*zap.Logger) *EmployeeLifecycleConsumer {
	l := zap.L().Named("consumer.employee_lifecycle")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("consumer.employee_lifecycle")
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: []string{broker},
		GroupID: groupID,
		Topic:   events.EmployeeLifecycleTopic,
	})

	return &EmployeeLifecycleConsumer{
		reader: reader,
		rdb:    rdb,
		logger: l,
	}
}

func (c *EmployeeLifecycleConsumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	c.logger.Info("employee lifecycle consumer started",
		zap.String("topic", events.EmployeeLifecycleTopic),
	)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := c.handle(ctx, msg.Value); err != nil {
			// Leave the offset uncommitted so the message is retried.
			c.logger.Error("failed to handle employee lifecycle event", zap.Error(err))
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit offset", zap.Error(err))
		}
	}
}

func (c *EmployeeLifecycleConsumer) handle(ctx context.Context, payload []byte) error {
	var event events.EmployeeLifecycleEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		// A malformed message never becomes valid; log and move on.
		c.logger.Warn("discarding malformed employee lifecycle event", zap.Error(err))
		return nil
	}

	switch event.EventType {
	case events.EmployeeUpdatedEventType, events.EmployeeDeletedEventType:
	default:
		return nil
	}

	if event.EmployeeCode == "" {
		return nil
	}

	if err := c.rdb.Del(ctx, directory.EmployeeCacheKey(event.EmployeeCode)).Err(); err != nil {
		return err
	}

	c.logger.Info("directory cache invalidated",
		zap.String("event_type", event.EventType),
		zap.String("employee_code", event.EmployeeCode),
	)
	return nil
}
