package producer

import (
	"context"
	"time"

	"go-payroll/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const relayBatchSize = 50

// RunOutboxRelay drains the payroll outbox to Kafka until the context is
// cancelled. Each tick sweeps full batches until the table is quiet, so a
// backlog clears at write speed instead of one batch per interval.
func RunOutboxRelay(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer *kafkago.Writer,
	logger *zap.Logger,
	pollInterval time.Duration,
) {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}

	log := logger.Named("kafka.outbox_relay")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Info("outbox relay started", zap.Duration("poll_interval", pollInterval))

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox relay stopped")
			return
		case <-ticker.C:
			if err := sweep(ctx, repo, writer, log); err != nil {
				log.Error("outbox sweep failed", zap.Error(err))
			}
		}
	}
}

// sweep keeps pulling due batches until one comes back short of the limit.
func sweep(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer *kafkago.Writer,
	log *zap.Logger,
) error {
	var sent, failed int

	for {
		batch, err := repo.PendingBatch(ctx, relayBatchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}

		for _, event := range batch {
			if err := relay(ctx, writer, event); err != nil {
				failed++
				log.Error("relay of payroll event failed",
					zap.String("outbox_id", event.ID),
					zap.String("event_type", event.EventType),
					zap.Int("attempts", event.Attempts),
					zap.Error(err),
				)
				_ = repo.MarkFailed(ctx, event.ID, err.Error())
				continue
			}

			if err := repo.MarkSent(ctx, event.ID); err != nil {
				// The event went out; the next sweep will redeliver it,
				// consumers must tolerate the duplicate.
				log.Error("mark sent failed",
					zap.String("outbox_id", event.ID),
					zap.Error(err),
				)
				continue
			}
			sent++
		}

		if len(batch) < relayBatchSize {
			break
		}
	}

	if sent > 0 || failed > 0 {
		log.Info("outbox sweep finished", zap.Int("sent", sent), zap.Int("failed", failed))
	}
	return nil
}
