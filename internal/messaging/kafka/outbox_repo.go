package kafka

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Aggregate type stamped on every row; this service stages payroll events
// and nothing else.
const PayrollAggregate = "payroll"

const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

// OutboxEvent is one payroll event staged in the same transaction as the
// write it announces. The relay drains it to Kafka after commit.
type OutboxEvent struct {
	ID            string
	RequestID     string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       []byte
	Status        string
	Attempts      int
	NextAttemptAt time.Time
}

// NewPayrollEvent builds a pending event keyed by the payroll id, so every
// message for one payroll lands on the same partition.
func NewPayrollEvent(requestID, payrollID, eventType, topic string, payload []byte) OutboxEvent {
	return OutboxEvent{
		ID:          uuid.NewString(),
		RequestID:   requestID,
		AggregateID: payrollID,
		EventType:   eventType,
		Topic:       topic,
		Payload:     payload,
		Status:      OutboxStatusPending,
	}
}

func (e OutboxEvent) validate() error {
	if e.ID == "" {
		return errors.New("outbox id is required")
	}
	if e.AggregateID == "" {
		return errors.New("outbox aggregate id is required")
	}
	if e.Topic == "" {
		return errors.New("outbox topic is required")
	}
	if len(e.Payload) == 0 {
		return errors.New("outbox payload is required")
	}
	return nil
}

//go:generate mockgen -source=outbox_repo.go -destination=mock/outbox_repo_mock.go -package=mock

// OutboxRepository is the staging side (Stage, inside the caller's tx) and
// the relay side (PendingBatch/MarkSent/MarkFailed, own connection) of the
// payroll outbox.
type OutboxRepository interface {
	WithTx(tx *sql.Tx) OutboxRepository
	Stage(ctx context.Context, event OutboxEvent) error
	PendingBatch(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

type outboxRepository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewOutboxRepository(db *sql.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) WithTx(tx *sql.Tx) OutboxRepository {
	return &outboxRepository{db: r.db, tx: tx}
}

func (r *outboxRepository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *outboxRepository) Stage(ctx context.Context, event OutboxEvent) error {
	if err := event.validate(); err != nil {
		return err
	}

	query := `
        INSERT INTO payroll_outbox (
            id, request_id, aggregate_type, aggregate_id, event_type, topic, payload, status
        ) VALUES ($1, $2, '` + PayrollAggregate + `', $3, $4, $5, $6, $7)
    `

	_, err := r.execer().ExecContext(
		ctx, query,
		event.ID, event.RequestID, event.AggregateID,
		event.EventType, event.Topic, event.Payload, event.Status,
	)
	return err
}

// PendingBatch returns events due for delivery, oldest first. Failed events
// reappear once their backoff window has passed.
func (r *outboxRepository) PendingBatch(ctx context.Context, limit int) ([]OutboxEvent, error) {
	query := `
SELECT
	id::text,
	COALESCE(request_id, ''),
	aggregate_id::text,
	event_type,
	topic,
	payload,
	status,
	attempts,
	COALESCE(next_attempt_at, created_at)
FROM payroll_outbox
WHERE status IN ($1, $2)
	AND (next_attempt_at IS NULL OR next_attempt_at <= NOW())
ORDER BY created_at ASC
LIMIT $3
`

	rows, err := r.db.QueryContext(ctx, query, OutboxStatusPending, OutboxStatusFailed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]OutboxEvent, 0, limit)
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(
			&e.ID,
			&e.RequestID,
			&e.AggregateID,
			&e.EventType,
			&e.Topic,
			&e.Payload,
			&e.Status,
			&e.Attempts,
			&e.NextAttemptAt,
		); err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	query := `
UPDATE payroll_outbox
SET
	status = $2,
	published_at = NOW(),
	last_error = NULL,
	updated_at = NOW()
WHERE id = $1
`
	_, err := r.db.ExecContext(ctx, query, id, OutboxStatusSent)
	return err
}

// MarkFailed records the reason and pushes the next attempt out with a
// bounded linear backoff (30s per prior attempt, capped at 8 steps).
func (r *outboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	query := `
UPDATE payroll_outbox
SET
	status = $2,
	attempts = attempts + 1,
	last_error = LEFT($3, 500),
	next_attempt_at = NOW() + make_interval(secs => LEAST(attempts + 1, 8) * 30),
	updated_at = NOW()
WHERE id = $1
`
	_, err := r.db.ExecContext(ctx, query, id, OutboxStatusFailed, reason)
	return err
}
