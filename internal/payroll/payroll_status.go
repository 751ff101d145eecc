package payroll

import (
	"context"
	"encoding/json"
	"time"

	"go-payroll/internal/events"
	"go-payroll/internal/messaging/kafka"
	payrollerrors "go-payroll/internal/payroll/errors"
	"go-payroll/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *service) UpdateStatus(ctx context.Context, id, newStatus string) (PayrollResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return PayrollResponse{}, payrollerrors.ErrInvalidPayrollID
	}

	status, err := ParseStatus(newStatus)
	if err != nil {
		return PayrollResponse{}, err
	}

	salary, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return PayrollResponse{}, mapRepositoryError(err)
	}

	if !statusTransitionAllowed(salary.Status, status) {
		return PayrollResponse{}, payrollerrors.ErrInvalidStatusTransition
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PayrollResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	affected, err := qtx.UpdateStatus(ctx, id, status)
	if err != nil {
		return PayrollResponse{}, mapRepositoryError(err)
	}
	if affected == 0 {
		return PayrollResponse{}, payrollerrors.ErrPayrollNotFound
	}

	if s.outbox != nil {
		if err := s.stageStatusChangedEvent(ctx, s.outbox.WithTx(tx), id, salary.Status, status); err != nil {
			return PayrollResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return PayrollResponse{}, err
	}

	s.logger.Info("payroll status updated",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("payroll_id", id),
		zap.String("old_status", salary.Status),
		zap.String("new_status", status),
	)

	salary.Status = status
	salary.UpdatedAt = time.Now().UTC()
	return mapToResponse(*salary), nil
}

func (s *service) stageStatusChangedEvent(ctx context.Context, outboxTx kafka.OutboxRepository, id, oldStatus, newStatus string) error {
	event := events.PayrollStatusChangedEvent{
		EventType:  "payroll_status_changed",
		RequestID:  contextutil.GetRequestID(ctx),
		PayrollID:  id,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return outboxTx.Stage(ctx, kafka.NewPayrollEvent(
		event.RequestID, id, event.EventType,
		events.PayrollStatusChangedTopic, payload,
	))
}
