package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-payroll/internal/directory"
	"go-payroll/internal/messaging/kafka"
	payrollerrors "go-payroll/internal/payroll/errors"
	"go-payroll/internal/shared/contextutil"

	"go.uber.org/zap"
)

const (
	BulkModeBestEffort   = "BEST_EFFORT"
	BulkModeAllOrNothing = "ALL_OR_NOTHING"
)

type BulkFailure struct {
	EmployeeCode string `json:"employee_code"`
	Reason       string `json:"reason"`
}

type BulkResult struct {
	Mode      string        `json:"mode"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Failures  []BulkFailure `json:"failures,omitempty"`
}

// BatchError carries the per-employee failures of an ALL_OR_NOTHING run that
// was rolled back.
type BatchError struct {
	Failures []BulkFailure
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("bulk payroll generation failed for %d employee(s)", len(e.Failures))
}

func (s *service) RunBulk(ctx context.Context, mode string) (BulkResult, error) {
	switch mode {
	case BulkModeBestEffort, BulkModeAllOrNothing:
	default:
		return BulkResult{}, payrollerrors.ErrInvalidBulkMode
	}

	// A directory outage aborts the run up front in both modes; partial
	// population listings are worse than no run at all.
	employees, err := s.dir.ListAll(ctx)
	if err != nil {
		s.logger.Error("bulk run aborted, employee listing failed",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.Error(err),
		)
		return BulkResult{}, err
	}

	s.logger.Info("bulk payroll run started",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("mode", mode),
		zap.Int("population", len(employees)),
	)

	if mode == BulkModeAllOrNothing {
		return s.runBulkTransactional(ctx, employees)
	}
	return s.runBulkBestEffort(ctx, employees)
}

func (s *service) runBulkBestEffort(ctx context.Context, employees []directory.EmployeeDTO) (BulkResult, error) {
	result := BulkResult{Mode: BulkModeBestEffort}
	period := firstOfMonth(time.Now().UTC()).Format("2006-01-02")

	for _, employee := range employees {
		req := GeneratePayrollRequest{
			EmployeeCode: employee.EmployeeCode,
			EmployeeID:   employee.ID,
			PayPeriod:    period,
		}

		// Each record commits or rolls back on its own.
		_, err := s.Generate(ctx, req)
		switch {
		case err == nil:
			result.Processed++
		case errors.Is(err, payrollerrors.ErrPayrollAlreadyExists):
			result.Skipped++
		default:
			result.Failed++
			result.Failures = append(result.Failures, BulkFailure{
				EmployeeCode: employee.EmployeeCode,
				Reason:       err.Error(),
			})
		}
	}

	s.logger.Info("bulk payroll run finished",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("mode", result.Mode),
		zap.Int("processed", result.Processed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *service) runBulkTransactional(ctx context.Context, employees []directory.EmployeeDTO) (BulkResult, error) {
	result := BulkResult{Mode: BulkModeAllOrNothing}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return BulkResult{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	var outboxTx kafka.OutboxRepository
	if s.outbox != nil {
		outboxTx = s.outbox.WithTx(tx)
	}

	now := time.Now().UTC()
	period := firstOfMonth(now).Format("2006-01-02")

	for _, employee := range employees {
		req := GeneratePayrollRequest{
			EmployeeCode: employee.EmployeeCode,
			EmployeeID:   employee.ID,
			PayPeriod:    period,
		}

		_, err := s.generateOne(ctx, qtx, outboxTx, req, now)
		switch {
		case err == nil:
			result.Processed++
		case errors.Is(err, payrollerrors.ErrPayrollAlreadyExists):
			result.Skipped++
		default:
			result.Failed++
			result.Failures = append(result.Failures, BulkFailure{
				EmployeeCode: employee.EmployeeCode,
				Reason:       err.Error(),
			})
		}
	}

	if result.Failed > 0 {
		// The deferred rollback discards every insert from this run.
		result.Processed = 0
		s.logger.Warn("bulk payroll run rolled back",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.Int("failed", result.Failed),
		)
		return result, &BatchError{Failures: result.Failures}
	}

	if err := tx.Commit(); err != nil {
		// Keep the counts; the caller logs them alongside the commit error.
		return result, err
	}

	s.logger.Info("bulk payroll run finished",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("mode", result.Mode),
		zap.Int("processed", result.Processed),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
