package payroll_test

import (
	"context"
	"encoding/json"
	"testing"

	"go-payroll/internal/events"
	"go-payroll/internal/messaging/kafka"
	"go-payroll/internal/payroll"
	payrollerrors "go-payroll/internal/payroll/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func draftSalary(id uuid.UUID) *payroll.Salary {
	return &payroll.Salary{
		ID:           id,
		EmployeeID:   uuid.New(),
		EmployeeCode: "EMP001",
		BasicSalary:  decimal.NewFromInt(1000),
		Allowances:   decimal.NewFromInt(200),
		Deductions:   decimal.NewFromInt(100),
		NetSalary:    decimal.NewFromInt(1100),
		Status:       payroll.StatusDraft,
	}
}

func TestPayrollService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("draft to paid", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		id := uuid.New()
		deps.repo.findByIDFn = func(ctx context.Context, got string) (*payroll.Salary, error) {
			assert.Equal(t, id.String(), got)
			return draftSalary(id), nil
		}

		var staged []kafka.OutboxEvent
		deps.outbox.stageFn = func(ctx context.Context, event kafka.OutboxEvent) error {
			staged = append(staged, event)
			return nil
		}

		expectTx(t, deps.sqlMock, true)

		resp, err := deps.service.UpdateStatus(ctx, id.String(), payroll.StatusPaid)

		assert.NoError(t, err)
		assert.Equal(t, payroll.StatusPaid, resp.Status)
		if assert.Len(t, staged, 1) {
			assert.Equal(t, events.PayrollStatusChangedTopic, staged[0].Topic)
			var event events.PayrollStatusChangedEvent
			assert.NoError(t, json.Unmarshal(staged[0].Payload, &event))
			assert.Equal(t, payroll.StatusDraft, event.OldStatus)
			assert.Equal(t, payroll.StatusPaid, event.NewStatus)
		}
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("unknown status", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.UpdateStatus(ctx, uuid.New().String(), "SHIPPED")

		assert.ErrorIs(t, err, payrollerrors.ErrInvalidStatus)
	})

	t.Run("payroll missing", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.findByIDFn = func(ctx context.Context, id string) (*payroll.Salary, error) {
			return nil, gorm.ErrRecordNotFound
		}

		_, err := deps.service.UpdateStatus(ctx, uuid.New().String(), payroll.StatusApproved)

		assert.ErrorIs(t, err, payrollerrors.ErrPayrollNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.UpdateStatus(ctx, "nope", payroll.StatusApproved)

		assert.ErrorIs(t, err, payrollerrors.ErrInvalidPayrollID)
	})
}

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"DRAFT", "APPROVED", "PAID", "CANCELLED"} {
		got, err := payroll.ParseStatus(valid)
		assert.NoError(t, err)
		assert.Equal(t, valid, got)
	}

	_, err := payroll.ParseStatus("draft")
	assert.ErrorIs(t, err, payrollerrors.ErrInvalidStatus)
}

func TestPayrollService_GetByStatus_RejectsUnknownFilter(t *testing.T) {
	deps := setupServiceTest(t)
	defer deps.db.Close()

	_, err := deps.service.GetByStatus(context.Background(), "PENDING")

	assert.ErrorIs(t, err, payrollerrors.ErrInvalidStatus)
}
