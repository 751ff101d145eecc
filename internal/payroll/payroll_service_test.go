package payroll_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	directoryerrors "go-payroll/internal/directory/errors"
	"go-payroll/internal/events"
	"go-payroll/internal/messaging/kafka"
	"go-payroll/internal/payroll"
	payrollerrors "go-payroll/internal/payroll/errors"

	"go-payroll/internal/directory"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type fakeRepository struct {
	withTxFn                      func(tx *sql.Tx) payroll.Repository
	createFn                      func(ctx context.Context, salary *payroll.Salary) error
	existsByCodeAndPeriodFn       func(ctx context.Context, employeeCode string, payPeriod time.Time) (bool, error)
	findByIDFn                    func(ctx context.Context, id string) (*payroll.Salary, error)
	findAllFn                     func(ctx context.Context, limit, offset int) ([]payroll.Salary, int64, error)
	findByEmployeeIDFn            func(ctx context.Context, employeeID string) ([]payroll.Salary, error)
	findByEmployeeCodeFn          func(ctx context.Context, employeeCode string) ([]payroll.Salary, error)
	findByStatusFn                func(ctx context.Context, status string) ([]payroll.Salary, error)
	findByEmployeeCodeAndStatusFn func(ctx context.Context, employeeCode, status string) ([]payroll.Salary, error)
	updateStatusFn                func(ctx context.Context, id, status string) (int64, error)
	deleteByIDFn                  func(ctx context.Context, id string) (int64, error)
	deleteByEmployeeCodeFn        func(ctx context.Context, employeeCode string) (int64, error)
}

func (f *fakeRepository) WithTx(tx *sql.Tx) payroll.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeRepository) Create(ctx context.Context, salary *payroll.Salary) error {
	if f.createFn != nil {
		return f.createFn(ctx, salary)
	}
	return nil
}

func (f *fakeRepository) ExistsByCodeAndPeriod(ctx context.Context, employeeCode string, payPeriod time.Time) (bool, error) {
	if f.existsByCodeAndPeriodFn != nil {
		return f.existsByCodeAndPeriodFn(ctx, employeeCode, payPeriod)
	}
	return false, nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id string) (*payroll.Salary, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeRepository) FindAll(ctx context.Context, limit, offset int) ([]payroll.Salary, int64, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx, limit, offset)
	}
	return nil, 0, nil
}

func (f *fakeRepository) FindByEmployeeID(ctx context.Context, employeeID string) ([]payroll.Salary, error) {
	if f.findByEmployeeIDFn != nil {
		return f.findByEmployeeIDFn(ctx, employeeID)
	}
	return nil, nil
}

func (f *fakeRepository) FindByEmployeeCode(ctx context.Context, employeeCode string) ([]payroll.Salary, error) {
	if f.findByEmployeeCodeFn != nil {
		return f.findByEmployeeCodeFn(ctx, employeeCode)
	}
	return nil, nil
}

func (f *fakeRepository) FindByStatus(ctx context.Context, status string) ([]payroll.Salary, error) {
	if f.findByStatusFn != nil {
		return f.findByStatusFn(ctx, status)
	}
	return nil, nil
}

func (f *fakeRepository) FindByEmployeeCodeAndStatus(ctx context.Context, employeeCode, status string) ([]payroll.Salary, error) {
	if f.findByEmployeeCodeAndStatusFn != nil {
		return f.findByEmployeeCodeAndStatusFn(ctx, employeeCode, status)
	}
	return nil, nil
}

func (f *fakeRepository) UpdateStatus(ctx context.Context, id, status string) (int64, error) {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, id, status)
	}
	return 1, nil
}

func (f *fakeRepository) DeleteByID(ctx context.Context, id string) (int64, error) {
	if f.deleteByIDFn != nil {
		return f.deleteByIDFn(ctx, id)
	}
	return 1, nil
}

func (f *fakeRepository) DeleteByEmployeeCode(ctx context.Context, employeeCode string) (int64, error) {
	if f.deleteByEmployeeCodeFn != nil {
		return f.deleteByEmployeeCodeFn(ctx, employeeCode)
	}
	return 0, nil
}

type fakeDirectoryClient struct {
	getByCodeFn func(ctx context.Context, employeeCode string) (*directory.EmployeeDTO, error)
	listAllFn   func(ctx context.Context) ([]directory.EmployeeDTO, error)
}

func (f *fakeDirectoryClient) GetByCode(ctx context.Context, employeeCode string) (*directory.EmployeeDTO, error) {
	if f.getByCodeFn != nil {
		return f.getByCodeFn(ctx, employeeCode)
	}
	return &directory.EmployeeDTO{
		ID:           uuid.New().String(),
		EmployeeCode: employeeCode,
		BasicSalary:  decimal.NewFromInt(1000),
	}, nil
}

func (f *fakeDirectoryClient) ListAll(ctx context.Context) ([]directory.EmployeeDTO, error) {
	if f.listAllFn != nil {
		return f.listAllFn(ctx)
	}
	return nil, nil
}

type fakeOutboxRepository struct {
	withTxFn func(tx *sql.Tx) kafka.OutboxRepository
	stageFn  func(ctx context.Context, event kafka.OutboxEvent) error
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeOutboxRepository) Stage(ctx context.Context, event kafka.OutboxEvent) error {
	if f.stageFn != nil {
		return f.stageFn(ctx, event)
	}
	return nil
}

func (f *fakeOutboxRepository) PendingBatch(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error {
	return nil
}

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

type serviceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service payroll.Service
	repo    *fakeRepository
	dir     *fakeDirectoryClient
	outbox  *fakeOutboxRepository
}

func setupServiceTest(t *testing.T) *serviceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeRepository{}
	dir := &fakeDirectoryClient{}
	outbox := &fakeOutboxRepository{}
	svc := payroll.NewService(db, repo, dir, outbox)

	return &serviceDeps{db: db, sqlMock: sqlMock, service: svc, repo: repo, dir: dir, outbox: outbox}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func lastMonth() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
}

func TestPayrollService_Generate_Defaults(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New().String()

	deps := setupServiceTest(t)
	defer deps.db.Close()

	expectTx(t, deps.sqlMock, true)
	deps.dir.getByCodeFn = func(ctx context.Context, code string) (*directory.EmployeeDTO, error) {
		assert.Equal(t, "EMP001", code)
		return &directory.EmployeeDTO{ID: employeeID, EmployeeCode: code, BasicSalary: decimal.NewFromInt(1000)}, nil
	}

	var staged []kafka.OutboxEvent
	deps.outbox.stageFn = func(ctx context.Context, event kafka.OutboxEvent) error {
		staged = append(staged, event)
		return nil
	}

	resp, err := deps.service.Generate(ctx, payroll.GeneratePayrollRequest{EmployeeCode: "EMP001"})

	assert.NoError(t, err)
	assert.Equal(t, "EMP001", resp.EmployeeCode)
	assert.Equal(t, employeeID, resp.EmployeeID)
	assert.True(t, resp.BasicSalary.Equal(decimal.NewFromInt(1000)))
	assert.True(t, resp.Allowances.Equal(decimal.NewFromInt(200)))
	assert.True(t, resp.Deductions.Equal(decimal.NewFromInt(100)))
	assert.True(t, resp.NetSalary.Equal(decimal.NewFromInt(1100)))
	assert.Equal(t, payroll.StatusDraft, resp.Status)

	now := time.Now().UTC()
	assert.Equal(t, time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02"), resp.PayPeriod)

	if assert.Len(t, staged, 1) {
		assert.Equal(t, events.PayrollGeneratedTopic, staged[0].Topic)
		var event events.PayrollGeneratedEvent
		assert.NoError(t, json.Unmarshal(staged[0].Payload, &event))
		assert.Equal(t, resp.ID, event.PayrollID)
		assert.Equal(t, "1100", event.NetSalary)
	}
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestPayrollService_Generate_CallerValuesWin(t *testing.T) {
	ctx := context.Background()

	deps := setupServiceTest(t)
	defer deps.db.Close()

	expectTx(t, deps.sqlMock, true)

	allowances := decimal.NewFromInt(50)
	basic := decimal.NewFromInt(2000)
	resp, err := deps.service.Generate(ctx, payroll.GeneratePayrollRequest{
		EmployeeCode: "EMP001",
		BasicSalary:  &basic,
		Allowances:   &allowances,
	})

	assert.NoError(t, err)
	assert.True(t, resp.BasicSalary.Equal(basic))
	assert.True(t, resp.Allowances.Equal(allowances))
	// Deductions still default to 10% of the basic the caller supplied.
	assert.True(t, resp.Deductions.Equal(decimal.NewFromInt(200)))
	assert.True(t, resp.NetSalary.Equal(decimal.NewFromInt(1850)))
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestPayrollService_Generate_NormalizesPayPeriod(t *testing.T) {
	ctx := context.Background()

	deps := setupServiceTest(t)
	defer deps.db.Close()

	expectTx(t, deps.sqlMock, true)

	period := lastMonth()
	midMonth := period.AddDate(0, 0, 16).Format("2006-01-02")

	var storedPeriod time.Time
	deps.repo.existsByCodeAndPeriodFn = func(ctx context.Context, code string, payPeriod time.Time) (bool, error) {
		storedPeriod = payPeriod
		return false, nil
	}

	resp, err := deps.service.Generate(ctx, payroll.GeneratePayrollRequest{
		EmployeeCode: "EMP001",
		PayPeriod:    midMonth,
	})

	assert.NoError(t, err)
	assert.Equal(t, period.Format("2006-01-02"), resp.PayPeriod)
	assert.Equal(t, period, storedPeriod)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestPayrollService_Generate_Validation(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		req     payroll.GeneratePayrollRequest
		wantErr error
	}{
		{
			name:    "blank employee code",
			req:     payroll.GeneratePayrollRequest{EmployeeCode: "   "},
			wantErr: payrollerrors.ErrEmployeeCodeRequired,
		},
		{
			name:    "lowercase employee code",
			req:     payroll.GeneratePayrollRequest{EmployeeCode: "emp001"},
			wantErr: payrollerrors.ErrInvalidEmployeeCode,
		},
		{
			name:    "employee code too short",
			req:     payroll.GeneratePayrollRequest{EmployeeCode: "E1"},
			wantErr: payrollerrors.ErrInvalidEmployeeCode,
		},
		{
			name:    "malformed pay period",
			req:     payroll.GeneratePayrollRequest{EmployeeCode: "EMP001", PayPeriod: "03-2024"},
			wantErr: payrollerrors.ErrInvalidDateFormat,
		},
		{
			name: "pay period in the future",
			req: payroll.GeneratePayrollRequest{
				EmployeeCode: "EMP001",
				PayPeriod:    time.Now().UTC().AddDate(0, 2, 0).Format("2006-01-02"),
			},
			wantErr: payrollerrors.ErrPayPeriodInFuture,
		},
		{
			name: "pay period older than two years",
			req: payroll.GeneratePayrollRequest{
				EmployeeCode: "EMP001",
				PayPeriod:    time.Now().UTC().AddDate(0, -25, 0).Format("2006-01-02"),
			},
			wantErr: payrollerrors.ErrPayPeriodTooOld,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := setupServiceTest(t)
			defer deps.db.Close()

			expectTx(t, deps.sqlMock, false)

			_, err := deps.service.Generate(ctx, tc.req)

			assert.ErrorIs(t, err, tc.wantErr)
			assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		})
	}
}

func TestPayrollService_Generate_TwoYearBoundaryAccepted(t *testing.T) {
	ctx := context.Background()

	deps := setupServiceTest(t)
	defer deps.db.Close()

	expectTx(t, deps.sqlMock, true)

	// Anything inside the cutoff month normalizes onto the cutoff itself.
	now := time.Now().UTC()
	boundary := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(-2, 0, 0).
		AddDate(0, 0, 14).
		Format("2006-01-02")

	_, err := deps.service.Generate(ctx, payroll.GeneratePayrollRequest{
		EmployeeCode: "EMP001",
		PayPeriod:    boundary,
	})

	assert.NoError(t, err)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestPayrollService_Generate_MoneyRules(t *testing.T) {
	ctx := context.Background()

	dec := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}

	cases := []struct {
		name    string
		req     payroll.GeneratePayrollRequest
		wantErr error
	}{
		{
			name:    "zero basic salary",
			req:     payroll.GeneratePayrollRequest{EmployeeCode: "EMP001", BasicSalary: dec(0)},
			wantErr: payrollerrors.ErrBasicSalaryNotPositive,
		},
		{
			name:    "basic salary above cap",
			req:     payroll.GeneratePayrollRequest{EmployeeCode: "EMP001", BasicSalary: dec(1_000_001)},
			wantErr: payrollerrors.ErrBasicSalaryTooLarge,
		},
		{
			name:    "negative deductions",
			req:     payroll.GeneratePayrollRequest{EmployeeCode: "EMP001", Deductions: dec(-10)},
			wantErr: payrollerrors.ErrNegativeMoneyValue,
		},
		{
			name:    "allowances exceed basic",
			req:     payroll.GeneratePayrollRequest{EmployeeCode: "EMP001", Allowances: dec(1500)},
			wantErr: payrollerrors.ErrAllowancesExceedBasic,
		},
		{
			name:    "deductions exceed earnings",
			req:     payroll.GeneratePayrollRequest{EmployeeCode: "EMP001", Deductions: dec(1300)},
			wantErr: payrollerrors.ErrDeductionsExceedEarnings,
		},
		{
			name:    "net salary mismatch",
			req:     payroll.GeneratePayrollRequest{EmployeeCode: "EMP001", NetSalary: dec(999)},
			wantErr: payrollerrors.ErrNetSalaryMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps := setupServiceTest(t)
			defer deps.db.Close()

			expectTx(t, deps.sqlMock, false)

			_, err := deps.service.Generate(ctx, tc.req)

			assert.ErrorIs(t, err, tc.wantErr)
			assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		})
	}
}

func TestPayrollService_Generate_NetWithinTolerance(t *testing.T) {
	ctx := context.Background()

	deps := setupServiceTest(t)
	defer deps.db.Close()

	expectTx(t, deps.sqlMock, true)

	net := decimal.NewFromFloat(1100.009)
	resp, err := deps.service.Generate(ctx, payroll.GeneratePayrollRequest{
		EmployeeCode: "EMP001",
		NetSalary:    &net,
	})

	assert.NoError(t, err)
	// The stored net is the recomputed one, not the caller's approximation.
	assert.True(t, resp.NetSalary.Equal(decimal.NewFromInt(1100)))
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestPayrollService_Generate_Duplicate(t *testing.T) {
	ctx := context.Background()

	deps := setupServiceTest(t)
	defer deps.db.Close()

	expectTx(t, deps.sqlMock, false)
	deps.repo.existsByCodeAndPeriodFn = func(ctx context.Context, code string, payPeriod time.Time) (bool, error) {
		return true, nil
	}

	directoryCalled := false
	deps.dir.getByCodeFn = func(ctx context.Context, code string) (*directory.EmployeeDTO, error) {
		directoryCalled = true
		return nil, nil
	}

	_, err := deps.service.Generate(ctx, payroll.GeneratePayrollRequest{EmployeeCode: "EMP001"})

	assert.ErrorIs(t, err, payrollerrors.ErrPayrollAlreadyExists)
	assert.False(t, directoryCalled, "duplicate check must short-circuit the directory call")
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestPayrollService_Generate_EmployeeNotFound(t *testing.T) {
	ctx := context.Background()

	deps := setupServiceTest(t)
	defer deps.db.Close()

	expectTx(t, deps.sqlMock, false)
	deps.dir.getByCodeFn = func(ctx context.Context, code string) (*directory.EmployeeDTO, error) {
		return nil, directoryerrors.ErrEmployeeNotFound
	}

	_, err := deps.service.Generate(ctx, payroll.GeneratePayrollRequest{EmployeeCode: "EMP404"})

	assert.ErrorIs(t, err, directoryerrors.ErrEmployeeNotFound)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestPayrollService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.deleteByIDFn = func(ctx context.Context, id string) (int64, error) {
			return 0, nil
		}

		err := deps.service.Delete(ctx, uuid.New().String())
		assert.ErrorIs(t, err, payrollerrors.ErrPayrollNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		err := deps.service.Delete(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, payrollerrors.ErrInvalidPayrollID)
	})

	t.Run("success", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		err := deps.service.Delete(ctx, uuid.New().String())
		assert.NoError(t, err)
	})
}

func TestPayrollService_DeleteByEmployeeCode(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent when nothing matches", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.deleteByEmployeeCodeFn = func(ctx context.Context, code string) (int64, error) {
			return 0, nil
		}

		deleted, err := deps.service.DeleteByEmployeeCode(ctx, "EMP001")
		assert.NoError(t, err)
		assert.Equal(t, int64(0), deleted)
	})

	t.Run("reports rows removed", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		deps.repo.deleteByEmployeeCodeFn = func(ctx context.Context, code string) (int64, error) {
			assert.Equal(t, "EMP001", code)
			return 3, nil
		}

		deleted, err := deps.service.DeleteByEmployeeCode(ctx, "EMP001")
		assert.NoError(t, err)
		assert.Equal(t, int64(3), deleted)
	})

	t.Run("invalid code", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.DeleteByEmployeeCode(ctx, "bad code")
		assert.ErrorIs(t, err, payrollerrors.ErrInvalidEmployeeCode)
	})
}
