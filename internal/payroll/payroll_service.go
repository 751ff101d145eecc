package payroll

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"go-payroll/internal/directory"
	"go-payroll/internal/events"
	"go-payroll/internal/messaging/kafka"
	payrollerrors "go-payroll/internal/payroll/errors"
	"go-payroll/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	employeeCodePattern = regexp.MustCompile(`^[A-Z0-9]{3,20}$`)

	defaultAllowanceRate = decimal.NewFromFloat(0.20)
	defaultDeductionRate = decimal.NewFromFloat(0.10)
	netSalaryTolerance   = decimal.NewFromFloat(0.01)
	maxBasicSalary       = decimal.NewFromInt(1_000_000)
)

//go:generate mockgen -source=payroll_service.go -destination=mock/payroll_service_mock.go -package=mock

type Service interface {
	Generate(ctx context.Context, req GeneratePayrollRequest) (PayrollResponse, error)
	RunBulk(ctx context.Context, mode string) (BulkResult, error)
	GetAll(ctx context.Context, limit, offset int) ([]PayrollResponse, int64, error)
	GetByID(ctx context.Context, id string) (PayrollResponse, error)
	GetByEmployeeID(ctx context.Context, employeeID string) ([]PayrollResponse, error)
	GetByEmployeeCode(ctx context.Context, employeeCode string) ([]PayrollResponse, error)
	GetByStatus(ctx context.Context, status string) ([]PayrollResponse, error)
	GetByEmployeeCodeAndStatus(ctx context.Context, employeeCode, status string) ([]PayrollResponse, error)
	UpdateStatus(ctx context.Context, id, newStatus string) (PayrollResponse, error)
	Delete(ctx context.Context, id string) error
	DeleteByEmployeeCode(ctx context.Context, employeeCode string) (int64, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	dir    directory.Client
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, dir directory.Client, outbox kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("payroll.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("payroll.service")
	}

	return &service{
		db:     db,
		repo:   repo,
		dir:    dir,
		outbox: outbox,
		logger: l,
	}
}

func (s *service) Generate(ctx context.Context, req GeneratePayrollRequest) (PayrollResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PayrollResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	var outboxTx kafka.OutboxRepository
	if s.outbox != nil {
		outboxTx = s.outbox.WithTx(tx)
	}

	salary, err := s.generateOne(ctx, qtx, outboxTx, req, time.Now().UTC())
	if err != nil {
		s.logger.Warn("payroll generation rejected",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.String("employee_code", req.EmployeeCode),
			zap.Error(err),
		)
		return PayrollResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return PayrollResponse{}, err
	}

	s.logger.Info("payroll generated",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("payroll_id", salary.ID.String()),
		zap.String("employee_code", salary.EmployeeCode),
		zap.String("pay_period", salary.PayPeriod.Format("2006-01-02")),
		zap.String("net_salary", salary.NetSalary.String()),
	)

	return mapToResponse(*salary), nil
}

// generateOne runs the full generation policy against the supplied repository
// handles. Callers own the transaction; nothing is committed here.
func (s *service) generateOne(
	ctx context.Context,
	qtx Repository,
	outboxTx kafka.OutboxRepository,
	req GeneratePayrollRequest,
	now time.Time,
) (*Salary, error) {
	employeeCode := strings.TrimSpace(req.EmployeeCode)
	if employeeCode == "" {
		return nil, payrollerrors.ErrEmployeeCodeRequired
	}
	if !employeeCodePattern.MatchString(employeeCode) {
		return nil, payrollerrors.ErrInvalidEmployeeCode
	}

	payPeriod, err := resolvePayPeriod(req.PayPeriod, now)
	if err != nil {
		return nil, err
	}

	exists, err := qtx.ExistsByCodeAndPeriod(ctx, employeeCode, payPeriod)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if exists {
		return nil, payrollerrors.ErrPayrollAlreadyExists
	}

	employee, err := s.dir.GetByCode(ctx, employeeCode)
	if err != nil {
		return nil, err
	}

	employeeID := req.EmployeeID
	if employeeID == "" {
		employeeID = employee.ID
	}
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return nil, payrollerrors.ErrInvalidEmployeeID
	}

	// Caller values win over both the directory snapshot and the derived
	// defaults.
	basic := employee.BasicSalary
	if req.BasicSalary != nil {
		basic = *req.BasicSalary
	}

	allowances := basic.Mul(defaultAllowanceRate)
	if req.Allowances != nil {
		allowances = *req.Allowances
	}

	deductions := basic.Mul(defaultDeductionRate)
	if req.Deductions != nil {
		deductions = *req.Deductions
	}

	net := basic.Add(allowances).Sub(deductions)
	if req.NetSalary != nil && req.NetSalary.Sub(net).Abs().GreaterThan(netSalaryTolerance) {
		return nil, payrollerrors.ErrNetSalaryMismatch
	}

	salary := &Salary{
		ID:           uuid.New(),
		EmployeeID:   employeeUUID,
		EmployeeCode: employeeCode,
		BasicSalary:  basic,
		Allowances:   allowances,
		Deductions:   deductions,
		NetSalary:    net,
		PayPeriod:    payPeriod,
		Status:       StatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := validateSalary(salary, now); err != nil {
		return nil, err
	}

	if err := qtx.Create(ctx, salary); err != nil {
		return nil, mapRepositoryError(err)
	}

	if outboxTx != nil {
		if err := s.stageGeneratedEvent(ctx, outboxTx, salary, now); err != nil {
			return nil, err
		}
	}

	return salary, nil
}

func (s *service) stageGeneratedEvent(ctx context.Context, outboxTx kafka.OutboxRepository, salary *Salary, now time.Time) error {
	event := events.PayrollGeneratedEvent{
		EventType:    "payroll_generated",
		RequestID:    contextutil.GetRequestID(ctx),
		PayrollID:    salary.ID.String(),
		EmployeeCode: salary.EmployeeCode,
		PayPeriod:    salary.PayPeriod.Format("2006-01-02"),
		NetSalary:    salary.NetSalary.String(),
		OccurredAt:   now,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return outboxTx.Stage(ctx, kafka.NewPayrollEvent(
		event.RequestID, event.PayrollID, event.EventType,
		events.PayrollGeneratedTopic, payload,
	))
}

// resolvePayPeriod parses an optional YYYY-MM-DD value and snaps it to the
// first of its month. An empty value means the current month.
func resolvePayPeriod(raw string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return firstOfMonth(now), nil
	}

	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, payrollerrors.ErrInvalidDateFormat
	}

	return firstOfMonth(parsed), nil
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func validateSalary(salary *Salary, now time.Time) error {
	if !salary.BasicSalary.IsPositive() {
		return payrollerrors.ErrBasicSalaryNotPositive
	}
	if salary.BasicSalary.GreaterThan(maxBasicSalary) {
		return payrollerrors.ErrBasicSalaryTooLarge
	}
	if salary.Allowances.IsNegative() || salary.Deductions.IsNegative() {
		return payrollerrors.ErrNegativeMoneyValue
	}
	if salary.Allowances.GreaterThan(salary.BasicSalary) {
		return payrollerrors.ErrAllowancesExceedBasic
	}
	if salary.Deductions.GreaterThan(salary.BasicSalary.Add(salary.Allowances)) {
		return payrollerrors.ErrDeductionsExceedEarnings
	}

	expectedNet := salary.BasicSalary.Add(salary.Allowances).Sub(salary.Deductions)
	if salary.NetSalary.Sub(expectedNet).Abs().GreaterThan(netSalaryTolerance) {
		return payrollerrors.ErrNetSalaryMismatch
	}

	if salary.PayPeriod.After(firstOfMonth(now)) {
		return payrollerrors.ErrPayPeriodInFuture
	}
	// Normalized periods compare month to month, so a period two years back
	// minus a few days still lands inside the cutoff month and passes.
	if salary.PayPeriod.Before(firstOfMonth(now.AddDate(-2, 0, 0))) {
		return payrollerrors.ErrPayPeriodTooOld
	}

	return nil
}

func (s *service) GetAll(ctx context.Context, limit, offset int) ([]PayrollResponse, int64, error) {
	salaries, total, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, 0, mapRepositoryError(err)
	}
	return mapToListResponse(salaries), total, nil
}

func (s *service) GetByID(ctx context.Context, id string) (PayrollResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return PayrollResponse{}, payrollerrors.ErrInvalidPayrollID
	}

	salary, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return PayrollResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*salary), nil
}

func (s *service) GetByEmployeeID(ctx context.Context, employeeID string) ([]PayrollResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, payrollerrors.ErrInvalidEmployeeID
	}

	salaries, err := s.repo.FindByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(salaries), nil
}

func (s *service) GetByEmployeeCode(ctx context.Context, employeeCode string) ([]PayrollResponse, error) {
	code := strings.TrimSpace(employeeCode)
	if !employeeCodePattern.MatchString(code) {
		return nil, payrollerrors.ErrInvalidEmployeeCode
	}

	salaries, err := s.repo.FindByEmployeeCode(ctx, code)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(salaries), nil
}

func (s *service) GetByStatus(ctx context.Context, status string) ([]PayrollResponse, error) {
	parsed, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	salaries, err := s.repo.FindByStatus(ctx, parsed)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(salaries), nil
}

func (s *service) GetByEmployeeCodeAndStatus(ctx context.Context, employeeCode, status string) ([]PayrollResponse, error) {
	if !employeeCodePattern.MatchString(strings.TrimSpace(employeeCode)) {
		return nil, payrollerrors.ErrInvalidEmployeeCode
	}
	parsed, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	salaries, err := s.repo.FindByEmployeeCodeAndStatus(ctx, strings.TrimSpace(employeeCode), parsed)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(salaries), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return payrollerrors.ErrInvalidPayrollID
	}

	affected, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return mapRepositoryError(err)
	}
	if affected == 0 {
		return payrollerrors.ErrPayrollNotFound
	}

	s.logger.Info("payroll deleted",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("payroll_id", id),
	)
	return nil
}

// DeleteByEmployeeCode removes every payroll for the employee in one shot.
// It reports how many rows went away and is deliberately idempotent: zero
// matches is a success, not a 404, so the registry can retry cascade calls.
func (s *service) DeleteByEmployeeCode(ctx context.Context, employeeCode string) (int64, error) {
	code := strings.TrimSpace(employeeCode)
	if !employeeCodePattern.MatchString(code) {
		return 0, payrollerrors.ErrInvalidEmployeeCode
	}

	affected, err := s.repo.DeleteByEmployeeCode(ctx, code)
	if err != nil {
		return 0, mapRepositoryError(err)
	}

	s.logger.Info("payrolls deleted for employee",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("employee_code", code),
		zap.Int64("deleted", affected),
	)
	return affected, nil
}
