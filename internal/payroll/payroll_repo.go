package payroll

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=payroll_repo.go -destination=mock/payroll_repo_mock.go -package=mock

// Repository mixes gorm for reads with raw SQL for writes. Writes and the
// existence probe go through the active *sql.Tx when one is bound, so a bulk
// run inside a single transaction observes its own uncommitted inserts.
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, salary *Salary) error
	ExistsByCodeAndPeriod(ctx context.Context, employeeCode string, payPeriod time.Time) (bool, error)
	FindByID(ctx context.Context, id string) (*Salary, error)
	FindAll(ctx context.Context, limit, offset int) ([]Salary, int64, error)
	FindByEmployeeID(ctx context.Context, employeeID string) ([]Salary, error)
	FindByEmployeeCode(ctx context.Context, employeeCode string) ([]Salary, error)
	FindByStatus(ctx context.Context, status string) ([]Salary, error)
	FindByEmployeeCodeAndStatus(ctx context.Context, employeeCode, status string) ([]Salary, error)
	UpdateStatus(ctx context.Context, id, status string) (int64, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
	DeleteByEmployeeCode(ctx context.Context, employeeCode string) (int64, error)
}

type repository struct {
	db    *gorm.DB
	sqlDB *sql.DB
	tx    *sql.Tx
}

func NewRepository(db *gorm.DB, sqlDB *sql.DB) Repository {
	return &repository{db: db, sqlDB: sqlDB}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, sqlDB: r.sqlDB, tx: tx}
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.sqlDB
}

func (r *repository) querier() interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.sqlDB
}

func (r *repository) Create(ctx context.Context, salary *Salary) error {
	query := `
        INSERT INTO salaries (
            id, employee_id, employee_code, basic_salary, allowances,
            deductions, net_salary, pay_period, status, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `

	// Bind the service's timestamps so the stored row, the response, and the
	// staged event all agree on the instant of creation.
	_, err := r.execer().ExecContext(
		ctx, query,
		salary.ID, salary.EmployeeID, salary.EmployeeCode,
		salary.BasicSalary, salary.Allowances, salary.Deductions,
		salary.NetSalary, salary.PayPeriod, salary.Status,
		salary.CreatedAt, salary.UpdatedAt,
	)
	return err
}

func (r *repository) ExistsByCodeAndPeriod(ctx context.Context, employeeCode string, payPeriod time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM salaries WHERE employee_code = $1 AND pay_period = $2)`

	var exists bool
	err := r.querier().QueryRowContext(ctx, query, employeeCode, payPeriod).Scan(&exists)
	return exists, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*Salary, error) {
	var salary Salary
	if err := r.db.WithContext(ctx).First(&salary, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &salary, nil
}

func (r *repository) FindAll(ctx context.Context, limit, offset int) ([]Salary, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Salary{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var salaries []Salary
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&salaries).Error
	return salaries, total, err
}

func (r *repository) FindByEmployeeID(ctx context.Context, employeeID string) ([]Salary, error) {
	var salaries []Salary
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("pay_period DESC").
		Find(&salaries).Error
	return salaries, err
}

func (r *repository) FindByEmployeeCode(ctx context.Context, employeeCode string) ([]Salary, error) {
	var salaries []Salary
	err := r.db.WithContext(ctx).
		Where("employee_code = ?", employeeCode).
		Order("pay_period DESC").
		Find(&salaries).Error
	return salaries, err
}

func (r *repository) FindByStatus(ctx context.Context, status string) ([]Salary, error) {
	var salaries []Salary
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("pay_period DESC").
		Find(&salaries).Error
	return salaries, err
}

func (r *repository) FindByEmployeeCodeAndStatus(ctx context.Context, employeeCode, status string) ([]Salary, error) {
	var salaries []Salary
	err := r.db.WithContext(ctx).
		Where("employee_code = ? AND status = ?", employeeCode, status).
		Order("pay_period DESC").
		Find(&salaries).Error
	return salaries, err
}

func (r *repository) UpdateStatus(ctx context.Context, id, status string) (int64, error) {
	query := `UPDATE salaries SET status = $2, updated_at = NOW() WHERE id = $1`

	res, err := r.execer().ExecContext(ctx, query, id, status)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) DeleteByID(ctx context.Context, id string) (int64, error) {
	query := `DELETE FROM salaries WHERE id = $1`

	res, err := r.execer().ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) DeleteByEmployeeCode(ctx context.Context, employeeCode string) (int64, error) {
	query := `DELETE FROM salaries WHERE employee_code = $1`

	res, err := r.execer().ExecContext(ctx, query, employeeCode)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
