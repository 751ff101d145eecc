package payroll

import (
	"errors"
	"strings"

	payrollerrors "go-payroll/internal/payroll/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// mapRepositoryError translates driver-level failures into domain errors so
// callers never match on SQLSTATE strings. The unique-violation branch backs
// the exists-check against concurrent writers racing past it.
func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return payrollerrors.ErrPayrollNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if strings.Contains(pgErr.ConstraintName, "uq_salaries_employee_period") {
			return payrollerrors.ErrPayrollAlreadyExists
		}
	}

	if strings.Contains(err.Error(), "duplicate key value") {
		return payrollerrors.ErrPayrollAlreadyExists
	}

	return err
}
