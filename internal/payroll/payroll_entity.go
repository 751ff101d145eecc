package payroll

import (
	"time"

	payrollerrors "go-payroll/internal/payroll/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusDraft     = "DRAFT"
	StatusApproved  = "APPROVED"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
)

// ParseStatus validates a caller-supplied status string.
func ParseStatus(s string) (string, error) {
	switch s {
	case StatusDraft, StatusApproved, StatusPaid, StatusCancelled:
		return s, nil
	default:
		return "", payrollerrors.ErrInvalidStatus
	}
}

// statusTransitionAllowed is the single place holding the transition policy.
// Every transition is currently allowed; a stricter state machine (e.g.
// forbidding PAID -> DRAFT) can be dropped in here without touching callers.
func statusTransitionAllowed(from, to string) bool {
	_, _ = from, to
	return true
}

type Salary struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EmployeeID   uuid.UUID       `gorm:"type:uuid;index"`
	EmployeeCode string          `gorm:"size:20;uniqueIndex:uq_salaries_employee_period"`
	BasicSalary  decimal.Decimal `gorm:"type:numeric(12,2)"`
	Allowances   decimal.Decimal `gorm:"type:numeric(12,2)"`
	Deductions   decimal.Decimal `gorm:"type:numeric(12,2)"`
	NetSalary    decimal.Decimal `gorm:"type:numeric(12,2)"`
	PayPeriod    time.Time       `gorm:"type:date;uniqueIndex:uq_salaries_employee_period"`
	Status       string          `gorm:"size:20"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Salary) TableName() string {
	return "salaries"
}
