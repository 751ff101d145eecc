package directory

import "github.com/shopspring/decimal"

// EmployeeDTO is the read-only projection served by the employee registry.
// It is an authoritative snapshot at the time of the call; nothing here is
// persisted locally.
type EmployeeDTO struct {
	ID           string          `json:"id"`
	EmployeeCode string          `json:"employee_code"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	Email        string          `json:"email"`
	Department   string          `json:"department"`
	Position     string          `json:"position"`
	JoinDate     string          `json:"join_date"`
	BasicSalary  decimal.Decimal `json:"basic_salary"`
}
