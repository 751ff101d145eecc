package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// GeneratePayrollRequest is a partial record: employee_code is mandatory,
// everything else is filled by generation policy when absent. Pointer fields
// distinguish "not supplied" from an explicit zero.
type GeneratePayrollRequest struct {
	EmployeeCode string           `json:"employee_code" binding:"required"`
	EmployeeID   string           `json:"employee_id,omitempty"`
	PayPeriod    string           `json:"pay_period,omitempty"`
	BasicSalary  *decimal.Decimal `json:"basic_salary,omitempty"`
	Allowances   *decimal.Decimal `json:"allowances,omitempty"`
	Deductions   *decimal.Decimal `json:"deductions,omitempty"`
	NetSalary    *decimal.Decimal `json:"net_salary,omitempty"`
}

type RunBulkRequest struct {
	Mode string `json:"mode" binding:"omitempty,oneof=BEST_EFFORT ALL_OR_NOTHING"`
}

type PayrollResponse struct {
	ID           string          `json:"id"`
	EmployeeID   string          `json:"employee_id"`
	EmployeeCode string          `json:"employee_code"`
	BasicSalary  decimal.Decimal `json:"basic_salary"`
	Allowances   decimal.Decimal `json:"allowances"`
	Deductions   decimal.Decimal `json:"deductions"`
	NetSalary    decimal.Decimal `json:"net_salary"`
	PayPeriod    string          `json:"pay_period"`
	Status       string          `json:"status"`
	CreatedAt    string          `json:"created_at"`
}

func mapToResponse(salary Salary) PayrollResponse {
	return PayrollResponse{
		ID:           salary.ID.String(),
		EmployeeID:   salary.EmployeeID.String(),
		EmployeeCode: salary.EmployeeCode,
		BasicSalary:  salary.BasicSalary,
		Allowances:   salary.Allowances,
		Deductions:   salary.Deductions,
		NetSalary:    salary.NetSalary,
		PayPeriod:    salary.PayPeriod.Format("2006-01-02"),
		Status:       salary.Status,
		CreatedAt:    salary.CreatedAt.Format(time.RFC3339),
	}
}

func mapToListResponse(salaries []Salary) []PayrollResponse {
	res := make([]PayrollResponse, len(salaries))
	for i, salary := range salaries {
		res[i] = mapToResponse(salary)
	}
	return res
}
