package events

import "time"

const PayrollGeneratedTopic = "hr.payroll.generated.v1"

type PayrollGeneratedEvent struct {
	EventType    string    `json:"event_type"`
	RequestID    string    `json:"request_id,omitempty"`
	PayrollID    string    `json:"payroll_id"`
	EmployeeCode string    `json:"employee_code"`
	PayPeriod    string    `json:"pay_period"`
	NetSalary    string    `json:"net_salary"`
	OccurredAt   time.Time `json:"occurred_at"`
}
