package events

import "time"

// Published by the employee registry; consumed here to keep the directory
// cache honest.
const EmployeeLifecycleTopic = "hr.employee.lifecycle.v1"

const (
	EmployeeUpdatedEventType = "employee_updated"
	EmployeeDeletedEventType = "employee_deleted"
)

type EmployeeLifecycleEvent struct {
	EventType    string    `json:"event_type"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeCode string    `json:"employee_code"`
	OccurredAt   time.Time `json:"occurred_at"`
}
