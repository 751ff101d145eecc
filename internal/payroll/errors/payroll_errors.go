package payrollerrors

import (
	"net/http"

	"go-payroll/internal/shared/apperror"
)

var (
	ErrEmployeeCodeRequired = apperror.New(
		apperror.CodeInvalidInput,
		"employee code is required",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeCode = apperror.New(
		apperror.CodeInvalidInput,
		"employee code must be 3-20 uppercase letters and numbers",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidPayrollID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid payroll id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid pay_period format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrPayrollAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"payroll already exists for this employee and pay period",
		http.StatusConflict,
	)
	ErrPayrollNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll not found",
		http.StatusNotFound,
	)
	ErrInvalidStatus = apperror.New(
		apperror.CodeInvalidInput,
		"invalid payroll status",
		http.StatusBadRequest,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"invalid payroll status transition",
		http.StatusBadRequest,
	)
	ErrInvalidBulkMode = apperror.New(
		apperror.CodeInvalidInput,
		"bulk mode must be BEST_EFFORT or ALL_OR_NOTHING",
		http.StatusBadRequest,
	)
	ErrPayPeriodInFuture = apperror.New(
		apperror.CodeInvalidInput,
		"pay period cannot be in the future",
		http.StatusBadRequest,
	)
	ErrPayPeriodTooOld = apperror.New(
		apperror.CodeInvalidInput,
		"pay period cannot be older than 2 years",
		http.StatusBadRequest,
	)
	ErrBasicSalaryNotPositive = apperror.New(
		apperror.CodeInvalidInput,
		"basic salary must be positive",
		http.StatusBadRequest,
	)
	ErrBasicSalaryTooLarge = apperror.New(
		apperror.CodeInvalidInput,
		"basic salary cannot exceed 1,000,000",
		http.StatusBadRequest,
	)
	ErrNegativeMoneyValue = apperror.New(
		apperror.CodeInvalidInput,
		"allowances and deductions cannot be negative",
		http.StatusBadRequest,
	)
	ErrAllowancesExceedBasic = apperror.New(
		apperror.CodeInvalidInput,
		"allowances cannot exceed basic salary",
		http.StatusBadRequest,
	)
	ErrDeductionsExceedEarnings = apperror.New(
		apperror.CodeInvalidInput,
		"deductions cannot exceed total earnings (basic + allowances)",
		http.StatusBadRequest,
	)
	ErrNetSalaryMismatch = apperror.New(
		apperror.CodeInvalidInput,
		"net salary does not match basic + allowances - deductions",
		http.StatusBadRequest,
	)
)
