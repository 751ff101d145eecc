package directoryerrors

import (
	"net/http"

	"go-payroll/internal/shared/apperror"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found in the directory",
		http.StatusNotFound,
	)
	ErrDirectoryUnavailable = apperror.New(
		apperror.CodeServiceUnavailable,
		"Employee directory is unavailable",
		http.StatusServiceUnavailable,
	)
)
