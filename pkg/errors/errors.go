package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrTenantNotFound         = errors.New("tenant not found")
	ErrShopNotFound           = errors.New("shop not found")
	ErrInvalidSchedule        = errors.New("invalid schedule")
	ErrPolicyViolation        = errors.New("penalty policy violation")
	ErrDuplicatePeriodRecord  = errors.New("duplicate period record")
	ErrInvalidPeriod          = errors.New("invalid period")
	ErrMultipleActiveLoans    = errors.New("multiple active loans on shop")
	ErrReconciliationCanceled = errors.New("reconciliation canceled")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeTenantNotFound    = "TENANT_NOT_FOUND"
	ErrCodeShopNotFound      = "SHOP_NOT_FOUND"
	ErrCodeInvalidSchedule   = "INVALID_SCHEDULE"
	ErrCodeInvalidPeriod     = "INVALID_PERIOD"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
	ErrCodeCacheError        = "CACHE_ERROR"
	ErrCodeReportError       = "REPORT_ERROR"
	ErrCodeReconcileCanceled = "RECONCILIATION_CANCELED"
)

// CodeOf returns the business code carried by err, or "" when err is not a BusinessError.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// AsBusinessError returns the BusinessError in err's chain, or nil.
func AsBusinessError(err error) *BusinessError {
	var be *BusinessError
	if errors.As(err, &be) {
		return be
	}
	return nil
}

// Wrap common errors with business context
func WrapTenantNotFound(tenantID string) *BusinessError {
	return NewBusinessError(
		ErrCodeTenantNotFound,
		fmt.Sprintf("Tenant with ID %s not found", tenantID),
		ErrTenantNotFound,
	)
}

func WrapShopNotFound(tenantID, shopNo string) *BusinessError {
	return NewBusinessError(
		ErrCodeShopNotFound,
		fmt.Sprintf("Shop %s not allotted to tenant %s", shopNo, tenantID),
		ErrShopNotFound,
	)
}

func WrapInvalidSchedule(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidSchedule,
		"obligation schedule cannot be generated, fix the record",
		err,
	)
}

func WrapInvalidPeriod(value string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPeriod,
		fmt.Sprintf("Invalid period %q, expected YYYY-MM", value),
		err,
	)
}

func WrapInvalidRequest(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidRequest,
		"invalid request parameters",
		err,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

func WrapReportError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeReportError,
		"report generation failed",
		err,
	)
}

func WrapReconcileCanceled(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeReconcileCanceled,
		"portfolio reconciliation did not complete",
		err,
	)
}
