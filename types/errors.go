package types

import "fmt"

// error codes of the liquidity domain
type ErrorCode string

const (
	ErrInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	ErrAssetNotSupported   ErrorCode = "ASSET_NOT_SUPPORTED"
	ErrReservationFailed   ErrorCode = "RESERVATION_FAILED"
	ErrBalanceFetchFailed  ErrorCode = "BALANCE_FETCH_FAILED"
	ErrInvalidAmount       ErrorCode = "INVALID_AMOUNT"
	ErrNetworkError        ErrorCode = "NETWORK_ERROR"
	ErrReservationExpired  ErrorCode = "RESERVATION_EXPIRED"
	ErrConfigurationError  ErrorCode = "CONFIGURATION_ERROR"
)

// DomainError carries a machine-readable code plus a structured detail payload.
type DomainError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewDomainError(code ErrorCode, message string, details map[string]interface{}) *DomainError {
	return &DomainError{Code: code, Message: message, Details: details}
}

// CodeOf extracts the domain code from an error, or "" for foreign errors.
func CodeOf(err error) ErrorCode {
	if de, ok := err.(*DomainError); ok {
		return de.Code
	}
	return ""
}
