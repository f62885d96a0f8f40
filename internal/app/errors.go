package app

import "fmt"

// DomainError is the service layer's failure type. Status is the HTTP
// status the error maps to; Code is the machine-readable taxonomy
// entry (NOT_FOUND, FORBIDDEN, VALIDATION_ERROR, UNAUTHORIZED,
// SERVER_ERROR and the *_UNAVAILABLE family for optional subsystems).
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}
