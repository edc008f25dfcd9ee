package domain

import "fmt"

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrDailyCapExceeded() *AppError {
	return &AppError{
		Code:    "DAILY_CAP_EXCEEDED",
		Message: fmt.Sprintf("daily challenge limit of %d reached", DailyCap),
		Status:  422,
	}
}

func ErrAlreadyCompletedToday() *AppError {
	return &AppError{Code: "ALREADY_COMPLETED_TODAY", Message: "challenge already completed today", Status: 409}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: msg, Status: 400}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Status: 409}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Status: 401}
}

// ErrStorage wraps an underlying persistence failure. The surrounding unit of
// work rolls back whenever one of these surfaces.
func ErrStorage(op string, cause error) *AppError {
	return &AppError{Code: "STORAGE_ERROR", Message: op, Status: 500, Cause: cause}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}
