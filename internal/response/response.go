package response

import (
	"github.com/gin-gonic/gin"
)

// Error codes shared between the service layer and HTTP handlers
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeAlreadyExists   = "ALREADY_EXISTS"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeMappingConflict = "MAPPING_CONFLICT"
	ErrCodeImportBlocked   = "IMPORT_BLOCKED"
	ErrCodeExternalAPI     = "EXTERNAL_API_ERROR"
	ErrCodeSessionExpired  = "SESSION_EXPIRED"
)

// AppError is the error type carried across service boundaries
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Code + ": " + e.Message + " (" + e.Details + ")"
	}
	return e.Code + ": " + e.Message
}

// NewAppError creates a new AppError with an arbitrary code
func NewAppError(code, message, details string) *AppError {
	return &AppError{Code: code, Message: message, Details: details}
}

// NewValidationError creates a validation AppError
func NewValidationError(message, details string) *AppError {
	return NewAppError(ErrCodeValidation, message, details)
}

// NewNotFoundError creates a not-found AppError
func NewNotFoundError(message, details string) *AppError {
	return NewAppError(ErrCodeNotFound, message, details)
}

// NewConflictError creates a mapping-conflict AppError
func NewConflictError(message, details string) *AppError {
	return NewAppError(ErrCodeMappingConflict, message, details)
}

// NewExternalAPIError creates an external-API AppError
func NewExternalAPIError(message, details string) *AppError {
	return NewAppError(ErrCodeExternalAPI, message, details)
}

// SuccessResponse is the envelope for successful responses
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the envelope for error responses
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   ErrorPayload `json:"error"`
}

// ErrorPayload carries the error body of an ErrorResponse
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SendSuccess writes a success envelope with the given status code
func SendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, SuccessResponse{Success: true, Data: data})
}

// SendError writes an error envelope with the given status code
func SendError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, ErrorResponse{
		Success: false,
		Error:   ErrorPayload{Code: code, Message: message},
	})
}
