package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the base interface for all application errors
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// NotFoundError represents a resource that was not found
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

func (e *NotFoundError) Code() string {
	return "NOT_FOUND"
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents invalid input
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *ValidationError) Code() string {
	return "VALIDATION_ERROR"
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UnauthorizedError represents authentication failures
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unauthorized: %s", e.Reason)
	}
	return "unauthorized"
}

func (e *UnauthorizedError) HTTPStatus() int {
	return http.StatusUnauthorized
}

func (e *UnauthorizedError) Code() string {
	return "UNAUTHORIZED"
}

// NewUnauthorizedError creates a new UnauthorizedError
func NewUnauthorizedError(reason string) *UnauthorizedError {
	return &UnauthorizedError{Reason: reason}
}

// DuplicateFieldError signals that a remote custom field already exists.
// The provisioner treats this as a skip, never as a failure.
type DuplicateFieldError struct {
	FieldName string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("custom field '%s' already exists in the remote schema", e.FieldName)
}

func (e *DuplicateFieldError) HTTPStatus() int {
	return http.StatusConflict
}

func (e *DuplicateFieldError) Code() string {
	return "DUPLICATE_FIELD"
}

// NewDuplicateFieldError creates a new DuplicateFieldError
func NewDuplicateFieldError(fieldName string) *DuplicateFieldError {
	return &DuplicateFieldError{FieldName: fieldName}
}

// RemoteAPIError wraps a failure reported by the remote CRM
type RemoteAPIError struct {
	Operation string
	ErrorCode string // remote error code, e.g. "DUPLICATE_DEVELOPER_NAME"
	Message   string
	Cause     error
}

func (e *RemoteAPIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("remote CRM error during %s [%s]: %s", e.Operation, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("remote CRM error during %s: %s", e.Operation, e.Message)
}

func (e *RemoteAPIError) HTTPStatus() int {
	return http.StatusBadGateway
}

func (e *RemoteAPIError) Code() string {
	return "REMOTE_API_ERROR"
}

func (e *RemoteAPIError) Unwrap() error {
	return e.Cause
}

// NewRemoteAPIError creates a new RemoteAPIError
func NewRemoteAPIError(operation, errorCode, message string) *RemoteAPIError {
	return &RemoteAPIError{Operation: operation, ErrorCode: errorCode, Message: message}
}

// InternalError represents unexpected server errors
type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("internal error: %s (caused by: %v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("internal error: %s", e.Message)
}

func (e *InternalError) HTTPStatus() int {
	return http.StatusInternalServerError
}

func (e *InternalError) Code() string {
	return "INTERNAL_ERROR"
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{Message: message, Cause: cause}
}

// Helper functions for error checking

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}

// IsUnauthorized checks if an error is an UnauthorizedError
func IsUnauthorized(err error) bool {
	var unauthorized *UnauthorizedError
	return errors.As(err, &unauthorized)
}

// IsDuplicateField checks if an error is a DuplicateFieldError
func IsDuplicateField(err error) bool {
	var dup *DuplicateFieldError
	return errors.As(err, &dup)
}

// IsRemoteAPI checks if an error is a RemoteAPIError
func IsRemoteAPI(err error) bool {
	var remote *RemoteAPIError
	return errors.As(err, &remote)
}

// GetHTTPStatus returns the HTTP status code for an error
// Returns 500 if the error doesn't implement AppError
func GetHTTPStatus(err error) int {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// GetErrorCode returns the error code for an error
// Returns "UNKNOWN_ERROR" if the error doesn't implement AppError
func GetErrorCode(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return "UNKNOWN_ERROR"
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ToResponse converts an error to an ErrorResponse
func ToResponse(err error) ErrorResponse {
	return ErrorResponse{
		Code:    GetErrorCode(err),
		Message: err.Error(),
	}
}
