// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an AppError; the api layer maps it to a status code
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation_error"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeError        ErrorType = "processing_error"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeTimeout      ErrorType = "timeout"

	// generation pipeline
	ErrorTypeInputMissing ErrorType = "input_missing"
	ErrorTypeExternalCall ErrorType = "external_call_failed"
	ErrorTypeUnavailable  ErrorType = "service_unavailable"
)

// User-facing messages (Vietnamese, shown as-is by the UI)
const (
	MsgVeoInputMissing    = "Vui lòng nhập ý tưởng của bạn."
	MsgScriptInputMissing = "Vui lòng nhập ý tưởng hoặc tải lên một hình ảnh."

	MsgVeoFailed    = "Đã xảy ra lỗi khi tạo prompt"
	MsgScriptFailed = "Đã xảy ra lỗi khi tạo kịch bản"

	MsgVeoUnknown    = "Đã xảy ra lỗi không xác định. Vui lòng thử lại."
	MsgScriptUnknown = "Đã xảy ra lỗi không xác định khi tạo kịch bản. Vui lòng thử lại."

	MsgUnsupportedImage = "Vui lòng chọn ảnh định dạng PNG, JPEG, hoặc WEBP."

	MsgAuthFailed      = "Đã xảy ra lỗi trong quá trình xác thực. Vui lòng thử lại."
	MsgInvalidKey      = "Key truy cập không hợp lệ."
	MsgKeyListFailed   = "Không thể tải danh sách key truy cập."
	MsgLLMNotAvailable = "Dịch vụ AI chưa được cấu hình. Vui lòng kiểm tra API key."
)

// AppError application error with a type and a stable code
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string
}

// Error renders "message: cause", or the message alone without a cause
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError with the code of errType
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

func NewProcessingError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeError, message, originalError)
}

func NewUnauthorizedError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeUnauthorized, message, originalError)
}

// NewInputMissingError rejects a submission before any model call
func NewInputMissingError(message string) *AppError {
	return NewAppError(ErrorTypeInputMissing, message, nil)
}

// NewUnavailableError the LLM backend is not configured or not ready
func NewUnavailableError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeUnavailable, message, originalError)
}

// NewExternalCallError wraps a failed model call. The rendered error is
// "<prefix>: <cause message>"; a nil or empty cause yields unknownMessage alone.
func NewExternalCallError(prefix, unknownMessage string, cause error) *AppError {
	if cause == nil || cause.Error() == "" {
		return NewAppError(ErrorTypeExternalCall, unknownMessage, nil)
	}
	return NewAppError(ErrorTypeExternalCall, prefix, cause)
}

// HasType reports whether err wraps an AppError of type t
func HasType(err error, t ErrorType) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == t
	}
	return false
}

func IsValidationError(err error) bool {
	return HasType(err, ErrorTypeValidation)
}

func IsNotFoundError(err error) bool {
	return HasType(err, ErrorTypeNotFound)
}

func IsInputMissingError(err error) bool {
	return HasType(err, ErrorTypeInputMissing)
}

func IsExternalCallError(err error) bool {
	return HasType(err, ErrorTypeExternalCall)
}

func IsUnavailableError(err error) bool {
	return HasType(err, ErrorTypeUnavailable)
}

func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeError:
		return "PROCESSING_ERROR"
	case ErrorTypeUnauthorized:
		return "UNAUTHORIZED"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	case ErrorTypeInputMissing:
		return "INPUT_MISSING"
	case ErrorTypeExternalCall:
		return "EXTERNAL_CALL_FAILED"
	case ErrorTypeUnavailable:
		return "LLM_SERVICE_UNAVAILABLE"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapError adds context to err. An existing AppError keeps its type and code.
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		return &AppError{
			Type:    appError.Type,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError,
			Code:    appError.Code,
		}
	}

	return NewAppError(errType, message, err)
}
