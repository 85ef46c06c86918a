// internal/api/response_helpers.go
package api

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Corphon/VeoPromptStudio/internal/errors"
)

// APIResponse standard envelope
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError standard error body
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type ResponseHelper struct{}

func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{}
}

func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}
	if len(message) > 0 {
		response.Message = message[0]
	}
	c.JSON(http.StatusOK, response)
}

// Accepted for work that continues in the background
func (rh *ResponseHelper) Accepted(c *gin.Context, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}
	if len(message) > 0 {
		response.Message = message[0]
	}
	c.JSON(http.StatusAccepted, response)
}

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`AIza[0-9A-Za-z_\-]{20,}`),                          // Google API keys
	regexp.MustCompile(`(?i)(api[_-]?key|secret|token)=[^\s&"']+`),         // query parameters
	regexp.MustCompile(`(?i)(bearer|x-goog-api-key:?)\s+[0-9A-Za-z._\-]+`), // headers echoed back
}

// sanitizeErrorMessage masks credentials that providers sometimes echo in errors
func sanitizeErrorMessage(message string) string {
	sanitized := message
	for _, pattern := range secretPatterns {
		sanitized = pattern.ReplaceAllString(sanitized, "[redacted]")
	}
	return sanitized
}

func (rh *ResponseHelper) Error(c *gin.Context, statusCode int, errorCode, message string, details ...string) {
	apiError := &APIError{
		Code:    errorCode,
		Message: sanitizeErrorMessage(message),
	}
	if len(details) > 0 && details[0] != "" {
		apiError.Details = sanitizeErrorMessage(details[0])
	}

	c.JSON(statusCode, &APIResponse{
		Success:   false,
		Error:     apiError,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	})
}

func (rh *ResponseHelper) BadRequest(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusBadRequest, ErrorBadRequest, message, details...)
}

func (rh *ResponseHelper) NotFound(c *gin.Context, code, message string) {
	rh.Error(c, http.StatusNotFound, code, message)
}

// notFoundOr renders a missing resource as 404 with code, anything else by its type
func (rh *ResponseHelper) notFoundOr(c *gin.Context, err error, code string) {
	if apperrors.IsNotFoundError(err) {
		rh.NotFound(c, code, err.Error())
		return
	}
	rh.AppError(c, err)
}

func (rh *ResponseHelper) InternalError(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusInternalServerError, ErrorInternalError, message, details...)
}

func (rh *ResponseHelper) Unauthorized(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusUnauthorized, ErrorUnauthorized, message, details...)
}

// statusFor maps the application error taxonomy onto HTTP
func statusFor(errType apperrors.ErrorType) (int, string) {
	switch errType {
	case apperrors.ErrorTypeInputMissing:
		return http.StatusBadRequest, ErrorInputMissing
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest, ErrorBadRequest
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound, ErrorNotFound
	case apperrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized, ErrorUnauthorized
	case apperrors.ErrorTypeExternalCall:
		return http.StatusBadGateway, ErrorExternalCallFailed
	case apperrors.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable, ErrorLLMServiceUnavailable
	case apperrors.ErrorTypeTimeout:
		return http.StatusGatewayTimeout, ErrorTimeout
	default:
		return http.StatusInternalServerError, ErrorInternalError
	}
}

// AppError renders err with the status of its AppError type. The user-facing
// message is the full error text so provider messages reach the client verbatim.
func (rh *ResponseHelper) AppError(c *gin.Context, err error, code ...string) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		rh.InternalError(c, "internal server error", err.Error())
		return
	}

	status, errorCode := statusFor(appErr.Type)
	if len(code) > 0 && code[0] != "" {
		errorCode = code[0]
	}
	rh.Error(c, status, errorCode, appErr.Error())
}

// DownloadResponse forces a browser download of a text body
func (rh *ResponseHelper) DownloadResponse(c *gin.Context, content, filename, contentType string) {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", len(content)))
	c.String(http.StatusOK, content)
}

func (rh *ResponseHelper) getRequestID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(requestIDKey))
}
