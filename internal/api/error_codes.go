// internal/api/error_codes.go
package api

// API error codes
const (
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorUnauthorized  = "UNAUTHORIZED"
	ErrorRateLimited   = "RATE_LIMIT_EXCEEDED"
	ErrorTimeout       = "TIMEOUT"

	// generation
	ErrorInputMissing       = "INPUT_MISSING"
	ErrorExternalCallFailed = "EXTERNAL_CALL_FAILED"
	ErrorImageInvalid       = "IMAGE_INVALID"

	// history and jobs
	ErrorHistoryNotFound = "HISTORY_NOT_FOUND"
	ErrorJobNotFound     = "JOB_NOT_FOUND"

	// access gate
	ErrorInvalidAccessKey = "INVALID_ACCESS_KEY"
	ErrorAuthFailed       = "AUTH_FAILED"

	// LLM
	ErrorLLMServiceUnavailable = "LLM_SERVICE_UNAVAILABLE"
	ErrorLLMConfigInvalid      = "LLM_CONFIG_INVALID"
	ErrorConnectionFailed      = "CONNECTION_FAILED"
)
