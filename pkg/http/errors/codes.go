package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"

	// Resource errors
	ErrCodeNotFound = "not_found"

	// Account errors
	ErrCodeRegistrationFailed = "registration_failed"
	ErrCodeLoginFailed        = "login_failed"
	ErrCodeUsernameTaken      = "username_taken"

	// Test session errors
	ErrCodeNoQuestionsAvailable = "no_questions_available"
	ErrCodeSessionNotFound      = "session_not_found"
	ErrCodeSessionBusy          = "session_busy"
	ErrCodeStartFailed          = "start_failed"
	ErrCodeSubmitFailed         = "submit_failed"
	ErrCodeImageNotFound        = "image_not_found"

	// Chat errors
	ErrCodeChatFailed = "chat_failed"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"

	// Feature availability
	ErrCodeFeatureNotAvailable = "feature_not_available"
)
