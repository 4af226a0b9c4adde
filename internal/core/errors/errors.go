package errors

const (
	HttpInternalError      = "internal_error"
	HttpInvalidQueryError  = "invalid_query"
	HttpNotFoundError      = "not_found"
	HttpScanInProgress     = "scan_in_progress"
	HttpScanTooRecent      = "scan_too_recent"
	HttpServiceUnavailable = "service_unavailable"
)

// ErrorResponse is the error body shared by every JSON endpoint.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// New builds an ErrorResponse without details.
func New(errorType, message string) ErrorResponse {
	return ErrorResponse{ErrorType: errorType, Message: message}
}
