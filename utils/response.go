package utils

import "fmt"

// Pagination represents pagination details
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SuccessPaginatedResponse represents a paginated success response
type SuccessPaginatedResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Pagination Pagination  `json:"pagination"`
}

// ErrorResponse represents a generic error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NewSuccessResponse wraps data in the success envelope
func NewSuccessResponse(message string, data interface{}) SuccessResponse {
	return SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// NewErrorResponse builds the error envelope. The error field carries the
// message of an error value, or the raw text when cause is a string. It is
// always present, empty for a nil cause.
func NewErrorResponse(message string, cause interface{}) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: message,
		Error:   describeCause(cause),
	}
}

func describeCause(cause interface{}) string {
	switch v := cause.(type) {
	case nil:
		return ""
	case error:
		return v.Error()
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
