// Package models defines API response types for consistent JSON responses.
package models

// APIStatus describes the outcome category of an API call.
type APIStatus string

const (
	// StatusOK indicates the request succeeded.
	StatusOK APIStatus = "ok"
	// StatusError indicates the request failed.
	StatusError APIStatus = "error"
)

// APIResponse is the standard JSON envelope for all API endpoints.
type APIResponse struct {
	Status  APIStatus   `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success builds an ok response carrying a result payload.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: StatusOK, Result: result}
}

// SuccessWithMessage builds an ok response with a human-readable message.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: StatusOK, Message: message, Result: result}
}

// Error builds an error response with a human-readable message.
func Error(message string) APIResponse {
	return APIResponse{Status: StatusError, Message: message}
}
