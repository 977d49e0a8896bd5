package models

// Status values carried by every response record.
const (
	StatusSuccess         = "success"
	StatusError           = "error"
	StatusInfo            = "info"
	StatusWarning         = "warning"
	StatusMultipleResults = "multiple_results"
	StatusMultipleMatches = "multiple_matches"
	StatusClientSelection = "client_selection"
)

// ErrorResponse is returned, with IsError set, by any tool that fails.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewError builds an ErrorResponse.
func NewError(message string) ErrorResponse {
	return ErrorResponse{Status: StatusError, Message: message}
}

// ListResponse is the generic record for tools that return a list.
type ListResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Count   int    `json:"count"`
	Items   any    `json:"items"`
}

// OperationResponse is the generic record for tools that change something.
type OperationResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// InfoResponse is the generic record for tools that describe one thing.
type InfoResponse struct {
	Status string         `json:"status"`
	Info   map[string]any `json:"info"`
}
