package handler

import "time"

// ErrorResponse is the common error payload for all endpoints
type ErrorResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details,omitempty"`
}

// stringPtr creates a pointer to a string
func stringPtr(s string) *string {
	return &s
}

// parseDate parses a YYYY-MM-DD query or body value
func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
