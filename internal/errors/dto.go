package errors

// ErrorResponse is the JSON body returned for any failed API request
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail carries the caller-safe message (the first hint on the error
// chain) and any reportable details attached by the builder
type ErrorDetail struct {
	Display string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
