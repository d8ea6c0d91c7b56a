package api

// ErrorResponse is the JSON error body returned by every non-2xx JSON route.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errorBody(message string) ErrorResponse {
	return ErrorResponse{Status: "error", Message: message}
}
