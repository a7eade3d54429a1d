package api

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Message   string `json:"message" example:"Missing required field: title"`
	Error     string `json:"error,omitempty" example:"missing required field"`
	Field     string `json:"field,omitempty" example:"title"`
	Status    string `json:"status" example:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

// MessageResponse is returned by endpoints that only acknowledge an action.
type MessageResponse struct {
	Message string `json:"message" example:"Project deleted"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type UploadResponse struct {
	URL string `json:"url"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Uptime string `json:"uptime" example:"1h2m3s"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
