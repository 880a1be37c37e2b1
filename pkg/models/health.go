package models

// HealthResponse is the body returned by GET /health.
type HealthResponse struct {
	Message string `json:"message"`
}
