package server

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"Request not found"`
}

// MessageResponse acknowledges a mutation with a human-readable note.
type MessageResponse struct {
	Message string `json:"message" example:"Request updated successfully"`
}

// StubSavedResponse acknowledges a create when persistence is disabled.
type StubSavedResponse struct {
	Message string `json:"message" example:"Request saved (database not available)"`
	ID      string `json:"id" example:"mock-id"`
}

// HealthResponse reports liveness and persistence availability.
type HealthResponse struct {
	Status      string `json:"status" example:"healthy"`
	Persistence bool   `json:"persistence" example:"true"`
}
