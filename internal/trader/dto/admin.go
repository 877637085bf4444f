package dto

// ErrorResponse is the error body every admin endpoint returns.
type ErrorResponse struct {
	Error string `json:"error"`
}

// KillSwitchState mirrors the operator kill switch over the admin API.
type KillSwitchState struct {
	Engaged bool `json:"engaged"`
}

// HealthResponse aggregates the health of the service's dependencies.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Broker *HealthReport     `json:"broker"`
}
