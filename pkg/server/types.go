package server

// ConvertRequest is the body of the line and recipe endpoints.
type ConvertRequest struct {
	Text string `json:"text"`
	// Multiplier scales every amount. Omitted means the server default.
	Multiplier *float64 `json:"multiplier,omitempty"`
}

// ConvertResponse carries a converted line or recipe.
type ConvertResponse struct {
	Text string `json:"text"`
}

// BatchRequest is the body of the batch endpoint.
type BatchRequest struct {
	Texts      []string `json:"texts" binding:"required"`
	Multiplier *float64 `json:"multiplier,omitempty"`
}

// BatchResponse lists converted recipes in request order.
type BatchResponse struct {
	Texts []string `json:"texts"`
}

// UnitResponse is the result of a unit-to-unit conversion.
type UnitResponse struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Multiplier float64 `json:"multiplier"`
	Value      float64 `json:"value"`
}

// UnitsResponse lists known units.
type UnitsResponse struct {
	Units []string `json:"units"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code (optional).
	Code string `json:"code,omitempty"`

	// RequestID echoes X-Request-ID.
	RequestID string `json:"request_id,omitempty"`
}
