package llm

// ErrorResponse is the JSON error body returned by HTTP surfaces. Kind is a
// stable machine-readable category; Error is human-readable.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
