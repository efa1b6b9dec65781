package models

// Response is the envelope of every successful API reply.
type Response struct {
	Payload any    `json:"payload"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope of every failed API reply.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Kind   string            `json:"kind"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Token is returned by a successful login.
type Token struct {
	Token string     `json:"token"`
	User  PublicUser `json:"user"`
}
