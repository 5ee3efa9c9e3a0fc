package api

import "time"

// TokenRequest represents the request payload for issuing a session token
type TokenRequest struct {
	UserID string `json:"user_id"`
}

// TokenResponse represents the response payload for a session token
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
