package dto

import "time"

// StaffLoginRequest payload. Name is shown as the author of staff replies.
type StaffLoginRequest struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
