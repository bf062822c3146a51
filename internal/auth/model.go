package auth

import "religious_services_backend/internal/shared"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest may carry the refresh token of the session so both halves
// are revoked together.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	User  shared.UserResponse   `json:"user"`
	Token *shared.TokenResponse `json:"token"`
}
