package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/klabs/account-service/internal/usecase"
)

// ErrorResponse represents a generic error payload with a request ID for
// correlation.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorResponse creates an error response carrying the request ID from
// the Gin context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	requestID := c.GetString("request_id")
	return ErrorResponse{
		Error:     errorMsg,
		RequestID: requestID,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterRequest defines the payload for registration initiation.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse echoes the staged registration.
type RegisterResponse struct {
	RegistrationID string    `json:"registration_id"`
	Email          string    `json:"email"`
	Login          string    `json:"login"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// VerifyRequest confirms a staged registration.
type VerifyRequest struct {
	RegistrationID string `json:"registration_id" binding:"required"`
	Code           string `json:"code" binding:"required"`
}

// CancelRequest abandons a staged registration.
type CancelRequest struct {
	RegistrationID string `json:"registration_id" binding:"required"`
}

// LoginRequest defines the payload for the password login endpoint.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// OAuthLoginRequest defines the payload for the OAuth login endpoint.
type OAuthLoginRequest struct {
	Provider       string `json:"provider" binding:"required"`
	ProviderUserID string `json:"provider_user_id" binding:"required"`
	Email          string `json:"email"`
	Login          string `json:"login"`
}

// LogoutRequest carries both tokens to revoke.
type LogoutRequest struct {
	AccessToken  string `json:"access_token" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshRequest carries the refresh token to exchange.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse describes an issued token pair.
type TokenResponse struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	TokenType    string             `json:"token_type"`
	ExpiresIn    int                `json:"expires_in"`
	IssuedAt     time.Time          `json:"issued_at"`
	Account      usecase.AccountDTO `json:"account"`
}

func newTokenResponse(dto usecase.TokenDTO) TokenResponse {
	return TokenResponse{
		AccessToken:  dto.AccessToken,
		RefreshToken: dto.RefreshToken,
		TokenType:    dto.TokenType,
		ExpiresIn:    dto.ExpiresIn,
		IssuedAt:     dto.IssuedAt,
		Account:      dto.Account,
	}
}

// AvailabilityResponse reports whether an identifier may still be claimed.
type AvailabilityResponse struct {
	Available bool `json:"available"`
}

// UpdateEmailRequest changes the account email.
type UpdateEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// UpdateLoginRequest changes the account login.
type UpdateLoginRequest struct {
	Login string `json:"login" binding:"required"`
}

// ChangePasswordRequest replaces the password credential.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// SessionsResponse lists active session records.
type SessionsResponse struct {
	Sessions []string `json:"sessions"`
}

// HealthResponse reports liveness and start time.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}
