package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/klabs/account-service/internal/core/domain"
	"github.com/klabs/account-service/internal/core/port"
	"github.com/klabs/account-service/internal/usecase"
)

// AuthHandler exposes login, logout and token refresh endpoints.
type AuthHandler struct {
	auth *usecase.AuthService
}

func NewAuthHandler(auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes binds authentication endpoints.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/login", h.Login)
	r.POST("/login/oauth", h.OAuthLogin)
	r.POST("/logout", h.Logout)
	r.POST("/refresh", h.Refresh)
}

// Login authenticates with a login or email identifier plus password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	tokens, err := h.auth.LogIn(c.Request.Context(), strings.TrimSpace(req.Identifier), req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		RespondWithMappedError(c, err, loginErrorCases(), http.StatusInternalServerError, "failed to log in")
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(tokens))
}

// OAuthLogin authenticates through an external provider binding, creating
// the account on first login.
func (h *AuthHandler) OAuthLogin(c *gin.Context) {
	var req OAuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid oauth login payload"))
		return
	}

	tokens, err := h.auth.LogInWithOAuth(
		c.Request.Context(),
		strings.TrimSpace(req.Provider),
		strings.TrimSpace(req.ProviderUserID),
		strings.TrimSpace(req.Email),
		strings.TrimSpace(req.Login),
		c.ClientIP(),
		c.Request.UserAgent(),
	)
	if err != nil {
		RespondWithMappedError(c, err, loginErrorCases(), http.StatusInternalServerError, "failed to log in")
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(tokens))
}

// Logout revokes both tokens and closes the session.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid logout payload"))
		return
	}

	if err := h.auth.LogOut(c.Request.Context(), req.AccessToken, req.RefreshToken, c.ClientIP(), c.Request.UserAgent()); err != nil {
		RespondWithMappedError(c, err, tokenErrorCases(), http.StatusInternalServerError, "failed to log out")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

// Refresh exchanges a valid refresh token for a new access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid refresh payload"))
		return
	}

	tokens, err := h.auth.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondWithMappedError(c, err, refreshErrorCases(), http.StatusInternalServerError, "failed to refresh token")
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(tokens))
}

func loginErrorCases() []ErrorCase {
	return []ErrorCase{
		{Err: domain.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
		{Err: domain.ErrPasswordNotSet, Status: http.StatusUnauthorized, Message: "invalid credentials"},
		{Err: usecase.ErrAccountNotFound, Status: http.StatusUnauthorized, Message: "invalid credentials"},
		{Err: usecase.ErrAccountSuspended, Status: http.StatusForbidden, Message: "account suspended"},
		{Err: usecase.ErrAccountDeleted, Status: http.StatusForbidden, Message: "account deleted"},
		{Err: usecase.ErrEmailNotVerified, Status: http.StatusForbidden, Message: "email not verified"},
		{Err: usecase.ErrEmailAlreadyExists, Status: http.StatusConflict, Message: "email already registered"},
		{Err: usecase.ErrLoginAlreadyExists, Status: http.StatusConflict, Message: "login already taken"},
		{Err: domain.ErrInvalidEmail, Status: http.StatusBadRequest, Message: "invalid email address"},
		{Err: domain.ErrInvalidLogin, Status: http.StatusBadRequest, Message: "invalid login"},
	}
}

func tokenErrorCases() []ErrorCase {
	return []ErrorCase{
		{Err: port.ErrTokenExpired, Status: http.StatusUnauthorized, Message: "token expired"},
		{Err: port.ErrInvalidToken, Status: http.StatusUnauthorized, Message: "invalid token"},
	}
}

func refreshErrorCases() []ErrorCase {
	return append(tokenErrorCases(),
		ErrorCase{Err: usecase.ErrAccountNotFound, Status: http.StatusUnauthorized, Message: "invalid token"},
		ErrorCase{Err: usecase.ErrAccountSuspended, Status: http.StatusForbidden, Message: "account suspended"},
		ErrorCase{Err: usecase.ErrAccountDeleted, Status: http.StatusForbidden, Message: "account deleted"},
		ErrorCase{Err: usecase.ErrEmailNotVerified, Status: http.StatusForbidden, Message: "email not verified"},
	)
}
