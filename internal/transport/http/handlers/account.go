package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/klabs/account-service/internal/core/domain"
	"github.com/klabs/account-service/internal/transport/http/middleware"
	"github.com/klabs/account-service/internal/usecase"
)

// AccountHandler exposes authenticated account management endpoints.
type AccountHandler struct {
	accounts *usecase.AccountService
}

func NewAccountHandler(accounts *usecase.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// RegisterRoutes binds account management endpoints. All routes require the
// auth middleware to have resolved the current account.
func (h *AccountHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.PUT("/email", h.UpdateEmail)
	r.PUT("/login", h.UpdateLogin)
	r.PUT("/password", h.ChangePassword)
	r.DELETE("", h.Delete)
	r.GET("/sessions", h.Sessions)
}

// UpdateEmail changes the account email and resets verification.
func (h *AccountHandler) UpdateEmail(c *gin.Context) {
	accountUUID, ok := currentAccount(c)
	if !ok {
		return
	}

	var req UpdateEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid email payload"))
		return
	}

	dto, err := h.accounts.UpdateEmail(c.Request.Context(), accountUUID, strings.TrimSpace(req.Email), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		RespondWithMappedError(c, err, accountUpdateErrorCases(), http.StatusInternalServerError, "failed to update email")
		return
	}

	c.JSON(http.StatusOK, dto)
}

// UpdateLogin changes the account login name.
func (h *AccountHandler) UpdateLogin(c *gin.Context) {
	accountUUID, ok := currentAccount(c)
	if !ok {
		return
	}

	var req UpdateLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	dto, err := h.accounts.UpdateLogin(c.Request.Context(), accountUUID, strings.TrimSpace(req.Login), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		RespondWithMappedError(c, err, accountUpdateErrorCases(), http.StatusInternalServerError, "failed to update login")
		return
	}

	c.JSON(http.StatusOK, dto)
}

// ChangePassword verifies the old password and replaces the credential.
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	accountUUID, ok := currentAccount(c)
	if !ok {
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid password payload"))
		return
	}

	err := h.accounts.ChangePassword(c.Request.Context(), accountUUID, req.OldPassword, req.NewPassword, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		RespondWithMappedError(c, err, passwordChangeErrorCases(), http.StatusInternalServerError, "failed to change password")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password changed"})
}

// Delete tombstones the account and marks it deleted.
func (h *AccountHandler) Delete(c *gin.Context) {
	accountUUID, ok := currentAccount(c)
	if !ok {
		return
	}

	if err := h.accounts.DeleteAccount(c.Request.Context(), accountUUID, c.ClientIP(), c.Request.UserAgent()); err != nil {
		RespondWithMappedError(c, err, accountUpdateErrorCases(), http.StatusInternalServerError, "failed to delete account")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "account deleted"})
}

// Sessions lists the account's active session records.
func (h *AccountHandler) Sessions(c *gin.Context) {
	accountUUID, ok := currentAccount(c)
	if !ok {
		return
	}

	sessions, err := h.accounts.ListSessions(c.Request.Context(), accountUUID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list sessions"))
		return
	}

	c.JSON(http.StatusOK, SessionsResponse{Sessions: sessions})
}

func currentAccount(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(middleware.AccountUUIDKey)
	if raw == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return uuid.Nil, false
	}

	accountUUID, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return uuid.Nil, false
	}

	return accountUUID, true
}

func accountUpdateErrorCases() []ErrorCase {
	return []ErrorCase{
		{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		{Err: usecase.ErrAccountDeleted, Status: http.StatusGone, Message: "account deleted"},
		{Err: usecase.ErrEmailAlreadyExists, Status: http.StatusConflict, Message: "email already registered"},
		{Err: usecase.ErrLoginAlreadyExists, Status: http.StatusConflict, Message: "login already taken"},
		{Err: domain.ErrInvalidEmail, Status: http.StatusBadRequest, Message: "invalid email address"},
		{Err: domain.ErrInvalidLogin, Status: http.StatusBadRequest, Message: "invalid login"},
	}
}

func passwordChangeErrorCases() []ErrorCase {
	return []ErrorCase{
		{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		{Err: domain.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "old password does not match"},
		{Err: domain.ErrPasswordNotSet, Status: http.StatusConflict, Message: "no password credential set"},
		{Err: domain.ErrPasswordTooShort, Status: http.StatusBadRequest, Message: "password must be at least 8 characters long"},
		{Err: domain.ErrPasswordNoUppercase, Status: http.StatusBadRequest, Message: "password must contain an uppercase letter"},
		{Err: domain.ErrPasswordNoLowercase, Status: http.StatusBadRequest, Message: "password must contain a lowercase letter"},
		{Err: domain.ErrPasswordNoDigit, Status: http.StatusBadRequest, Message: "password must contain a digit"},
		{Err: domain.ErrPasswordBlank, Status: http.StatusBadRequest, Message: "password is required"},
	}
}
