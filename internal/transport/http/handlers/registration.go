package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/klabs/account-service/internal/core/domain"
	"github.com/klabs/account-service/internal/usecase"
)

// RegistrationHandler exposes endpoints for staged account registration.
type RegistrationHandler struct {
	registration *usecase.RegistrationService
}

func NewRegistrationHandler(registration *usecase.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registration: registration}
}

// RegisterRoutes binds registration endpoints.
func (h *RegistrationHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/register", h.Register)
	r.POST("/register/verify", h.Verify)
	r.POST("/register/cancel", h.Cancel)
}

// Register stages a new registration and emails a verification code. No
// durable account exists until the code is confirmed.
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	dto, err := h.registration.Initiate(c.Request.Context(), strings.TrimSpace(req.Email), strings.TrimSpace(req.Login), req.Password)
	if err != nil {
		RespondWithMappedError(c, err, registrationErrorCases(), http.StatusInternalServerError, "failed to initiate registration")
		return
	}

	c.JSON(http.StatusAccepted, RegisterResponse{
		RegistrationID: dto.RegistrationID,
		Email:          dto.Email,
		Login:          dto.Login,
		ExpiresAt:      dto.ExpiresAt,
	})
}

// Verify confirms a staged registration and returns the first token pair.
func (h *RegistrationHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid verification payload"))
		return
	}

	tokens, err := h.registration.Verify(c.Request.Context(), req.RegistrationID, strings.TrimSpace(req.Code))
	if err != nil {
		RespondWithMappedError(c, err, verificationErrorCases(), http.StatusInternalServerError, "failed to verify registration")
		return
	}

	c.JSON(http.StatusCreated, newTokenResponse(tokens))
}

// Cancel abandons a staged registration. Idempotent.
func (h *RegistrationHandler) Cancel(c *gin.Context) {
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid cancel payload"))
		return
	}

	h.registration.Cancel(c.Request.Context(), req.RegistrationID)
	c.JSON(http.StatusOK, MessageResponse{Message: "registration cancelled"})
}

func registrationErrorCases() []ErrorCase {
	return []ErrorCase{
		{Err: domain.ErrInvalidEmail, Status: http.StatusBadRequest, Message: "invalid email address"},
		{Err: domain.ErrInvalidLogin, Status: http.StatusBadRequest, Message: "invalid login"},
		{Err: domain.ErrPasswordTooShort, Status: http.StatusBadRequest, Message: "password must be at least 8 characters long"},
		{Err: domain.ErrPasswordNoUppercase, Status: http.StatusBadRequest, Message: "password must contain an uppercase letter"},
		{Err: domain.ErrPasswordNoLowercase, Status: http.StatusBadRequest, Message: "password must contain a lowercase letter"},
		{Err: domain.ErrPasswordNoDigit, Status: http.StatusBadRequest, Message: "password must contain a digit"},
		{Err: domain.ErrPasswordBlank, Status: http.StatusBadRequest, Message: "password is required"},
		{Err: usecase.ErrEmailAlreadyExists, Status: http.StatusConflict, Message: "email already registered"},
		{Err: usecase.ErrLoginAlreadyExists, Status: http.StatusConflict, Message: "login already taken"},
	}
}

func verificationErrorCases() []ErrorCase {
	return []ErrorCase{
		{Err: usecase.ErrVerificationCodeExpired, Status: http.StatusGone, Message: "verification code expired"},
		{Err: usecase.ErrRegistrationDataMissing, Status: http.StatusGone, Message: "registration data not found"},
		{Err: domain.ErrInvalidVerificationCode, Status: http.StatusBadRequest, Message: "invalid verification code"},
		{Err: usecase.ErrEmailAlreadyExists, Status: http.StatusConflict, Message: "email already registered"},
		{Err: usecase.ErrLoginAlreadyExists, Status: http.StatusConflict, Message: "login already taken"},
	}
}
