package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/klabs/account-service/internal/usecase"
)

// ValidationHandler exposes token introspection and availability checks.
type ValidationHandler struct {
	validation *usecase.ValidationService
}

func NewValidationHandler(validation *usecase.ValidationService) *ValidationHandler {
	return &ValidationHandler{validation: validation}
}

// RegisterRoutes binds validation endpoints.
func (h *ValidationHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/validate", h.ValidateToken)
	r.GET("/availability/email", h.EmailAvailability)
	r.GET("/availability/login", h.LoginAvailability)
}

// ValidateToken introspects the bearer token and returns the account it
// belongs to.
func (h *ValidationHandler) ValidateToken(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "missing bearer token"))
		return
	}

	account, err := h.validation.ValidateToken(c.Request.Context(), token)
	if err != nil {
		RespondWithMappedError(c, err, refreshErrorCases(), http.StatusInternalServerError, "failed to validate token")
		return
	}

	c.JSON(http.StatusOK, account)
}

// EmailAvailability reports whether the email may still be claimed.
// Malformed addresses report unavailable rather than erroring.
func (h *ValidationHandler) EmailAvailability(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email query parameter is required"))
		return
	}

	available, err := h.validation.CheckEmailAvailability(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to check email availability"))
		return
	}

	c.JSON(http.StatusOK, AvailabilityResponse{Available: available})
}

// LoginAvailability reports whether the login may still be claimed.
func (h *ValidationHandler) LoginAvailability(c *gin.Context) {
	login := strings.TrimSpace(c.Query("login"))
	if login == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "login query parameter is required"))
		return
	}

	available, err := h.validation.CheckLoginAvailability(c.Request.Context(), login)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to check login availability"))
		return
	}

	c.JSON(http.StatusOK, AvailabilityResponse{Available: available})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
