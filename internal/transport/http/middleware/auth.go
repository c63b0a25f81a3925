package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/klabs/account-service/internal/usecase"
)

// AccountUUIDKey is the Gin context key carrying the authenticated account
// identifier.
const AccountUUIDKey = "account_uuid"

// RequireAuth validates the bearer token and stores the account UUID on the
// context. Requests without a live, unrevoked token are rejected.
func RequireAuth(validation *usecase.ValidationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			return
		}

		account, err := validation.ValidateToken(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(AccountUUIDKey, account.UUID)
		c.Next()
	}
}
