package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-reservation/utils"
)

// Context keys set by the auth middlewares.
const (
	CtxUserID       = "user_id"
	CtxUsername     = "username"
	CtxRole         = "role"
	CtxSessionID    = "session_id"
	CtxToken        = "token"
	CtxTokenExpires = "token_expires"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header missing"))
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Authorization header must use the Bearer scheme"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if !setClaims(c, tokenString) {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("Invalid or expired token"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func setClaims(c *gin.Context, tokenString string) bool {
	claims, err := utils.ParseToken(tokenString)
	if err != nil || claims == nil || claims.SessionID == "" {
		return false
	}

	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxUsername, claims.Username)
	c.Set(CtxRole, claims.Role)
	c.Set(CtxSessionID, claims.SessionID)
	c.Set(CtxToken, tokenString)
	if claims.ExpiresAt != nil {
		c.Set(CtxTokenExpires, claims.ExpiresAt.Time)
	}
	return true
}
