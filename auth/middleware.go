package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "token"

// userIDKey is where the session gate stores the resolved identity
// in the gin context.
const userIDKey = "auth_user_id"

// SessionGate verifies the signed session cookie on every protected request
// and resolves it to an identity before any business logic runs.
// Missing cookie and invalid signature are indistinguishable to the client.
func SessionGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(SessionCookie)
		if err != nil || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "user not authenticated",
				"success": false,
			})
			return
		}

		claims, err := ValidateToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "invalid or expired token",
				"success": false,
			})
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

// UserID retrieves the identity resolved by SessionGate.
// The empty string means the request never passed the gate.
func UserID(c *gin.Context) string {
	id, _ := c.Get(userIDKey)
	s, _ := id.(string)
	return s
}
