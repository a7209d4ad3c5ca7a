package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// PhoneKey is the gin context key holding the authenticated identity.
const PhoneKey = "auth_phone"

// Middleware validates the session token before a request reaches the
// core. The token comes from the Authorization header, or from the
// "token" query parameter for WebSocket upgrades where browsers cannot
// set headers.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token is missing"})
			return
		}

		claims, err := ValidateToken(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(PhoneKey, claims.Phone)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}
