package middleware

import (
	"net/http"
	"strings"

	"goldlink/internal/service"

	"github.com/gin-gonic/gin"
)

// Session extracts and validates the bearer session token, storing the
// session id in the context. The session only scopes the history archive;
// game state never depends on it.
func Session(sessions *service.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session token"})
			return
		}

		sid, err := sessions.Parse(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}

		c.Set("session_id", sid)
		c.Next()
	}
}
