package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/onsekiz/backend/internal/auth"
	"github.com/onsekiz/backend/internal/util"
)

// SessionCookie is the name of the HTTP-only cookie carrying the session token
const SessionCookie = "jwt"

// Auth validates the signed session cookie, loads the acting user and
// attaches it to the request context. Every protected route runs through it.
func Auth(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookie)
		if err != nil || token == "" {
			util.RespondUnauthorized(c, "no session token provided")
			c.Abort()
			return
		}

		user, err := authService.ValidateToken(token)
		if err != nil {
			util.RespondUnauthorized(c, "invalid or expired session")
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}
