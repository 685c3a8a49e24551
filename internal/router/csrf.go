package router

import (
	"errors"
	"net/http"

	"github.com/ericjkge/eeg-tutor/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	csrfTokenSessionKey = "csrf_token"
	csrfTokenHeaderKey  = "X-CSRF-Token"
)

// CSRFProtection issues a per-session token and validates it on unsafe
// methods. The API is JSON-only, so the token travels in the X-CSRF-Token
// header; clients obtain it from GET /api/csrf.
func CSRFProtection() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		var token string
		sessionToken := session.Get(csrfTokenSessionKey)
		if sessionToken == nil {
			newToken, err := utils.GenerateSecureToken(32)
			if err != nil {
				c.AbortWithError(http.StatusInternalServerError, errors.New("failed to generate CSRF token"))
				return
			}
			token = newToken
			session.Set(csrfTokenSessionKey, token)
			if err := session.Save(); err != nil {
				c.AbortWithError(http.StatusInternalServerError, errors.New("failed to save session"))
				return
			}
		} else {
			token = sessionToken.(string)
		}

		c.Set(csrfTokenSessionKey, token)

		if c.Request.Method == "POST" || c.Request.Method == "PUT" || c.Request.Method == "DELETE" {
			submitted := c.GetHeader(csrfTokenHeaderKey)
			if submitted == "" || submitted != token {
				c.JSON(http.StatusForbidden, gin.H{"error": "invalid CSRF token"})
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// CSRFToken returns the session's token so the UI can attach it to
// mutating requests.
func CSRFToken(c *gin.Context) {
	token, _ := c.Get(csrfTokenSessionKey)
	c.JSON(http.StatusOK, gin.H{"csrf_token": token})
}
