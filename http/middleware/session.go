package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionCookie = "capture_session"

// sessionCookieMaxAge matches a long day of fieldwork.
const sessionCookieMaxAge = 12 * 60 * 60

// SessionMiddleware pins every capture client to a session id so the
// current-record pointer survives across submissions. The cookie is issued on
// first contact and refreshed on every request.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookie)
		if err != nil || id == "" {
			id = uuid.NewString()
		} else if _, parseErr := uuid.Parse(id); parseErr != nil {
			id = uuid.NewString()
		}

		c.SetCookie(sessionCookie, id, sessionCookieMaxAge, "/", "", false, true)
		c.Set("session_id", id)
		c.Next()
	}
}
