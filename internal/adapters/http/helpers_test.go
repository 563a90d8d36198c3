package http

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func sessionsForTest() gin.HandlerFunc {
	return sessions.Sessions(sessionCookieName, cookie.NewStore([]byte("test-secret")))
}
