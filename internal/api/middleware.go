package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"swimlms/internal/backend"
)

const (
	headerRequestID = "X-Request-ID"
	headerTenant    = "x-tenant-id"
	ctxSessionKey   = "swim.session"
	ctxRequestIDKey = "swim.request_id"
)

// RequestID: берём присланный id или выдаём новый
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerRequestID))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(ctxRequestIDKey, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// RequireSession: без арендатора и токена запрос до обработчика не доходит.
func RequireSession(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := backend.NewSession(c.GetHeader(headerTenant), c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
				"toast": srv.Messages.Localize(err),
			})
			return
		}
		c.Set(ctxSessionKey, s)
		c.Next()
	}
}

func sessionOf(c *gin.Context) backend.Session {
	v, _ := c.Get(ctxSessionKey)
	s, _ := v.(backend.Session)
	return s
}

func requestIDOf(c *gin.Context) string {
	return c.GetString(ctxRequestIDKey)
}
