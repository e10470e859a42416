package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PUT /api/handoff/:key: положить предзаполненные данные формы
func PutHandoffHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var data map[string]any
		if err := c.ShouldBindJSON(&data); err != nil {
			badJSON(c)
			return
		}
		srv.Handoff.Put(sessionOf(c).Key(), c.Param("key"), data)
		c.Status(http.StatusNoContent)
	}
}

// GET /api/handoff/:key: читается один раз
func TakeHandoffHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, ok := srv.Handoff.Take(sessionOf(c).Key(), c.Param("key"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Handoff not found"})
			return
		}
		c.JSON(http.StatusOK, data)
	}
}
