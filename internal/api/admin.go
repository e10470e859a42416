package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// POST /api/admin/reload-tables: перечитать таблицы полей сравнения.
// Таблицы с проблемами не применяются, остаются прежние.
func AdminReloadTablesHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		tables, issues, err := srv.Tables.Reload()
		if len(issues) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "field tables have blocking issues",
				"issues": issues,
				"hint":   "fix YAML and retry",
				"dir":    srv.Tables.Dir(),
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "field tables load error", "details": err.Error()})
			return
		}

		fields := 0
		for _, t := range tables {
			fields += len(t)
		}
		srv.Log.Printf("field tables reloaded by %s: %d modules, %d fields", sessionOf(c).Key(), len(tables), fields)
		c.JSON(http.StatusOK, gin.H{
			"ok":      true,
			"dir":     srv.Tables.Dir(),
			"modules": len(tables),
			"fields":  fields,
		})
	}
}
