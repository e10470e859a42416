package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swimlms/internal/compare"
	"swimlms/internal/formschema"
)

type diffReq struct {
	Module   compare.ModuleKind `json:"module"`
	Original map[string]any     `json:"original"`
	Updated  map[string]any     `json:"updated"`
}

// POST /api/diff: изменения записи для окна подтверждения
func DiffHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req diffReq
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c)
			return
		}
		if !req.Module.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{
				"errors": []formschema.FieldError{ferr(CodeNotFound, "module", "unknown module")},
			})
			return
		}
		// модуль без таблицы: все поля идут с авто-подписями
		table, _ := srv.Tables.Table(req.Module)
		changes := compare.FindChangedFields(req.Original, req.Updated, table, req.Module)
		c.JSON(http.StatusOK, gin.H{
			"module":  req.Module,
			"count":   len(changes),
			"changes": compare.RenderChanges(changes, srv.Renderer),
		})
	}
}
