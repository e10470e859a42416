// api/schema_lint.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swimlms/internal/formschema"
)

type SchemaIssue struct {
	Field    string `json:"field"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Blocking bool   `json:"blocking"`
}

// lintIssues: все проблемы схемы; blocking = сохранить такую схему нельзя.
func lintIssues(s formschema.Schema) []SchemaIssue {
	issues := formschema.Lint(s)
	out := make([]SchemaIssue, 0, len(issues))
	for _, it := range issues {
		out = append(out, SchemaIssue{
			Field:    it.Field,
			Code:     it.Code,
			Message:  it.Message,
			Blocking: it.Blocking(),
		})
	}
	return out
}

// GET /api/schemas/:id/lint
func SchemaLintHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := srv.Schemas.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			srv.respondError(c, err)
			return
		}
		issues := lintIssues(rec.Schema)
		blocking := 0
		for _, it := range issues {
			if it.Blocking {
				blocking++
			}
		}
		c.JSON(http.StatusOK, gin.H{"id": rec.ID, "issues": issues, "blocking": blocking})
	}
}
