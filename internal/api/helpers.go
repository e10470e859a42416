package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"swimlms/internal/formschema"
	"swimlms/internal/store"
)

func schemaView(rec store.SchemaRecord) gin.H {
	return gin.H{
		"id":          rec.ID,
		"version":     rec.Version,
		"created_at":  rec.CreatedAt.Format(time.RFC3339),
		"updated_at":  rec.UpdatedAt.Format(time.RFC3339),
		"owner_kind":  rec.OwnerKind,
		"owner_id":    rec.OwnerID,
		"title":       rec.Title,
		"schema":      rec.Schema,
		"description": formschema.Describe(rec.Schema),
	}
}

// editSchema: загрузить запись, применить правку билдера, сохранить (побеждает последняя запись).
func (srv *Server) editSchema(c *gin.Context, edit func(b *formschema.Builder) error) {
	rec, err := srv.Schemas.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		srv.respondError(c, err)
		return
	}
	b := formschema.NewBuilder(rec.Schema)
	if err := edit(b); err != nil {
		srv.respondError(c, err)
		return
	}
	rec.Schema = b.Schema()
	saved, err := srv.Schemas.Update(c.Request.Context(), rec)
	if err != nil {
		srv.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schemaView(saved))
}

// индекс зависимости из пути; мусор даёт -1, что билдер отвергнет
func pathIndex(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return -1
	}
	return n
}
