// api/router.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func NewRouter(srv *Server) *gin.Engine {
	r := gin.Default()
	r.Use(RequestID())

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "build": srv.Build})
	})

	// справочники без сессии
	meta := r.Group("/api/meta")
	{
		meta.GET("/modules", MetaModulesHandler(srv))
		meta.GET("/modules/:module", MetaModuleHandler(srv))
		meta.GET("/render-kinds", MetaRenderKindsHandler())
		meta.GET("/field-types", MetaFieldTypesHandler())
	}

	apiGroup := r.Group("/api", RequireSession(srv))
	{
		apiGroup.POST("/admin/reload-tables", AdminReloadTablesHandler(srv))

		// статические "служебные" маршруты: СНАЧАЛА
		apiGroup.POST("/schemas/_normalize", NormalizeSchemaHandler(srv))
		apiGroup.GET("/schemas/:id/summary", SchemaSummaryHandler(srv))
		apiGroup.GET("/schemas/:id/lint", SchemaLintHandler(srv))
		apiGroup.POST("/schemas/:id/_validate", ValidateValuesHandler(srv))

		// схемы: CRUD
		apiGroup.POST("/schemas", CreateSchemaHandler(srv))
		apiGroup.GET("/schemas", ListSchemasHandler(srv))
		apiGroup.GET("/schemas/:id", GetSchemaHandler(srv))
		apiGroup.PUT("/schemas/:id", UpdateSchemaHandler(srv))
		apiGroup.DELETE("/schemas/:id", DeleteSchemaHandler(srv))

		// схемы: правки билдера
		apiGroup.POST("/schemas/:id/fields", AddFieldHandler(srv))
		apiGroup.PUT("/schemas/:id/fields/:name", UpdateFieldHandler(srv))
		apiGroup.DELETE("/schemas/:id/fields/:name", RemoveFieldHandler(srv))
		apiGroup.POST("/schemas/:id/fields/:name/type", ChangeFieldTypeHandler(srv))
		apiGroup.POST("/schemas/:id/fields/:name/dependencies", AddDependencyHandler(srv))
		apiGroup.PUT("/schemas/:id/fields/:name/dependencies/:index", UpdateDependencyHandler(srv))
		apiGroup.DELETE("/schemas/:id/fields/:name/dependencies/:index", RemoveDependencyHandler(srv))

		apiGroup.POST("/diff", DiffHandler(srv))

		// календарь
		apiGroup.GET("/calendar", CalendarHandler(srv))
		apiGroup.GET("/calendar/days/:date", CalendarDayHandler(srv))
		apiGroup.POST("/calendar/classes", AddClassHandler(srv))
		apiGroup.DELETE("/calendar/events/:id", DeleteEventHandler(srv))
		apiGroup.GET("/calendar/slots/:id", SlotDetailHandler(srv))

		// прокси к бэкенду
		apiGroup.POST("/resources/:kind", CreateResourceHandler(srv))
		apiGroup.PUT("/resources/:kind/:id", UpdateResourceHandler(srv))
		apiGroup.GET("/lookups", LookupsHandler(srv))
		apiGroup.POST("/media", UploadMediaHandler(srv))

		apiGroup.PUT("/handoff/:key", PutHandoffHandler(srv))
		apiGroup.GET("/handoff/:key", TakeHandoffHandler(srv))
	}

	return r
}
