package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"swimlms/internal/compare"
	"swimlms/internal/formschema"
	"swimlms/internal/render"
)

// ===== META HANDLERS =====

type metaModule struct {
	Module compare.ModuleKind `json:"module"`
	Fields int                `json:"fields"`
}

// GET /api/meta/modules
func MetaModulesHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		mods := srv.Tables.Modules()
		out := make([]metaModule, 0, len(mods))
		for _, m := range mods {
			t, _ := srv.Tables.Table(m)
			out = append(out, metaModule{Module: m, Fields: len(t)})
		}
		c.JSON(http.StatusOK, out)
	}
}

// GET /api/meta/modules/:module: таблица полей сравнения
func MetaModuleHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		m := compare.ModuleKind(c.Param("module"))
		t, ok := srv.Tables.Table(m)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Module not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"module": m, "fields": t})
	}
}

// GET /api/meta/render-kinds
func MetaRenderKindsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, render.Kinds)
	}
}

type metaFieldType struct {
	Type  formschema.FieldType `json:"type"`
	Label string               `json:"label"`
}

var fieldTypes = []formschema.FieldType{
	formschema.TypeString, formschema.TypeNumber, formschema.TypeBoolean,
	formschema.TypeSelect, formschema.TypeRelation,
}

// GET /api/meta/field-types
func MetaFieldTypesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		out := make([]metaFieldType, 0, len(fieldTypes))
		for _, t := range fieldTypes {
			out = append(out, metaFieldType{Type: t, Label: formschema.TypeLabel(t)})
		}
		c.JSON(http.StatusOK, out)
	}
}
