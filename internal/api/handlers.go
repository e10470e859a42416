package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"swimlms/internal/formschema"
	"swimlms/internal/store"
)

type schemaBody struct {
	OwnerKind string          `json:"owner_kind"`
	OwnerID   string          `json:"owner_id"`
	Title     string          `json:"title"`
	Schema    json.RawMessage `json:"schema"`
}

// schema принимается в любой из исторических форм и нормализуется
func (b schemaBody) record() store.SchemaRecord {
	return store.SchemaRecord{
		OwnerKind: b.OwnerKind,
		OwnerID:   b.OwnerID,
		Title:     b.Title,
		Schema:    formschema.Normalize(b.Schema),
	}
}

// POST /api/schemas
func CreateSchemaHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body schemaBody
		if err := c.ShouldBindJSON(&body); err != nil {
			badJSON(c)
			return
		}
		rec, err := srv.Schemas.Create(c.Request.Context(), body.record())
		if err != nil {
			srv.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, schemaView(rec))
	}
}

// GET /api/schemas?owner_kind=&owner_id=&q=&_sort=&_limit=&_offset=
func ListSchemasHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		lp := parseListParams(c.Request.URL.Query())
		all, err := srv.Schemas.List(c.Request.Context(), lp.Filter)
		if err != nil {
			srv.respondError(c, err)
			return
		}
		page, total := lp.apply(all)
		out := make([]gin.H, 0, len(page))
		for _, rec := range page {
			out = append(out, schemaView(rec))
		}
		c.Header("X-Total-Count", strconv.Itoa(total))
		c.JSON(http.StatusOK, out)
	}
}

// GET /api/schemas/:id
func GetSchemaHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := srv.Schemas.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			srv.respondError(c, err)
			return
		}
		c.Header("ETag", fmt.Sprintf(`"%d"`, rec.Version))
		c.JSON(http.StatusOK, schemaView(rec))
	}
}

// PUT /api/schemas/:id: полная замена, без проверки версии
func UpdateSchemaHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body schemaBody
		if err := c.ShouldBindJSON(&body); err != nil {
			badJSON(c)
			return
		}
		rec := body.record()
		rec.ID = c.Param("id")
		saved, err := srv.Schemas.Update(c.Request.Context(), rec)
		if err != nil {
			srv.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, schemaView(saved))
	}
}

// DELETE /api/schemas/:id
func DeleteSchemaHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := srv.Schemas.Delete(c.Request.Context(), c.Param("id")); err != nil {
			srv.respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// POST /api/schemas/_normalize, тело: схема в любой форме (или JSON-строка с ней)
func NormalizeSchemaHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.GetRawData()
		if err != nil {
			badJSON(c)
			return
		}
		s := formschema.Normalize(raw)
		c.JSON(http.StatusOK, gin.H{
			"schema":      s,
			"description": formschema.Describe(s),
			"issues":      lintIssues(s),
		})
	}
}

// GET /api/schemas/:id/summary
func SchemaSummaryHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := srv.Schemas.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			srv.respondError(c, err)
			return
		}
		type fieldSummary struct {
			Name    string   `json:"name"`
			Type    string   `json:"type"`
			Label   string   `json:"label"`
			Summary string   `json:"summary"`
			Options []string `json:"options,omitempty"`
		}
		fields := make([]fieldSummary, 0, rec.Schema.Len())
		for _, f := range rec.Schema.Fields {
			fields = append(fields, fieldSummary{
				Name:    f.Name,
				Type:    string(f.Type),
				Label:   formschema.TypeLabel(f.Type),
				Summary: formschema.Summary(f),
				Options: formschema.OptionLines(f),
			})
		}
		c.JSON(http.StatusOK, gin.H{
			"id":          rec.ID,
			"description": formschema.Describe(rec.Schema),
			"fields":      fields,
		})
	}
}

// ===== правки билдера =====

type addFieldReq struct {
	Name string `json:"name" validate:"required"`
}

// POST /api/schemas/:id/fields
func AddFieldHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addFieldReq
		if !srv.bindStruct(c, &req) {
			return
		}
		srv.editSchema(c, func(b *formschema.Builder) error { return b.AddField(req.Name) })
	}
}

// PUT /api/schemas/:id/fields/:name: полное определение поля
func UpdateFieldHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var def formschema.FieldDefinition
		if err := c.ShouldBindJSON(&def); err != nil {
			if errors.Is(err, formschema.ErrUnknownFieldType) {
				srv.respondError(c, err)
				return
			}
			badJSON(c)
			return
		}
		name := c.Param("name")
		srv.editSchema(c, func(b *formschema.Builder) error { return b.UpdateField(name, def) })
	}
}

// DELETE /api/schemas/:id/fields/:name: зависимости на поле чистятся каскадно
func RemoveFieldHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		srv.editSchema(c, func(b *formschema.Builder) error {
			if _, ok := b.Schema().Field(name); !ok {
				return fmt.Errorf("%w: %s", formschema.ErrFieldNotFound, name)
			}
			b.RemoveField(name)
			return nil
		})
	}
}

type changeTypeReq struct {
	Type string `json:"type" validate:"required"`
}

// POST /api/schemas/:id/fields/:name/type
func ChangeFieldTypeHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req changeTypeReq
		if !srv.bindStruct(c, &req) {
			return
		}
		name := c.Param("name")
		t := formschema.FieldType(strings.ToLower(strings.TrimSpace(req.Type)))
		srv.editSchema(c, func(b *formschema.Builder) error { return b.ChangeFieldType(name, t) })
	}
}

type addDependencyReq struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value" validate:"required"`
}

// POST /api/schemas/:id/fields/:name/dependencies
func AddDependencyHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addDependencyReq
		if !srv.bindStruct(c, &req) {
			return
		}
		name := c.Param("name")
		srv.editSchema(c, func(b *formschema.Builder) error { return b.AddDependency(name, req.Field, req.Value) })
	}
}

// PUT /api/schemas/:id/fields/:name/dependencies/:index
func UpdateDependencyHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch formschema.DependencyPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			badJSON(c)
			return
		}
		name, idx := c.Param("name"), pathIndex(c, "index")
		srv.editSchema(c, func(b *formschema.Builder) error { return b.UpdateDependency(name, idx, patch) })
	}
}

// DELETE /api/schemas/:id/fields/:name/dependencies/:index
func RemoveDependencyHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, idx := c.Param("name"), pathIndex(c, "index")
		srv.editSchema(c, func(b *formschema.Builder) error { return b.RemoveDependency(name, idx) })
	}
}

// POST /api/schemas/:id/_validate {"values": {...}}: проверка заполненной формы оценки
func ValidateValuesHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Values map[string]any `json:"values"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			badJSON(c)
			return
		}
		rec, err := srv.Schemas.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			srv.respondError(c, err)
			return
		}
		if errs := srv.Validator.Validate(rec.Schema, body.Values); len(errs) > 0 {
			c.JSON(statusForErrors(errs), gin.H{"errors": errs})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
