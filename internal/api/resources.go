package api

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"swimlms/internal/backend"
	"swimlms/internal/formschema"
)

// POST /api/resources/:kind
func CreateResourceHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, body, ok := resourceRequest(c)
		if !ok {
			return
		}
		out, err := srv.Backend.CreateResource(c.Request.Context(), sessionOf(c), kind, body)
		if err != nil {
			srv.respondResourceError(c, err, body)
			return
		}
		c.JSON(http.StatusCreated, out)
	}
}

// PUT /api/resources/:kind/:id: полная запись, побеждает последний
func UpdateResourceHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, body, ok := resourceRequest(c)
		if !ok {
			return
		}
		out, err := srv.Backend.UpdateResource(c.Request.Context(), sessionOf(c), kind, c.Param("id"), body)
		if err != nil {
			srv.respondResourceError(c, err, body)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func resourceRequest(c *gin.Context) (backend.ResourceKind, map[string]any, bool) {
	kind := backend.ResourceKind(c.Param("kind"))
	if !kind.Valid() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
		return "", nil, false
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		badJSON(c)
		return "", nil, false
	}
	return kind, body, true
}

// respondResourceError: ошибки бэкенда по известным полям формы уходят
// в "errors", всё остальное: одним сообщением в "toast".
func (srv *Server) respondResourceError(c *gin.Context, err error, body map[string]any) {
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) || apiErr.Status >= http.StatusInternalServerError {
		srv.respondError(c, err)
		return
	}
	known := make([]string, 0, len(body))
	for k := range body {
		known = append(known, k)
	}
	matched, generic := apiErr.MatchFields(known)

	code := CodeServer
	if apiErr.Status == http.StatusConflict {
		code = CodeConflict
	}
	names := make([]string, 0, len(matched))
	for k := range matched {
		names = append(names, k)
	}
	sort.Strings(names)
	errs := make([]formschema.FieldError, 0, len(names))
	for _, k := range names {
		errs = append(errs, ferr(code, k, matched[k]))
	}

	resp := gin.H{"errors": errs}
	if generic != "" {
		resp["toast"] = generic
	}
	status := apiErr.Status
	if len(errs) > 0 {
		status = statusForErrors(errs)
	}
	c.JSON(status, resp)
}

// GET /api/lookups?kinds=courses,instructors
func LookupsHandler(srv *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var kinds []backend.ResourceKind
		for _, k := range strings.Split(c.Query("kinds"), ",") {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			kind := backend.ResourceKind(k)
			if !kind.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{
					"errors": []formschema.FieldError{ferr(CodeNotFound, "kinds", "unknown resource "+k)},
				})
				return
			}
			kinds = append(kinds, kind)
		}
		if len(kinds) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "kinds required"})
			return
		}
		out, err := srv.Backend.Lookups(c.Request.Context(), sessionOf(c), kinds)
		if err != nil {
			srv.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}
