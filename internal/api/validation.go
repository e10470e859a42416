package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"swimlms/internal/backend"
	"swimlms/internal/calendar"
	"swimlms/internal/formschema"
	"swimlms/internal/store"
)

// Коды ошибок полей, которые появляются только на уровне API
const (
	CodeServer   = "server"
	CodeConflict = "conflict"
	CodeNotFound = "not_found"
)

func ferr(code, field, msg string) formschema.FieldError {
	return formschema.FieldError{Code: code, Field: field, Message: msg}
}

func statusForErrors(errs []formschema.FieldError) int {
	// 409, если бэкенд сообщил о конфликте
	for _, e := range errs {
		if e.Code == CodeConflict {
			return http.StatusConflict
		}
	}
	return http.StatusBadRequest
}

// statusFor: HTTP-статус по классу ошибки
func statusFor(err error) int {
	var (
		lintErr *store.LintError
		apiErr  *backend.APIError
	)
	switch {
	case errors.Is(err, backend.ErrNoTenant), errors.Is(err, backend.ErrNoToken), errors.Is(err, backend.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, formschema.ErrFieldNotFound),
		errors.Is(err, formschema.ErrDependencyIndex):
		return http.StatusNotFound
	case errors.As(err, &lintErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, calendar.ErrPoolRequired), errors.Is(err, calendar.ErrDateRequired),
		errors.Is(err, calendar.ErrSlotRequired), errors.Is(err, calendar.ErrInvalidSlotID),
		errors.Is(err, formschema.ErrEmptyFieldName), errors.Is(err, formschema.ErrUnknownFieldType),
		errors.Is(err, formschema.ErrInvalidDependency), errors.Is(err, formschema.ErrSelfDependency),
		errors.Is(err, formschema.ErrOptionDelimiter):
		return http.StatusBadRequest
	case errors.Is(err, formschema.ErrDuplicateField), errors.Is(err, formschema.ErrDuplicateDependency):
		return http.StatusConflict
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	case errors.Is(err, calendar.ErrLoadFailed), errors.Is(err, calendar.ErrAddFailed), errors.Is(err, calendar.ErrDeleteFailed):
		// сеть или таймаут до бэкенда
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError отвечает {"error", "toast"} (+ "issues" для схем с ошибками).
func (srv *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error(), "toast": srv.Messages.Localize(err)}
	var lintErr *store.LintError
	if errors.As(err, &lintErr) {
		body["issues"] = lintErr.Issues
	}
	if status >= http.StatusInternalServerError {
		srv.Log.Error("request failed", err, sessionOf(c), map[string]any{
			"request_id": requestIDOf(c),
			"path":       c.FullPath(),
		})
	}
	c.JSON(status, body)
}

func badJSON(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
}

// bindStruct: JSON + проверка тегами validate; ошибки полей в формате форм
func (srv *Server) bindStruct(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badJSON(c)
		return false
	}
	if err := srv.Messages.Validate.Struct(dst); err != nil {
		if errs := srv.Messages.FieldErrors(err); len(errs) > 0 {
			c.JSON(statusForErrors(errs), gin.H{"errors": errs})
			return false
		}
		srv.respondError(c, err)
		return false
	}
	return true
}
