package api

import (
	"context"
	"net/url"
	"time"

	"swimlms/internal/backend"
	"swimlms/internal/calendar"
	"swimlms/internal/compare"
	"swimlms/internal/formschema"
	"swimlms/internal/i18n"
	"swimlms/internal/render"
	"swimlms/internal/store"
)

// Backend: вызовы REST-бэкенда, которые нужны обработчикам (кроме календаря).
type Backend interface {
	SlotDetail(ctx context.Context, s backend.Session, slotID string, date time.Time) (backend.SlotDetail, error)
	CreateResource(ctx context.Context, s backend.Session, kind backend.ResourceKind, body map[string]any) (map[string]any, error)
	UpdateResource(ctx context.Context, s backend.Session, kind backend.ResourceKind, id string, body map[string]any) (map[string]any, error)
	ListResource(ctx context.Context, s backend.Session, kind backend.ResourceKind, q url.Values) ([]map[string]any, error)
	Lookups(ctx context.Context, s backend.Session, kinds []backend.ResourceKind) (map[backend.ResourceKind][]map[string]any, error)
	UploadMedia(ctx context.Context, s backend.Session, up backend.MediaUpload) (backend.MediaRecord, error)
}

// Logger: то, что обработчикам нужно от логгера.
type Logger interface {
	Printf(format string, v ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Server: зависимости обработчиков. Всё, кроме Log, обязательно.
type Server struct {
	Schemas   store.SchemaStore
	Handoff   *store.Handoff
	Backend   Backend
	Calendars *calendar.Registry
	Tables    *compare.Catalog
	Renderer  *render.Renderer
	Messages  *i18n.Bundle
	Validator *formschema.Validator
	Log       Logger
	Build     string
}

// NewServer подставляет валидатор форм поверх общего i18n-бандла.
func NewServer(s Server) *Server {
	if s.Messages == nil {
		s.Messages = i18n.New()
	}
	if s.Validator == nil {
		s.Validator = formschema.NewValidator(s.Messages.Validate, s.Messages.Translator)
	}
	if s.Renderer == nil {
		s.Renderer = render.New(nil)
	}
	if s.Log == nil {
		s.Log = nopLogger{}
	}
	return &s
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
func (nopLogger) Warn(string, ...any)   {}
func (nopLogger) Error(string, ...any)  {}
