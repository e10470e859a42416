package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"swimlms/internal/formschema"
)

var ErrNotFound = errors.New("store: schema not found")

// SchemaRecord: форма оценки, привязанная к владельцу (например, к разделу курса).
type SchemaRecord struct {
	ID        string            `json:"id"`
	OwnerKind string            `json:"owner_kind"`
	OwnerID   string            `json:"owner_id"`
	Title     string            `json:"title"`
	Schema    formschema.Schema `json:"schema"`
	Version   int64             `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type Filter struct {
	OwnerKind string
	OwnerID   string
}

func (f Filter) match(r SchemaRecord) bool {
	return (f.OwnerKind == "" || f.OwnerKind == r.OwnerKind) &&
		(f.OwnerID == "" || f.OwnerID == r.OwnerID)
}

// SchemaStore: хранилище схем. Update без проверки версии: побеждает последняя запись.
type SchemaStore interface {
	Create(ctx context.Context, rec SchemaRecord) (SchemaRecord, error)
	Get(ctx context.Context, id string) (SchemaRecord, error)
	List(ctx context.Context, f Filter) ([]SchemaRecord, error)
	Update(ctx context.Context, rec SchemaRecord) (SchemaRecord, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// LintError: схема с блокирующими проблемами в хранилище не попадает.
type LintError struct {
	Issues []formschema.Issue
}

func (e *LintError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, it := range e.Issues {
		parts = append(parts, it.Field+": "+it.Message)
	}
	return fmt.Sprintf("store: schema has %d blocking issue(s): %s", len(e.Issues), strings.Join(parts, "; "))
}

// prepare приводит схему к канонической форме и проверяет её перед записью
func prepare(rec SchemaRecord) (SchemaRecord, error) {
	b, err := json.Marshal(rec.Schema)
	if err != nil {
		return rec, err
	}
	rec.Schema = formschema.Normalize(b)
	rec.OwnerKind = strings.TrimSpace(rec.OwnerKind)
	rec.OwnerID = strings.TrimSpace(rec.OwnerID)
	rec.Title = strings.TrimSpace(rec.Title)
	if blocking := formschema.BlockingIssues(formschema.Lint(rec.Schema)); len(blocking) > 0 {
		return rec, &LintError{Issues: blocking}
	}
	return rec, nil
}

// idGen: монотонные ULID; ulid.Monotonic не потокобезопасен, отсюда mutex
type idGen struct {
	mu      sync.Mutex
	entropy io.Reader
}

func newIDGen() *idGen {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &idGen{entropy: ulid.Monotonic(src, 0)}
}

func (g *idGen) next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), g.entropy).String()
}
