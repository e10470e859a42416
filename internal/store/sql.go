package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"swimlms/internal/database"
	"swimlms/internal/formschema"
)

// SQLStore: схемы в Postgres (jsonb) или SQLite (text); различия: в database.Dialect.
type SQLStore struct {
	db      *sql.DB
	dialect database.Dialect
	ids     *idGen
	now     func() time.Time
}

func NewSQLStore(db *sql.DB, d database.Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: d, ids: newIDGen(), now: time.Now}
}

const selectColumns = `SELECT id, owner_kind, owner_id, title, schema, version, created_at, updated_at FROM form_schemas`

func (s *SQLStore) q(query string) string { return database.Rebind(s.dialect, query) }

func (s *SQLStore) Create(ctx context.Context, rec SchemaRecord) (SchemaRecord, error) {
	rec, err := prepare(rec)
	if err != nil {
		return SchemaRecord{}, err
	}
	body, err := json.Marshal(rec.Schema)
	if err != nil {
		return SchemaRecord{}, err
	}
	// в SQLite точность времени ограничиваем микросекундами, как у Postgres
	now := s.now().UTC().Truncate(time.Microsecond)
	rec.ID = s.ids.next(now)
	rec.Version = 1
	rec.CreatedAt, rec.UpdatedAt = now, now

	_, err = s.db.ExecContext(ctx, s.q(`INSERT INTO form_schemas
		(id, owner_kind, owner_id, title, schema, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.ID, rec.OwnerKind, rec.OwnerID, rec.Title, string(body), rec.Version, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return SchemaRecord{}, errors.Wrap(err, "store: insert schema")
	}
	return rec, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (SchemaRecord, error) {
	row := s.db.QueryRowContext(ctx, s.q(selectColumns+` WHERE id = ?`), id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SchemaRecord{}, ErrNotFound
	}
	return rec, err
}

func (s *SQLStore) List(ctx context.Context, f Filter) ([]SchemaRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.OwnerKind != "" {
		where = append(where, "owner_kind = ?")
		args = append(args, f.OwnerKind)
	}
	if f.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, f.OwnerID)
	}
	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "store: list schemas")
	}
	defer rows.Close()
	out := []SchemaRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, errors.Wrap(rows.Err(), "store: list schemas")
}

func (s *SQLStore) Update(ctx context.Context, rec SchemaRecord) (SchemaRecord, error) {
	rec, err := prepare(rec)
	if err != nil {
		return SchemaRecord{}, err
	}
	body, err := json.Marshal(rec.Schema)
	if err != nil {
		return SchemaRecord{}, err
	}
	now := s.now().UTC().Truncate(time.Microsecond)
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE form_schemas
		SET owner_kind = ?, owner_id = ?, title = ?, schema = ?, version = version + 1, updated_at = ?
		WHERE id = ?`),
		rec.OwnerKind, rec.OwnerID, rec.Title, string(body), now, rec.ID)
	if err != nil {
		return SchemaRecord{}, errors.Wrap(err, "store: update schema")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return SchemaRecord{}, ErrNotFound
	}
	return s.Get(ctx, rec.ID)
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM form_schemas WHERE id = ?`), id)
	if err != nil {
		return errors.Wrap(err, "store: delete schema")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (SchemaRecord, error) {
	var (
		rec              SchemaRecord
		body             []byte
		created, updated any
	)
	if err := row.Scan(&rec.ID, &rec.OwnerKind, &rec.OwnerID, &rec.Title, &body, &rec.Version, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, errors.Wrap(err, "store: scan schema")
	}
	// в базе могли остаться старые формы схемы: нормализуем при чтении
	rec.Schema = formschema.Normalize(body)
	var err error
	if rec.CreatedAt, err = asTime(created); err != nil {
		return rec, err
	}
	if rec.UpdatedAt, err = asTime(updated); err != nil {
		return rec, err
	}
	return rec, nil
}

var sqliteLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// asTime: pgx отдаёт time.Time, SQLite: иногда строку
func asTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		return parseStamp(t)
	case []byte:
		return parseStamp(string(t))
	case int64:
		return time.Unix(t, 0).UTC(), nil
	}
	return time.Time{}, errors.Errorf("store: unexpected time value %T", v)
}

func parseStamp(s string) (time.Time, error) {
	for _, l := range sqliteLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("store: bad timestamp %q", s)
}
