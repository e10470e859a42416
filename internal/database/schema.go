package database

import (
	"fmt"
	"strings"
)

// типы колонок по диалекту
type columnTypes struct {
	json, stamp, bigint string
}

func typesFor(d Dialect) columnTypes {
	if d == Postgres {
		return columnTypes{json: "JSONB", stamp: "TIMESTAMPTZ", bigint: "BIGINT"}
	}
	return columnTypes{json: "TEXT", stamp: "DATETIME", bigint: "INTEGER"}
}

// SchemaDDL: таблицы сервиса. Ключи задают порядок применения.
func SchemaDDL(d Dialect) map[string]string {
	t := typesFor(d)
	return map[string]string{
		"01_form_schemas": fmt.Sprintf(`CREATE TABLE IF NOT EXISTS form_schemas (
	id         TEXT PRIMARY KEY,
	owner_kind TEXT NOT NULL DEFAULT '',
	owner_id   TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL DEFAULT '',
	schema     %s NOT NULL,
	version    %s NOT NULL DEFAULT 1,
	created_at %s NOT NULL,
	updated_at %s NOT NULL
)`, t.json, t.bigint, t.stamp, t.stamp),
		"02_form_schemas_owner_idx": `CREATE INDEX IF NOT EXISTS form_schemas_owner_idx ON form_schemas (owner_kind, owner_id)`,
	}
}

// Rebind переводит плейсхолдеры "?" в "$1, $2, ..." для Postgres.
func Rebind(d Dialect, query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
