package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type Logger interface {
	Printf(format string, v ...any)
}

// ApplyDDL выполняет map[имя]sql по порядку имён. DDL должен быть идемпотентным
// (create ... if not exists); "объект уже существует" пропускается.
func ApplyDDL(ctx context.Context, db *sql.DB, ddl map[string]string, log Logger) error {
	keys := make([]string, 0, len(ddl))
	for k := range ddl {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	for _, k := range keys {
		sqlText := strings.TrimSpace(ddl[k])
		if sqlText == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, sqlText); err != nil {
			// duplicate_object (42710) / duplicate_table (42P07)
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && (pgErr.Code == "42710" || pgErr.Code == "42P07") {
				log.Printf("DDL skipped (already exists): %s (%s)", k, strings.TrimSpace(pgErr.Message))
				continue
			}
			// sqlite отдаёт только текст
			if strings.Contains(strings.ToLower(err.Error()), "already exists") {
				log.Printf("DDL skipped (already exists): %s: %v", k, err)
				continue
			}
			return fmt.Errorf("DDL apply failed (%s): %w", k, err)
		}
	}
	return nil
}
