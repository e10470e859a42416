package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"swimlms/internal/api"
	"swimlms/internal/backend"
	"swimlms/internal/calendar"
	"swimlms/internal/compare"
	"swimlms/internal/config"
	"swimlms/internal/database"
	"swimlms/internal/logger"
	"swimlms/internal/store"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	host, _ := os.Hostname()
	lg := logger.New(os.Stderr, logger.Options{
		Token: cfg.RollbarToken,
		Env:   cfg.Env,
		Build: cfg.Build,
		Host:  host,
	})
	defer lg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Хранилище схем
	schemas, err := openStore(ctx, cfg, lg)
	if err != nil {
		lg.Error("store init failed", err)
		lg.Close()
		os.Exit(1)
	}
	defer schemas.Close()
	lg.Printf("Хранилище схем: %s", cfg.StoreDriver)

	// 2. Таблицы полей сравнения
	tables, err := compare.NewCatalog(cfg.TablesDir)
	if err != nil {
		lg.Error("field tables load failed", err)
		lg.Close()
		os.Exit(1)
	}
	lg.Printf("Загружено таблиц сравнения: %d", len(tables.Modules()))
	if cfg.WatchTables {
		go func() {
			if err := tables.Watch(ctx, lg); err != nil {
				lg.Warn("field tables watcher stopped", err)
			}
		}()
	}

	// 3. Клиент бэкенда и состояния операторов
	client := backend.New(backend.Options{
		BaseURL:      cfg.BackendURL,
		Timeout:      cfg.BackendTimeout,
		SlotCacheTTL: cfg.SlotCacheTTL,
	})
	calendars := calendar.NewRegistry(client)
	handoff := store.NewHandoff(cfg.HandoffTTL)

	janitor, err := scheduleJanitors(cfg, lg, client, calendars, handoff)
	if err != nil {
		lg.Error("janitor schedule failed", err)
		lg.Close()
		os.Exit(1)
	}
	janitor.Start()
	defer janitor.Stop()

	// 4. HTTP
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := api.NewServer(api.Server{
		Schemas:   schemas,
		Handoff:   handoff,
		Backend:   client,
		Calendars: calendars,
		Tables:    tables,
		Log:       lg,
		Build:     cfg.Build,
	})
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lg.Printf("Стартуем сервер swimlms на :%s (%s, build %s)...", cfg.Port, cfg.Env, cfg.Build)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("http server failed", err)
			stop()
		}
	}()

	<-ctx.Done()
	lg.Printf("Останавливаемся...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("graceful shutdown failed", err)
	}
}

func openStore(ctx context.Context, cfg config.Config, lg *logger.Logger) (store.SchemaStore, error) {
	var (
		db      *sql.DB
		dialect database.Dialect
		err     error
	)
	switch cfg.StoreDriver {
	case "memory":
		return store.NewMemoryStore(), nil
	case "postgres":
		dialect = database.Postgres
		db, err = database.OpenPostgres(cfg.DBURL)
	case "sqlite":
		dialect = database.SQLite
		db, err = database.OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.StoreDriver, err)
	}
	if cfg.AutoMigrate {
		if err := database.ApplyDDL(ctx, db, database.SchemaDDL(dialect), lg); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply ddl: %w", err)
		}
	}
	return store.NewSQLStore(db, dialect), nil
}

// scheduleJanitors: периодическая чистка кэша слотов, черновиков handoff и
// календарей операторов, которые давно не заходили.
func scheduleJanitors(cfg config.Config, lg *logger.Logger, client *backend.Client, calendars *calendar.Registry, handoff *store.Handoff) (*cron.Cron, error) {
	c := cron.New()
	jobs := []struct {
		expr string
		name string
		run  func() int
	}{
		{"@every 1m", "slot cache", client.PurgeExpired},
		{"@every 1m", "handoff", handoff.Purge},
		{"@every 15m", "idle calendars", func() int { return calendars.EvictIdle(cfg.SessionIdleTTL) }},
	}
	for _, j := range jobs {
		if _, err := c.AddFunc(j.expr, func() {
			if n := j.run(); n > 0 {
				lg.Printf("janitor: %s: removed %d", j.name, n)
			}
		}); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", j.name, err)
		}
	}
	return c, nil
}
