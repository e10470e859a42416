package compare

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

type Logger interface {
	Printf(format string, v ...any)
}

// Catalog держит актуальные таблицы полей; Reload подменяет их атомарно.
type Catalog struct {
	mu     sync.RWMutex
	dir    string
	tables Tables
}

func NewCatalog(dir string) (*Catalog, error) {
	t, err := LoadTables(dir)
	if err != nil {
		return nil, err
	}
	return &Catalog{dir: dir, tables: t}, nil
}

func (c *Catalog) Dir() string { return c.dir }

// Table возвращает копию таблицы модуля.
func (c *Catalog) Table(m ModuleKind) (Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[m]
	if !ok {
		return nil, false
	}
	return append(Table(nil), t...), true
}

func (c *Catalog) Modules() []ModuleKind {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ModuleKind, 0, len(c.tables))
	for _, m := range ModuleKinds {
		if _, ok := c.tables[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Reload перечитывает таблицы. Таблицы с блокирующими проблемами не применяются.
func (c *Catalog) Reload() (Tables, []TableIssue, error) {
	t, err := LoadTables(c.dir)
	if err != nil {
		return nil, nil, err
	}
	if issues := t.Lint(); len(issues) > 0 {
		return nil, issues, fmt.Errorf("field tables have %d issue(s)", len(issues))
	}
	c.mu.Lock()
	c.tables = t
	c.mu.Unlock()
	return t, nil, nil
}

// Watch следит за каталогом переопределений и перечитывает таблицы после
// изменений (с задержкой, чтобы пачка записей дала одну перезагрузку).
// Блокирует до отмены ctx.
func (c *Catalog) Watch(ctx context.Context, log Logger) error {
	if strings.TrimSpace(c.dir) == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(c.dir); err != nil {
		return err
	}
	log.Printf("field tables: watching %s", c.dir)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			ext := filepath.Ext(event.Name)
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(300*time.Millisecond, func() {
				if _, issues, err := c.Reload(); err != nil {
					log.Printf("field tables: reload failed: %v %v", err, issues)
					return
				}
				log.Printf("field tables: reloaded after change of %s", event.Name)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("field tables: watcher error: %v", err)
		}
	}
}
