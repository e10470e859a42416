package compare

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"swimlms/internal/render"
)

// ModuleKind: категория сущностей со своей таблицей полей сравнения
type ModuleKind string

const (
	ModulePool   ModuleKind = "pool"
	ModuleCourse ModuleKind = "course"
	ModuleUser   ModuleKind = "user"
	ModuleNews   ModuleKind = "news"
	ModuleClass  ModuleKind = "class"
)

var ModuleKinds = []ModuleKind{ModulePool, ModuleCourse, ModuleUser, ModuleNews, ModuleClass}

func (m ModuleKind) Valid() bool {
	for _, k := range ModuleKinds {
		if k == m {
			return true
		}
	}
	return false
}

type FieldConfig struct {
	Key   string      `yaml:"key" json:"key"`
	Label string      `yaml:"label" json:"label"`
	Type  render.Kind `yaml:"type" json:"type"`
}

type Table []FieldConfig

// Has: ключ описан в таблице
func (t Table) Has(key string) bool {
	for _, f := range t {
		if f.Key == key {
			return true
		}
	}
	return false
}

type tableFile struct {
	Module ModuleKind `yaml:"module"`
	Fields Table      `yaml:"fields"`
}

type Tables map[ModuleKind]Table

//go:embed tables/*.yaml
var defaultTables embed.FS

// DefaultTables: встроенные таблицы; ошибка здесь означает битую сборку.
func DefaultTables() Tables {
	t, err := readTables(defaultTables, "tables")
	if err != nil {
		panic(fmt.Sprintf("compare: embedded tables: %v", err))
	}
	return t
}

// LoadTables: встроенные таблицы, поверх: *.yaml из dir (если задан).
// Файл переопределяет таблицу модуля целиком.
func LoadTables(dir string) (Tables, error) {
	out := DefaultTables()
	if strings.TrimSpace(dir) == "" {
		return out, nil
	}
	over, err := readTables(os.DirFS(dir), ".")
	if err != nil {
		return nil, err
	}
	for m, t := range over {
		out[m] = t
	}
	return out, nil
}

func readTables(fsys fs.FS, dir string) (Tables, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	result := Tables{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, name)))
		if err != nil {
			return nil, err
		}
		var tf tableFile
		if err := yaml.Unmarshal(data, &tf); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		// модуль: из файла или из имени файла
		if tf.Module == "" {
			tf.Module = ModuleKind(strings.TrimSuffix(name, filepath.Ext(name)))
		}
		for i := range tf.Fields {
			tf.Fields[i].Type = render.ParseKind(string(tf.Fields[i].Type))
			if tf.Fields[i].Label == "" {
				tf.Fields[i].Label = AutoLabel(tf.Fields[i].Key)
			}
		}
		result[tf.Module] = tf.Fields
	}
	return result, nil
}

type TableIssue struct {
	Module  ModuleKind `json:"module"`
	Key     string     `json:"key,omitempty"`
	Code    string     `json:"code"`
	Message string     `json:"message"`
}

// Lint: неизвестные модули, пустые и повторные ключи
func (t Tables) Lint() []TableIssue {
	mods := make([]string, 0, len(t))
	for m := range t {
		mods = append(mods, string(m))
	}
	sort.Strings(mods)

	var issues []TableIssue
	for _, ms := range mods {
		m := ModuleKind(ms)
		if !m.Valid() {
			issues = append(issues, TableIssue{Module: m, Code: "module_unknown", Message: "unknown module kind"})
		}
		seen := map[string]bool{}
		for _, f := range t[m] {
			switch {
			case strings.TrimSpace(f.Key) == "":
				issues = append(issues, TableIssue{Module: m, Code: "key_empty", Message: "field key is empty"})
			case seen[f.Key]:
				issues = append(issues, TableIssue{Module: m, Key: f.Key, Code: "key_duplicate", Message: "field key is listed twice"})
			}
			seen[f.Key] = true
		}
	}
	return issues
}
