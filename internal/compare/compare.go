package compare

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"swimlms/internal/render"
)

type absent struct{}

func (absent) MarshalJSON() ([]byte, error) { return []byte("null"), nil }
func (absent) String() string               { return "<absent>" }

// Absent: ключа нет в записи вовсе. Отличается от nil (ключ есть, значение null).
var Absent any = absent{}

// служебные ключи, изменения которых не показываем
var bookkeeping = map[string]struct{}{
	"_id": {}, "id": {}, "__v": {},
	"created_at": {}, "updated_at": {}, "created_by": {}, "updated_by": {},
	"createdAt": {}, "updatedAt": {}, "tenant_id": {}, "version": {},
}

// поле, которое модуль не сравнивает никогда, даже если оно изменилось
var excluded = map[ModuleKind]map[string]struct{}{
	ModuleCourse: {"media": {}},
}

func IsBookkeeping(key string) bool {
	_, ok := bookkeeping[key]
	return ok
}

func IsExcluded(m ModuleKind, key string) bool {
	_, ok := excluded[m][key]
	return ok
}

type FieldChange struct {
	Key   string      `json:"key"`
	Label string      `json:"label"`
	Type  render.Kind `json:"type"`
	Old   any         `json:"old"`
	New   any         `json:"new"`
}

// FindChangedFields: сначала поля таблицы в её порядке, потом остальные ключи
// обеих записей по алфавиту.
func FindChangedFields(original, updated map[string]any, table Table, module ModuleKind) []FieldChange {
	var out []FieldChange
	for _, f := range table {
		if IsExcluded(module, f.Key) || IsBookkeeping(f.Key) {
			continue
		}
		a, b := lookup(original, f.Key), lookup(updated, f.Key)
		if IsEqual(a, b) {
			continue
		}
		label := f.Label
		if label == "" {
			label = AutoLabel(f.Key)
		}
		out = append(out, FieldChange{Key: f.Key, Label: label, Type: f.Type, Old: a, New: b})
	}

	keys := map[string]struct{}{}
	for k := range original {
		keys[k] = struct{}{}
	}
	for k := range updated {
		keys[k] = struct{}{}
	}
	rest := make([]string, 0, len(keys))
	for k := range keys {
		if IsBookkeeping(k) || IsExcluded(module, k) || table.Has(k) {
			continue
		}
		rest = append(rest, k)
	}
	sort.Strings(rest)

	for _, k := range rest {
		a, b := lookup(original, k), lookup(updated, k)
		if IsEqual(a, b) {
			continue
		}
		out = append(out, FieldChange{Key: k, Label: AutoLabel(k), Type: render.KindAuto, Old: a, New: b})
	}
	return out
}

func lookup(m map[string]any, k string) any {
	v, ok := m[k]
	if !ok {
		return Absent
	}
	return v
}

// AutoLabel: "start_date" -> "Start Date". Caser не потокобезопасен, создаём на вызов.
func AutoLabel(key string) string {
	return cases.Title(language.Und, cases.NoLower).String(strings.TrimSpace(strings.ReplaceAll(key, "_", " ")))
}

// IsEqual: структурное сравнение JSON-подобных значений. Порядок ключей объектов
// не важен; порядок элементов массива тоже (элементы сравниваются по
// каноническому JSON). nil и Absent различаются.
func IsEqual(a, b any) bool {
	if _, ok := a.(absent); ok {
		_, ok2 := b.(absent)
		return ok2
	}
	if _, ok := b.(absent); ok {
		return false
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := number(a); ok {
		fb, ok2 := number(b)
		return ok2 && fa == fb
	}
	if sa, ok := asSlice(a); ok {
		sb, ok2 := asSlice(b)
		return ok2 && sameElements(sa, sb)
	}
	if ma, ok := asMap(a); ok {
		mb, ok2 := asMap(b)
		if !ok2 || len(ma) != len(mb) {
			return false
		}
		for k, va := range ma {
			vb, present := mb[k]
			if !present || !deepEqual(va, vb) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// deepEqual: как IsEqual, но для вложенных массивов порядок важен
func deepEqual(a, b any) bool {
	if _, ok := asSlice(a); ok {
		return canonical(a) == canonical(b)
	}
	return IsEqual(a, b)
}

func sameElements(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	ca, cb := make([]string, len(a)), make([]string, len(b))
	for i := range a {
		ca[i] = canonical(a[i])
		cb[i] = canonical(b[i])
	}
	sort.Strings(ca)
	sort.Strings(cb)
	for i := range ca {
		if ca[i] != cb[i] {
			return false
		}
	}
	return true
}

// canonical: encoding/json сортирует ключи словарей, поэтому строка стабильна;
// тип сохраняется ("1" и 1 дают разные строки)
func canonical(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T:%v", v, v)
	}
	return string(b)
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
