package formschema

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Normalize приводит сохранённую схему к канонической форме. Понимает:
//
//	{"type":"object","items":{"name":{...}}}  : легаси, словарь (порядок ключей сохраняется)
//	{"type":"object","items":[{"name":...}]}  : легаси, массив
//	{"type":"object","fields":[{"name":...}]} : каноническая форма
//
// Всё остальное даёт пустую схему; ошибок наружу не бывает.
func Normalize(raw []byte) Schema {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Schema{}
	}
	// дважды закодированный JSON (строка со схемой внутри): встречается в старых записях
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return Schema{}
		}
		if b := bytes.TrimSpace([]byte(inner)); len(b) > 0 && b[0] == '{' {
			return Normalize(b)
		}
		return Schema{}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return Schema{}
	}
	if fields, ok := top["fields"]; ok {
		return fromArray(fields)
	}
	items, ok := top["items"]
	if !ok {
		return Schema{}
	}
	items = bytes.TrimSpace(items)
	if len(items) == 0 {
		return Schema{}
	}
	switch items[0] {
	case '{':
		return fromObject(items)
	case '[':
		return fromArray(items)
	default:
		return Schema{}
	}
}

// NormalizeValue: то же для уже декодированного значения. Schema возвращается как есть.
func NormalizeValue(v any) Schema {
	switch t := v.(type) {
	case nil:
		return Schema{}
	case Schema:
		return t
	case *Schema:
		if t == nil {
			return Schema{}
		}
		return *t
	case []byte:
		return Normalize(t)
	case string:
		return Normalize([]byte(t))
	case json.RawMessage:
		return Normalize(t)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return Schema{}
	}
	return Normalize(b)
}

func fromArray(raw json.RawMessage) Schema {
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return Schema{}
	}
	var s Schema
	seen := map[string]struct{}{}
	for _, it := range arr {
		var m map[string]any
		if err := json.Unmarshal(it, &m); err != nil || m == nil {
			continue
		}
		f := fieldFromMap("", m)
		if f.Name == "" {
			continue
		}
		if _, dup := seen[f.Name]; dup {
			continue
		}
		seen[f.Name] = struct{}{}
		s.Fields = append(s.Fields, f)
	}
	return s
}

// fromObject читает словарь потоково, чтобы не потерять порядок ключей
func fromObject(raw json.RawMessage) Schema {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return Schema{}
	}
	var s Schema
	seen := map[string]struct{}{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return s
		}
		name, _ := tok.(string)
		name = strings.TrimSpace(name)
		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return s
		}
		var m map[string]any
		if err := json.Unmarshal(val, &m); err != nil || name == "" || m == nil {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		s.Fields = append(s.Fields, fieldFromMap(name, m))
	}
	return s
}
