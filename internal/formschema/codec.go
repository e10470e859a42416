package formschema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// fieldWire: плоский формат хранения поля (тот же, что пишет конструктор форм)
type fieldWire struct {
	Name           string       `json:"name,omitempty"`
	Type           FieldType    `json:"type"`
	Required       bool         `json:"required"`
	IsFilter       bool         `json:"is_filter"`
	TextType       TextKind     `json:"text_type,omitempty"`
	MinLength      *int         `json:"min_length,omitempty"`
	MaxLength      *int         `json:"max_length,omitempty"`
	IsArray        *bool        `json:"is_array,omitempty"`
	NumberType     NumberKind   `json:"number_type,omitempty"`
	MinArrayLength *int         `json:"min_array_length,omitempty"`
	MaxArrayLength *int         `json:"max_array_length,omitempty"`
	Min            *float64     `json:"min,omitempty"`
	Max            *float64     `json:"max,omitempty"`
	Options        *string      `json:"options,omitempty"`
	Entity         EntityKind   `json:"entity,omitempty"`
	RelationType   Cardinality  `json:"relation_type,omitempty"`
	Dependencies   []Dependency `json:"dependencies"`
}

func (f FieldDefinition) MarshalJSON() ([]byte, error) {
	w := fieldWire{
		Name:         f.Name,
		Type:         f.Type,
		Required:     f.Required,
		IsFilter:     f.IsFilter,
		Dependencies: f.Dependencies,
	}
	if w.Dependencies == nil {
		w.Dependencies = []Dependency{}
	}
	switch {
	case f.Type == TypeString && f.String != nil:
		w.TextType = f.String.TextKind
		w.MinLength, w.MaxLength = f.String.MinLength, f.String.MaxLength
	case f.Type == TypeNumber && f.Number != nil:
		isArr := f.Number.IsArray
		w.IsArray = &isArr
		if isArr {
			w.NumberType = f.Number.NumberKind
			w.MinArrayLength, w.MaxArrayLength = f.Number.MinArrayLength, f.Number.MaxArrayLength
		}
		w.Min, w.Max = f.Number.Min, f.Number.Max
	case f.Type == TypeSelect && f.Select != nil:
		s := mustEncode(f.Select.Options)
		w.Options = &s
	case f.Type == TypeRelation && f.Relation != nil:
		w.Entity = f.Relation.EntityKind
		w.RelationType = f.Relation.Cardinality
	}
	return json.Marshal(w)
}

// UnmarshalJSON читает только атрибуты объявленного типа: хвосты прежнего типа
// (старые записи) молча отбрасываются.
func (f *FieldDefinition) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	// нормализация снисходительна, а явно присланный чужой тип отвергаем
	if t := strings.ToLower(strings.TrimSpace(asString(raw["type"]))); t != "" && !FieldType(t).Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFieldType, t)
	}
	*f = fieldFromMap("", raw)
	return nil
}

// fieldFromMap: снисходительный разбор (числа могут прийти строками, bool строкой "true")
func fieldFromMap(name string, m map[string]any) FieldDefinition {
	if n := strings.TrimSpace(asString(m["name"])); n != "" && name == "" {
		name = n
	}
	t := FieldType(strings.ToLower(strings.TrimSpace(asString(m["type"]))))
	if !t.Valid() {
		t = TypeString
	}
	f := NewField(name, t)
	f.Required = asBool(m["required"])
	f.IsFilter = asBool(firstOf(m, "is_filter", "isFilter"))
	f.Dependencies = parseDependencies(m["dependencies"])

	switch t {
	case TypeString:
		if k := TextKind(asString(firstOf(m, "text_type", "textKind"))); k != "" {
			f.String.TextKind = k
		}
		f.String.MinLength = asIntPtr(firstOf(m, "min_length", "minLength"))
		f.String.MaxLength = asIntPtr(firstOf(m, "max_length", "maxLength"))
	case TypeNumber:
		f.Number.IsArray = asBool(firstOf(m, "is_array", "isArray"))
		if f.Number.IsArray {
			f.Number.NumberKind = NumberKind(asString(firstOf(m, "number_type", "numberKind")))
			if f.Number.NumberKind == "" {
				f.Number.NumberKind = NumberPlain
			}
			f.Number.MinArrayLength = asIntPtr(firstOf(m, "min_array_length", "minArrayLength"))
			f.Number.MaxArrayLength = asIntPtr(firstOf(m, "max_array_length", "maxArrayLength"))
		}
		f.Number.Min = asFloatPtr(m["min"])
		f.Number.Max = asFloatPtr(m["max"])
	case TypeSelect:
		switch o := m["options"].(type) {
		case string:
			f.Select.Options = DecodeOptions(o)
		case []any:
			for _, it := range o {
				if om, ok := it.(map[string]any); ok {
					// в массиве разделители не экранированы: вычищаем, иначе строковая форма не вернётся назад
					f.Select.Options = append(f.Select.Options, Option{
						Label: strings.TrimSpace(labelCleaner.Replace(asString(om["label"]))),
						Value: strings.TrimSpace(valueCleaner.Replace(asString(om["value"]))),
					})
				}
			}
		}
	case TypeRelation:
		if e := EntityKind(asString(m["entity"])); e != "" {
			f.Relation.EntityKind = e
		}
		if c := Cardinality(asString(firstOf(m, "relation_type", "cardinality"))); c != "" {
			f.Relation.Cardinality = c
		}
	}
	return f
}

var (
	labelCleaner = strings.NewReplacer(",", " ")
	valueCleaner = strings.NewReplacer(",", "", ":", "")
)

func parseDependencies(v any) []Dependency {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	// пустой список = nil, чтобы повторная нормализация давала то же значение
	var out []Dependency
	for _, it := range arr {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		d := Dependency{Field: strings.TrimSpace(asString(m["field"])), Value: asString(m["value"])}
		if d.Field == "" {
			continue
		}
		out = append(out, d)
	}
	return out
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	case float64:
		return t != 0
	default:
		return false
	}
}

func asFloatPtr(v any) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func asIntPtr(v any) *int {
	f := asFloatPtr(v)
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}

type schemaWire struct {
	Type   string            `json:"type"`
	Fields []FieldDefinition `json:"fields"`
}

// MarshalJSON пишет только каноническую форму; легаси-формы назад не сериализуются.
func (s Schema) MarshalJSON() ([]byte, error) {
	fields := s.Fields
	if fields == nil {
		fields = []FieldDefinition{}
	}
	return json.Marshal(schemaWire{Type: "object", Fields: fields})
}

func (s *Schema) UnmarshalJSON(b []byte) error {
	*s = Normalize(b)
	return nil
}
