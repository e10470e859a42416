package formschema

import "strings"

// FieldType: закрытый набор типов поля формы оценки
type FieldType string

const (
	TypeString   FieldType = "string"
	TypeNumber   FieldType = "number"
	TypeBoolean  FieldType = "boolean"
	TypeSelect   FieldType = "select"
	TypeRelation FieldType = "relation"
)

var FieldTypes = []FieldType{TypeString, TypeNumber, TypeBoolean, TypeSelect, TypeRelation}

func (t FieldType) Valid() bool {
	for _, ft := range FieldTypes {
		if ft == t {
			return true
		}
	}
	return false
}

type TextKind string

const (
	TextShort    TextKind = "short"
	TextLong     TextKind = "long"
	TextEmail    TextKind = "email"
	TextURL      TextKind = "url"
	TextDatetime TextKind = "datetime"
	TextDate     TextKind = "date"
	TextTime     TextKind = "time"
	TextColor    TextKind = "color"
	TextRich     TextKind = "richtext"
)

var TextKinds = []TextKind{TextShort, TextLong, TextEmail, TextURL, TextDatetime, TextDate, TextTime, TextColor, TextRich}

type NumberKind string

const (
	NumberPlain       NumberKind = "plain"
	NumberCoordinates NumberKind = "coordinates"
)

type Cardinality string

const (
	OneToOne   Cardinality = "1-1"
	OneToMany  Cardinality = "1-n"
	ManyToMany Cardinality = "n-n"
)

// EntityKind: цель связи; пока поддерживается только media
type EntityKind string

const EntityMedia EntityKind = "media"

type StringAttrs struct {
	TextKind  TextKind
	MinLength *int
	MaxLength *int
}

type NumberAttrs struct {
	IsArray        bool
	NumberKind     NumberKind // только для массивов
	MinArrayLength *int
	MaxArrayLength *int
	Min            *float64
	Max            *float64
}

type SelectAttrs struct {
	Options []Option
}

type RelationAttrs struct {
	EntityKind  EntityKind
	Cardinality Cardinality
}

// Dependency: поле показывается, только если Field имеет одно из значений Value (через запятую)
type Dependency struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// Values разбивает Value на допустимые значения.
func (d Dependency) Values() []string {
	parts := strings.Split(d.Value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FieldDefinition описывает один критерий формы. Ровно один из указателей
// String/Number/Select/Relation соответствует Type (у boolean: ни одного).
type FieldDefinition struct {
	Name         string
	Type         FieldType
	Required     bool
	IsFilter     bool
	String       *StringAttrs
	Number       *NumberAttrs
	Select       *SelectAttrs
	Relation     *RelationAttrs
	Dependencies []Dependency
}

// Schema: упорядоченный набор полей; порядок = порядок отображения
type Schema struct {
	Fields []FieldDefinition
}

func (s Schema) Len() int { return len(s.Fields) }

func (s Schema) index(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Field возвращает определение по имени.
func (s Schema) Field(name string) (FieldDefinition, bool) {
	if i := s.index(name); i >= 0 {
		return s.Fields[i], true
	}
	return FieldDefinition{}, false
}

func (s Schema) Names() []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, f.Name)
	}
	return out
}

// Clone: глубокая копия, чтобы билдер не делил срезы с вызывающим
func (s Schema) Clone() Schema {
	out := Schema{Fields: make([]FieldDefinition, 0, len(s.Fields))}
	for _, f := range s.Fields {
		out.Fields = append(out.Fields, f.clone())
	}
	return out
}

func (f FieldDefinition) clone() FieldDefinition {
	c := f
	if f.String != nil {
		v := *f.String
		v.MinLength = cloneInt(f.String.MinLength)
		v.MaxLength = cloneInt(f.String.MaxLength)
		c.String = &v
	}
	if f.Number != nil {
		v := *f.Number
		v.MinArrayLength = cloneInt(f.Number.MinArrayLength)
		v.MaxArrayLength = cloneInt(f.Number.MaxArrayLength)
		v.Min = cloneFloat(f.Number.Min)
		v.Max = cloneFloat(f.Number.Max)
		c.Number = &v
	}
	if f.Select != nil {
		c.Select = &SelectAttrs{Options: append([]Option(nil), f.Select.Options...)}
	}
	if f.Relation != nil {
		v := *f.Relation
		c.Relation = &v
	}
	c.Dependencies = append([]Dependency(nil), f.Dependencies...)
	return c
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// NewField возвращает поле с атрибутами по умолчанию для типа t.
func NewField(name string, t FieldType) FieldDefinition {
	f := FieldDefinition{Name: name, Type: t}
	f.resetAttrs()
	return f
}

// resetAttrs выбрасывает все типо-зависимые атрибуты и ставит дефолты нового типа
func (f *FieldDefinition) resetAttrs() {
	f.String, f.Number, f.Select, f.Relation = nil, nil, nil, nil
	switch f.Type {
	case TypeString:
		f.String = &StringAttrs{TextKind: TextShort}
	case TypeNumber:
		f.Number = &NumberAttrs{}
	case TypeSelect:
		f.Select = &SelectAttrs{}
	case TypeRelation:
		f.Relation = &RelationAttrs{EntityKind: EntityMedia, Cardinality: OneToOne}
	}
}

// Active: все зависимости удовлетворены текущими значениями формы
func (f FieldDefinition) Active(values map[string]any) bool {
	for _, d := range f.Dependencies {
		got, ok := values[d.Field]
		if !ok || got == nil {
			return false
		}
		s := scalarString(got)
		matched := false
		for _, want := range d.Values() {
			if s == want {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
