package formschema

import (
	"fmt"
	"strings"
)

// Builder: изменяемая схема под управлением оператора. Недопустимые состояния
// (дубли имён, зависимость от самого себя) в схему не попадают.
type Builder struct {
	schema   Schema
	expanded map[string]bool
}

func NewBuilder(s Schema) *Builder {
	return &Builder{schema: s.Clone(), expanded: map[string]bool{}}
}

// Schema возвращает копию текущего состояния.
func (b *Builder) Schema() Schema { return b.schema.Clone() }

// AddField добавляет поле string/short. Пустое имя или дубль: no-op с ошибкой-предупреждением.
func (b *Builder) AddField(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyFieldName
	}
	if b.schema.index(name) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateField, name)
	}
	b.schema.Fields = append(b.schema.Fields, NewField(name, TypeString))
	b.expanded[name] = true
	return nil
}

// RemoveField удаляет поле и каскадно чистит зависимости других полей, ссылающиеся на него.
func (b *Builder) RemoveField(name string) {
	i := b.schema.index(name)
	if i < 0 {
		return
	}
	b.schema.Fields = append(b.schema.Fields[:i], b.schema.Fields[i+1:]...)
	delete(b.expanded, name)

	for j := range b.schema.Fields {
		deps := b.schema.Fields[j].Dependencies
		kept := deps[:0]
		for _, d := range deps {
			if d.Field != name {
				kept = append(kept, d)
			}
		}
		b.schema.Fields[j].Dependencies = kept
	}
}

// UpdateField: полная замена определения. Ссылки в зависимостях не проверяются (это делает Lint).
func (b *Builder) UpdateField(name string, def FieldDefinition) error {
	i := b.schema.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, name)
	}
	if !def.Type.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownFieldType, def.Type)
	}
	def = def.clone()
	def.Name = name
	// атрибуты чужого типа не храним
	keep := def
	def.resetAttrs()
	switch def.Type {
	case TypeString:
		if keep.String != nil {
			def.String = keep.String
		}
	case TypeNumber:
		if keep.Number != nil {
			def.Number = keep.Number
		}
	case TypeSelect:
		if keep.Select != nil {
			def.Select = keep.Select
		}
	case TypeRelation:
		if keep.Relation != nil {
			def.Relation = keep.Relation
		}
	}
	b.schema.Fields[i] = def
	return nil
}

// ChangeFieldType сбрасывает типо-зависимые атрибуты к дефолтам нового типа.
// Required, IsFilter и зависимости сохраняются. Отмены нет.
func (b *Builder) ChangeFieldType(name string, t FieldType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownFieldType, t)
	}
	i := b.schema.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, name)
	}
	f := &b.schema.Fields[i]
	f.Type = t
	f.resetAttrs()
	return nil
}

func (b *Builder) AddDependency(field, dependsOn, value string) error {
	i := b.schema.index(field)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, field)
	}
	dependsOn = strings.TrimSpace(dependsOn)
	if dependsOn == "" || strings.TrimSpace(value) == "" {
		return ErrInvalidDependency
	}
	if dependsOn == field {
		return ErrSelfDependency
	}
	for _, d := range b.schema.Fields[i].Dependencies {
		if d.Field == dependsOn {
			return fmt.Errorf("%w: %s", ErrDuplicateDependency, dependsOn)
		}
	}
	b.schema.Fields[i].Dependencies = append(b.schema.Fields[i].Dependencies, Dependency{Field: dependsOn, Value: value})
	return nil
}

func (b *Builder) RemoveDependency(field string, index int) error {
	i := b.schema.index(field)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, field)
	}
	deps := b.schema.Fields[i].Dependencies
	if index < 0 || index >= len(deps) {
		return ErrDependencyIndex
	}
	b.schema.Fields[i].Dependencies = append(deps[:index], deps[index+1:]...)
	return nil
}

// DependencyPatch: частичное обновление; nil означает "не менять"
type DependencyPatch struct {
	Field *string `json:"field"`
	Value *string `json:"value"`
}

func (b *Builder) UpdateDependency(field string, index int, patch DependencyPatch) error {
	i := b.schema.index(field)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, field)
	}
	deps := b.schema.Fields[i].Dependencies
	if index < 0 || index >= len(deps) {
		return ErrDependencyIndex
	}
	next := deps[index]
	if patch.Field != nil {
		next.Field = strings.TrimSpace(*patch.Field)
	}
	if patch.Value != nil {
		next.Value = *patch.Value
	}
	if next.Field == "" || strings.TrimSpace(next.Value) == "" {
		return ErrInvalidDependency
	}
	if next.Field == field {
		return ErrSelfDependency
	}
	for j, d := range deps {
		if j != index && d.Field == next.Field {
			return fmt.Errorf("%w: %s", ErrDuplicateDependency, next.Field)
		}
	}
	deps[index] = next
	return nil
}

// ToggleExpanded: чисто UI-флаг развёрнутости поля.
func (b *Builder) ToggleExpanded(name string) {
	if b.schema.index(name) < 0 {
		return
	}
	b.expanded[name] = !b.expanded[name]
}

func (b *Builder) Expanded(name string) bool { return b.expanded[name] }
