package formschema

import "fmt"

type Issue struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	IssueFieldDuplicate      = "field_duplicate"
	IssueDependencyUnknown   = "dependency_unknown"
	IssueDependencySelf      = "dependency_self"
	IssueDependencyDuplicate = "dependency_duplicate"
	IssueBoundsInverted      = "bounds_inverted"
	IssueSelectEmpty         = "select_empty"
	IssueRelationUnknown     = "relation_unknown"
)

// Lint проверяет противоречия в схеме. Зависимости на удалённые поля: висячие
// ссылки из старых записей; такие схемы хранилище не принимает.
func Lint(s Schema) []Issue {
	var issues []Issue
	names := map[string]int{}
	for _, f := range s.Fields {
		names[f.Name]++
	}

	for _, f := range s.Fields {
		if names[f.Name] > 1 {
			issues = append(issues, Issue{f.Name, IssueFieldDuplicate, "field name is used more than once"})
			names[f.Name] = 1 // одна запись на имя
		}

		seenDep := map[string]bool{}
		for _, d := range f.Dependencies {
			switch {
			case d.Field == f.Name:
				issues = append(issues, Issue{f.Name, IssueDependencySelf, "field depends on itself"})
			case names[d.Field] == 0:
				issues = append(issues, Issue{f.Name, IssueDependencyUnknown,
					fmt.Sprintf("dependency references unknown field %q", d.Field)})
			}
			if seenDep[d.Field] {
				issues = append(issues, Issue{f.Name, IssueDependencyDuplicate,
					fmt.Sprintf("more than one dependency on %q", d.Field)})
			}
			seenDep[d.Field] = true
		}

		switch f.Type {
		case TypeString:
			if a := f.String; a != nil && a.MinLength != nil && a.MaxLength != nil && *a.MinLength > *a.MaxLength {
				issues = append(issues, Issue{f.Name, IssueBoundsInverted, "min_length is greater than max_length"})
			}
		case TypeNumber:
			if a := f.Number; a != nil {
				if a.Min != nil && a.Max != nil && *a.Min > *a.Max {
					issues = append(issues, Issue{f.Name, IssueBoundsInverted, "min is greater than max"})
				}
				if a.MinArrayLength != nil && a.MaxArrayLength != nil && *a.MinArrayLength > *a.MaxArrayLength {
					issues = append(issues, Issue{f.Name, IssueBoundsInverted, "min_array_length is greater than max_array_length"})
				}
			}
		case TypeSelect:
			if f.Select == nil || len(f.Select.Options) == 0 {
				issues = append(issues, Issue{f.Name, IssueSelectEmpty, "select field has no options"})
			}
		case TypeRelation:
			if a := f.Relation; a == nil || a.EntityKind != EntityMedia {
				issues = append(issues, Issue{f.Name, IssueRelationUnknown, "relation target must be media"})
			} else if a.Cardinality != OneToOne && a.Cardinality != OneToMany && a.Cardinality != ManyToMany {
				issues = append(issues, Issue{f.Name, IssueRelationUnknown,
					fmt.Sprintf("unknown relation cardinality %q", a.Cardinality)})
			}
		}
	}
	return issues
}

// Blocking: с такой проблемой схему сохранять нельзя; остальное: предупреждения
// (например, select без опций между двумя шагами редактирования).
func (i Issue) Blocking() bool {
	switch i.Code {
	case IssueFieldDuplicate, IssueDependencyUnknown, IssueDependencySelf, IssueDependencyDuplicate:
		return true
	}
	return false
}

func BlockingIssues(issues []Issue) []Issue {
	var out []Issue
	for _, it := range issues {
		if it.Blocking() {
			out = append(out, it)
		}
	}
	return out
}
