package formschema

import (
	"fmt"
	"strconv"
	"strings"
)

const unlimited = "không giới hạn"

var textKindLabels = map[TextKind]string{
	TextShort:    "Văn bản ngắn",
	TextLong:     "Văn bản dài",
	TextEmail:    "Email",
	TextURL:      "Đường dẫn (URL)",
	TextDatetime: "Ngày giờ",
	TextDate:     "Ngày",
	TextTime:     "Giờ",
	TextColor:    "Màu sắc",
	TextRich:     "Văn bản định dạng",
}

var typeLabels = map[FieldType]string{
	TypeString:   "Chuỗi",
	TypeNumber:   "Số",
	TypeBoolean:  "Đạt/Không đạt",
	TypeSelect:   "Lựa chọn",
	TypeRelation: "Liên kết",
}

// BooleanSentence: у определения нет собственного значения, поэтому для boolean
// показываем смысл поля, а не значение.
const BooleanSentence = "Học viên được đánh giá Đạt hoặc Không đạt ở tiêu chí này"

// TypeLabel: подпись типа для интерфейса.
func TypeLabel(t FieldType) string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return string(t)
}

// Summary: человекочитаемое описание определения поля.
func Summary(f FieldDefinition) string {
	switch f.Type {
	case TypeString:
		kind := TextShort
		if f.String != nil && f.String.TextKind != "" {
			kind = f.String.TextKind
		}
		label, ok := textKindLabels[kind]
		if !ok {
			label = string(kind)
		}
		s := "Kiểu nhập: " + label
		if f.String != nil && (f.String.MinLength != nil || f.String.MaxLength != nil) {
			s += ", độ dài " + bounds(intBound(f.String.MinLength), intBound(f.String.MaxLength))
		}
		return s
	case TypeNumber:
		var a NumberAttrs
		if f.Number != nil {
			a = *f.Number
		}
		s := "Giá trị " + bounds(floatBound(a.Min), floatBound(a.Max))
		if a.IsArray {
			kind := "danh sách số"
			if a.NumberKind == NumberCoordinates {
				kind = "tọa độ"
			}
			s += fmt.Sprintf(", %s, số phần tử %s", kind, bounds(intBound(a.MinArrayLength), intBound(a.MaxArrayLength)))
		}
		return s
	case TypeBoolean:
		return BooleanSentence
	case TypeSelect:
		if f.Select == nil {
			return "0 lựa chọn"
		}
		return fmt.Sprintf("%d lựa chọn", len(f.Select.Options))
	case TypeRelation:
		if f.Relation == nil {
			return "Liên kết"
		}
		return fmt.Sprintf("Liên kết tới %s (%s)", f.Relation.EntityKind, f.Relation.Cardinality)
	default:
		return string(f.Type)
	}
}

// OptionLines: развёрнутый список опций select (показывается по запросу).
func OptionLines(f FieldDefinition) []string {
	if f.Select == nil {
		return nil
	}
	out := make([]string, 0, len(f.Select.Options))
	for _, o := range f.Select.Options {
		out = append(out, fmt.Sprintf("%s (%s)", o.Label, o.Value))
	}
	return out
}

// Describe: краткий список критериев схемы: "name (Тип)".
func Describe(s Schema) string {
	if len(s.Fields) == 0 {
		return "0 tiêu chí"
	}
	parts := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Name, TypeLabel(f.Type)))
	}
	return fmt.Sprintf("%d tiêu chí: %s", len(s.Fields), strings.Join(parts, ", "))
}

func bounds(min, max string) string {
	return "[" + min + ", " + max + "]"
}

func intBound(p *int) string {
	if p == nil {
		return unlimited
	}
	return strconv.Itoa(*p)
}

func floatBound(p *float64) string {
	if p == nil {
		return unlimited
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
