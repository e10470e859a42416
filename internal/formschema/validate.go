package formschema

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Validator проверяет заполненную форму оценки против схемы.
type Validator struct {
	validate *validator.Validate
	tr       ut.Translator
}

// NewValidator: tr может быть nil, тогда сообщения будут английские.
func NewValidator(v *validator.Validate, tr ut.Translator) *Validator {
	if v == nil {
		v = validator.New()
	}
	return &Validator{validate: v, tr: tr}
}

// теги validator для строковых видов ввода
var textKindTags = map[TextKind]string{
	TextEmail: "email",
	TextURL:   "url",
	TextColor: "hexcolor",
	TextDate:  "datetime=2006-01-02",
	TextTime:  "datetime=15:04",
}

var datetimeLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04"}

// Validate возвращает ошибки по полям. Неактивные поля (зависимости не выполнены)
// не проверяются вовсе; неизвестные ключи игнорируются.
func (v *Validator) Validate(s Schema, values map[string]any) []FieldError {
	var errs []FieldError
	for _, f := range s.Fields {
		if !f.Active(values) {
			continue
		}
		val, present := values[f.Name]
		if !present || isEmpty(val) {
			if f.Required {
				errs = append(errs, ferr(CodeRequired, f.Name, v.required(f.Name)))
			}
			continue
		}
		if fe := v.checkField(f, val); fe != nil {
			errs = append(errs, *fe)
		}
	}
	return errs
}

func (v *Validator) checkField(f FieldDefinition, val any) *FieldError {
	switch f.Type {
	case TypeString:
		return v.checkString(f, val)
	case TypeNumber:
		return v.checkNumber(f, val)
	case TypeBoolean:
		if _, err := toBool(val); err != nil {
			return v.mismatch(f.Name, "Đạt/Không đạt")
		}
	case TypeSelect:
		s := scalarString(val)
		if f.Select == nil || !f.Select.HasValue(s) {
			fe := ferr(CodeOptionNotIn, f.Name, fmt.Sprintf("%s: giá trị %q không nằm trong danh sách lựa chọn", f.Name, s))
			return &fe
		}
	case TypeRelation:
		return v.checkRelation(f, val)
	}
	return nil
}

func (v *Validator) checkString(f FieldDefinition, val any) *FieldError {
	s, ok := val.(string)
	if !ok {
		return v.mismatch(f.Name, "chuỗi")
	}
	a := StringAttrs{TextKind: TextShort}
	if f.String != nil {
		a = *f.String
	}
	var tags []string
	if t, ok := textKindTags[a.TextKind]; ok {
		tags = append(tags, t)
	}
	if a.MinLength != nil {
		tags = append(tags, "min="+strconv.Itoa(*a.MinLength))
	}
	if a.MaxLength != nil {
		tags = append(tags, "max="+strconv.Itoa(*a.MaxLength))
	}
	if a.TextKind == TextDatetime && !parsesAny(s, datetimeLayouts) {
		fe := ferr(CodeInvalid, f.Name, f.Name+" không phải ngày giờ hợp lệ")
		return &fe
	}
	if len(tags) == 0 {
		return nil
	}
	return v.varCheck(f.Name, s, strings.Join(tags, ","))
}

func (v *Validator) checkNumber(f FieldDefinition, val any) *FieldError {
	a := NumberAttrs{}
	if f.Number != nil {
		a = *f.Number
	}
	if !a.IsArray {
		n, err := toFloat(val)
		if err != nil {
			return v.mismatch(f.Name, "số")
		}
		return v.checkBounds(f.Name, n, a)
	}

	arr, ok := val.([]any)
	if !ok {
		return v.mismatch(f.Name, "danh sách số")
	}
	var lenTags []string
	if a.NumberKind == NumberCoordinates {
		lenTags = append(lenTags, "len=2")
	} else {
		if a.MinArrayLength != nil {
			lenTags = append(lenTags, "min="+strconv.Itoa(*a.MinArrayLength))
		}
		if a.MaxArrayLength != nil {
			lenTags = append(lenTags, "max="+strconv.Itoa(*a.MaxArrayLength))
		}
	}
	if len(lenTags) > 0 {
		if fe := v.varCheck(f.Name, arr, strings.Join(lenTags, ",")); fe != nil {
			return fe
		}
	}
	for i, it := range arr {
		n, err := toFloat(it)
		if err != nil {
			return v.mismatch(fmt.Sprintf("%s[%d]", f.Name, i), "số")
		}
		if a.NumberKind == NumberCoordinates {
			tag := "latitude"
			if i == 1 {
				tag = "longitude"
			}
			if fe := v.varCheck(f.Name, n, tag); fe != nil {
				return fe
			}
			continue
		}
		if fe := v.checkBounds(fmt.Sprintf("%s[%d]", f.Name, i), n, a); fe != nil {
			return fe
		}
	}
	return nil
}

func (v *Validator) checkBounds(name string, n float64, a NumberAttrs) *FieldError {
	var tags []string
	if a.Min != nil {
		tags = append(tags, "gte="+strconv.FormatFloat(*a.Min, 'f', -1, 64))
	}
	if a.Max != nil {
		tags = append(tags, "lte="+strconv.FormatFloat(*a.Max, 'f', -1, 64))
	}
	if len(tags) == 0 {
		return nil
	}
	fe := v.varCheck(name, n, strings.Join(tags, ","))
	if fe != nil {
		fe.Code = CodeOutOfRange
	}
	return fe
}

// checkRelation: id медиа это ObjectID бэкенда; 1-1 даёт одно значение, иначе массив
func (v *Validator) checkRelation(f FieldDefinition, val any) *FieldError {
	card := OneToOne
	if f.Relation != nil {
		card = f.Relation.Cardinality
	}
	ids := []any{val}
	if card != OneToOne {
		arr, ok := val.([]any)
		if !ok {
			return v.mismatch(f.Name, "danh sách mã")
		}
		ids = arr
	}
	for _, it := range ids {
		s, ok := it.(string)
		if !ok {
			return v.mismatch(f.Name, "mã")
		}
		if _, err := bson.ObjectIDFromHex(s); err != nil {
			fe := ferr(CodeInvalid, f.Name, fmt.Sprintf("%s: mã %q không hợp lệ", f.Name, s))
			return &fe
		}
	}
	return nil
}

func (v *Validator) varCheck(name string, val any, tag string) *FieldError {
	err := v.validate.Var(val, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	msg := err.Error()
	if errors.As(err, &verrs) && len(verrs) > 0 {
		msg = v.translate(name, verrs[0])
	}
	fe := ferr(CodeInvalid, name, msg)
	return &fe
}

func (v *Validator) translate(name string, fe validator.FieldError) string {
	if v.tr == nil {
		return name + ": failed on '" + fe.Tag() + "'"
	}
	// у Var нет имени поля: подставляем своё
	return strings.TrimSpace(name + " " + strings.TrimSpace(fe.Translate(v.tr)))
}

func (v *Validator) required(name string) string {
	if v.tr != nil {
		if s, err := v.tr.T("required", name); err == nil {
			return s
		}
	}
	return name + " is required"
}

func (v *Validator) mismatch(name, want string) *FieldError {
	fe := ferr(CodeTypeMismatch, name, fmt.Sprintf("%s phải là %s", name, want))
	return &fe
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Map {
		return rv.Len() == 0
	}
	return false
}

func parsesAny(s string, layouts []string) bool {
	for _, l := range layouts {
		if _, err := time.Parse(l, s); err == nil {
			return true
		}
	}
	return false
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, errors.New("must be number")
	}
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(t))
	default:
		return false, errors.New("must be boolean")
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(v)
	}
}
