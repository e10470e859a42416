package formschema

import "errors"

var (
	ErrEmptyFieldName      = errors.New("field name is empty")
	ErrDuplicateField      = errors.New("field already exists")
	ErrFieldNotFound       = errors.New("field not found")
	ErrUnknownFieldType    = errors.New("unknown field type")
	ErrInvalidDependency   = errors.New("dependency field and value are required")
	ErrSelfDependency      = errors.New("field cannot depend on itself")
	ErrDuplicateDependency = errors.New("dependency on this field already exists")
	ErrDependencyIndex     = errors.New("dependency index out of range")
	ErrOptionDelimiter     = errors.New("option label/value contains a delimiter or is empty")
)

// FieldError: ошибка конкретного поля формы (тот же формат, что и в API)
type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Коды ошибок валидации значений
const (
	CodeRequired     = "required"
	CodeTypeMismatch = "type_mismatch"
	CodeOutOfRange   = "out_of_range"
	CodeInvalid      = "invalid"
	CodeOptionNotIn  = "option_invalid"
)

func ferr(code, field, msg string) FieldError {
	return FieldError{Code: code, Field: field, Message: msg}
}
