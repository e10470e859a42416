package i18n

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/locales/vi"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	vi_translations "github.com/go-playground/validator/v10/translations/vi"
	"go.mongodb.org/mongo-driver/v2/bson"

	"swimlms/internal/backend"
	"swimlms/internal/calendar"
	"swimlms/internal/formschema"
	"swimlms/internal/store"
)

const objectIDTag = "objectid"

// Bundle: валидатор и переводчик, настроенные на вьетнамский.
type Bundle struct {
	Validate   *validator.Validate
	Translator ut.Translator
}

func New() *Bundle {
	locale := vi.New()
	uni := ut.New(locale, locale)
	tr, _ := uni.GetTranslator(locale.Locale())

	v := validator.New()
	_ = vi_translations.RegisterDefaultTranslations(v, tr)

	// в ошибках: имена из json-тегов, а не Go-поля
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(objectIDTag, func(fl validator.FieldLevel) bool {
		_, err := bson.ObjectIDFromHex(fl.Field().String())
		return err == nil
	})
	registerCustomTranslation(v, tr, objectIDTag, "{0} không phải là mã hợp lệ")

	for _, m := range append(append([]message{}, preconditions...), operations...) {
		_ = tr.Add(m.key, m.text, false)
	}
	_ = tr.Add(keyGeneric, textGeneric, false)
	_ = tr.Add(keyLint, "Biểu mẫu có {0} lỗi cần sửa trước khi lưu", false)

	return &Bundle{Validate: v, Translator: tr}
}

func registerCustomTranslation(v *validator.Validate, tr ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, tr,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

const (
	keyGeneric  = "err.generic"
	keyLint     = "err.lint"
	textGeneric = "Đã xảy ra lỗi, vui lòng thử lại"
)

type message struct {
	err  error
	key  string
	text string
}

// предусловия: проверяются раньше ответа бэкенда
var preconditions = []message{
	{backend.ErrNoTenant, "err.no_tenant", "Vui lòng chọn chi nhánh trước khi thao tác"},
	{backend.ErrNoToken, "err.no_token", "Vui lòng đăng nhập lại"},
	{backend.ErrTokenExpired, "err.token_expired", "Phiên đăng nhập đã hết hạn, vui lòng đăng nhập lại"},
	{calendar.ErrPoolRequired, "err.pool_required", "Vui lòng chọn hồ bơi"},
	{calendar.ErrDateRequired, "err.date_required", "Vui lòng chọn ngày hợp lệ"},
	{calendar.ErrSlotRequired, "err.slot_required", "Vui lòng chọn ca học"},
	{calendar.ErrInvalidSlotID, "err.slot_invalid", "Ca học không hợp lệ"},
}

var operations = []message{
	{store.ErrNotFound, "err.schema_not_found", "Không tìm thấy biểu mẫu"},
	{formschema.ErrEmptyFieldName, "err.field_name_empty", "Tên trường không được để trống"},
	{formschema.ErrDuplicateField, "err.field_duplicate", "Tên trường đã tồn tại"},
	{formschema.ErrFieldNotFound, "err.field_not_found", "Không tìm thấy trường"},
	{formschema.ErrUnknownFieldType, "err.field_type", "Loại trường không hợp lệ"},
	{formschema.ErrInvalidDependency, "err.dep_invalid", "Vui lòng chọn trường và giá trị phụ thuộc"},
	{formschema.ErrSelfDependency, "err.dep_self", "Trường không thể phụ thuộc vào chính nó"},
	{formschema.ErrDuplicateDependency, "err.dep_duplicate", "Đã có điều kiện phụ thuộc vào trường này"},
	{formschema.ErrDependencyIndex, "err.dep_index", "Không tìm thấy điều kiện phụ thuộc"},
	{formschema.ErrOptionDelimiter, "err.option_delimiter", "Nhãn và giá trị lựa chọn không được trống hoặc chứa ký tự phân cách"},
	{calendar.ErrLoadFailed, "err.load_failed", "Không tải được lịch học"},
	{calendar.ErrAddFailed, "err.add_failed", "Không thể thêm lớp vào lịch"},
	{calendar.ErrDeleteFailed, "err.delete_failed", "Không thể xoá lịch học"},
}

// Localize: текст для toast. Сообщение бэкенда важнее общей формулировки операции.
func (b *Bundle) Localize(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range preconditions {
		if errors.Is(err, m.err) {
			return b.t(m.key)
		}
	}
	var lintErr *store.LintError
	if errors.As(err, &lintErr) {
		s, terr := b.Translator.T(keyLint, strconv.Itoa(len(lintErr.Issues)))
		if terr == nil {
			return s
		}
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	for _, m := range operations {
		if errors.Is(err, m.err) {
			return b.t(m.key)
		}
	}
	return b.t(keyGeneric)
}

func (b *Bundle) t(key string) string {
	s, err := b.Translator.T(key)
	if err != nil {
		return textGeneric
	}
	return s
}

// FieldErrors переводит ошибки validator.Struct в ошибки полей формы.
func (b *Bundle) FieldErrors(err error) []formschema.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]formschema.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		code := formschema.CodeInvalid
		switch fe.Tag() {
		case "required", "required_if", "required_with":
			code = formschema.CodeRequired
		case "min", "max", "gte", "lte", "gt", "lt", "len":
			code = formschema.CodeOutOfRange
		case "oneof":
			code = formschema.CodeOptionNotIn
		}
		out = append(out, formschema.FieldError{Code: code, Field: fe.Field(), Message: fe.Translate(b.Translator)})
	}
	return out
}

