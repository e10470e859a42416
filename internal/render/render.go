package render

import (
	"encoding/json"
	"fmt"
	"html"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"swimlms/internal/formschema"
	"swimlms/internal/media"
)

const (
	Empty       = "(trống)"
	textBudget  = 200
	htmlBudget  = 100
	yes, no     = "Có", "Không"
	dateLayout  = "02/01/2006"
	stampLayout = "02/01/2006 15:04"
)

// VND нет среди предопределённых единиц x/text
var vnd = currency.MustParseISO("VND")

// Renderer форматирует значения для людей. Локаль и валюта фиксированы: vi / VND.
type Renderer struct {
	printer *message.Printer
	loc     *time.Location
	scale   int
}

// New: loc задаёт часовой пояс показа дат; nil означает время Вьетнама (UTC+7).
func New(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.FixedZone("ICT", 7*60*60)
	}
	scale, _ := currency.Cash.Rounding(vnd)
	return &Renderer{
		printer: message.NewPrinter(language.Vietnamese),
		loc:     loc,
		scale:   scale,
	}
}

// Render никогда не показывает сырые сериализованные данные, кроме kind=json.
func (r *Renderer) Render(v any, k Kind) string {
	if isNil(v) {
		return Empty
	}
	switch k {
	case KindText:
		if ak := autoKind(v); ak == KindArray || ak == KindJSON {
			return r.Render(v, ak)
		}
		return truncate(toText(v), textBudget, func(n int) string { return fmt.Sprintf(" (+%d ký tự)", n) })
	case KindNumber:
		if f, ok := toNumber(v); ok {
			return r.printer.Sprint(number.Decimal(f))
		}
		return r.Render(v, KindText)
	case KindCurrency:
		if f, ok := toNumber(v); ok {
			return r.printer.Sprint(number.Decimal(f, number.Scale(r.scale))) + " ₫"
		}
		return r.Render(v, KindText)
	case KindBoolean:
		if b, ok := v.(bool); ok {
			if b {
				return yes
			}
			return no
		}
		return r.Render(v, KindText)
	case KindDate, KindDatetime:
		t, ok := toTime(v)
		if !ok {
			return r.Render(v, KindText)
		}
		if k == KindDate {
			return t.In(r.loc).Format(dateLayout)
		}
		return t.In(r.loc).Format(stampLayout)
	case KindArray:
		items, ok := toSlice(v)
		if !ok {
			return r.Render(v, KindAuto)
		}
		if len(items) == 0 {
			return Empty
		}
		parts := make([]string, 0, len(items))
		for _, it := range items {
			parts = append(parts, r.Render(it, KindAuto))
		}
		return strings.Join(parts, ", ")
	case KindReference:
		return r.reference(v)
	case KindImage:
		return media.ResolveURL(v, "")
	case KindHTML:
		return truncate(stripTags(toText(v)), htmlBudget, func(int) string { return "..." })
	case KindCourseDetail:
		return r.courseDetail(v)
	case KindFormJudge:
		return formschema.Describe(formschema.NormalizeValue(v))
	case KindJSON:
		b, err := json.Marshal(v)
		if err != nil {
			return toText(v)
		}
		return string(b)
	default:
		return r.Render(v, autoKind(v))
	}
}

// autoKind смотрит на рантайм-форму значения
func autoKind(v any) Kind {
	switch v.(type) {
	case bool:
		return KindBoolean
	case float64, float32, int, int32, int64, uint, uint32, uint64, json.Number:
		return KindNumber
	case time.Time:
		return KindDatetime
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return KindArray
	case reflect.Map, reflect.Struct:
		return KindJSON
	}
	return KindText
}

var referenceKeys = []string{"title", "name", "username", "email", "_id", "id"}

func (r *Renderer) reference(v any) string {
	switch t := v.(type) {
	case map[string]any:
		for _, k := range referenceKeys {
			if s := strings.TrimSpace(toText(t[k])); s != "" {
				return s
			}
		}
		return Empty
	case []any:
		if len(t) == 0 {
			return Empty
		}
		parts := make([]string, 0, len(t))
		for _, it := range t {
			parts = append(parts, r.reference(it))
		}
		return strings.Join(parts, ", ")
	}
	return toText(v)
}

// courseDetail: список разделов курса (заголовки и число критериев форм оценки)
func (r *Renderer) courseDetail(v any) string {
	items, ok := toSlice(v)
	if !ok {
		if m, isMap := v.(map[string]any); isMap {
			items, ok = toSlice(m["items"])
		}
	}
	if !ok || len(items) == 0 {
		return Empty
	}
	parts := make([]string, 0, len(items))
	for i, it := range items {
		m, _ := it.(map[string]any)
		title := strings.TrimSpace(toText(m["title"]))
		if m == nil || title == "" {
			title = fmt.Sprintf("Mục %d", i+1)
		}
		if m != nil && m["form_judge"] != nil {
			title += " [" + formschema.Describe(formschema.NormalizeValue(m["form_judge"])) + "]"
		}
		parts = append(parts, title)
	}
	return fmt.Sprintf("%d mục: %s", len(items), strings.Join(parts, "; "))
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func toText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

func toNumber(v any) (float64, bool) {
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
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02"}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		for _, l := range timeLayouts {
			if ts, err := time.Parse(l, s); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

func toSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

var (
	tagRe   = regexp.MustCompile(`<[^>]*>`)
	spaceRe = regexp.MustCompile(`\s+`)
)

func stripTags(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// truncate режет по рунам, а не по байтам: вьетнамский текст почти весь многобайтный
func truncate(s string, budget int, suffix func(rest int) string) string {
	n := utf8.RuneCountInString(s)
	if n <= budget {
		return s
	}
	runes := []rune(s)
	return string(runes[:budget]) + suffix(n-budget)
}
