package formschema

import (
	"fmt"
	"strings"
)

// Option: пара (подпись, значение) для поля select
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DecodeOptions разбирает "label:value,label:value". Значение отделяется по
// последнему двоеточию, так что в подписи двоеточие допустимо.
func DecodeOptions(s string) []Option {
	var out []Option
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		i := strings.LastIndexByte(entry, ':')
		if i < 0 {
			out = append(out, Option{Label: entry, Value: entry})
			continue
		}
		out = append(out, Option{
			Label: strings.TrimSpace(entry[:i]),
			Value: strings.TrimSpace(entry[i+1:]),
		})
	}
	return out
}

// EncodeOptions: обратная операция; отказывает, если разделители попали в данные.
func EncodeOptions(opts []Option) (string, error) {
	parts := make([]string, 0, len(opts))
	for i, o := range opts {
		if err := checkOption(o); err != nil {
			return "", fmt.Errorf("option %d: %w", i, err)
		}
		parts = append(parts, o.Label+":"+o.Value)
	}
	return strings.Join(parts, ","), nil
}

func checkOption(o Option) error {
	if strings.ContainsRune(o.Label, ',') || strings.ContainsAny(o.Value, ",:") {
		return ErrOptionDelimiter
	}
	if strings.TrimSpace(o.Value) == "" {
		return ErrOptionDelimiter
	}
	// DecodeOptions обрезает пробелы, поэтому края должны быть чистыми
	if o.Label != strings.TrimSpace(o.Label) || o.Value != strings.TrimSpace(o.Value) {
		return ErrOptionDelimiter
	}
	return nil
}

// mustEncode используется при сериализации уже проверенной схемы
func mustEncode(opts []Option) string {
	parts := make([]string, 0, len(opts))
	for _, o := range opts {
		parts = append(parts, o.Label+":"+o.Value)
	}
	return strings.Join(parts, ",")
}

// HasValue проверяет, что v: одно из значений опций.
func (a SelectAttrs) HasValue(v string) bool {
	for _, o := range a.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}
