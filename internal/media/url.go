package media

import "strings"

// Placeholder: картинка-заглушка, когда у записи нет пригодного пути.
const Placeholder = "/placeholder.svg"

// ResolveURL достаёт первый непустой URL из всех форм, в которых бэкенд
// исторически отдавал путь к медиа: строка, массив строк, {path}, [{path}],
// path-массив внутри объекта, {url}. Пусто: fallback, а если и он пуст, Placeholder.
func ResolveURL(v any, fallback string) string {
	if u, ok := first(v, 0); ok {
		return u
	}
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return Placeholder
}

// глубина ограничена, чтобы кривые данные не увели в бесконечность
const maxDepth = 4

func first(v any, depth int) (string, bool) {
	if depth > maxDepth {
		return "", false
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				return s, true
			}
		}
	case []any:
		for _, it := range t {
			if u, ok := first(it, depth+1); ok {
				return u, true
			}
		}
	case map[string]any:
		for _, k := range []string{"path", "url", "src"} {
			if u, ok := first(t[k], depth+1); ok {
				return u, true
			}
		}
	}
	return "", false
}
