package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// APIError: неуспешный ответ бэкенда. Fields: ошибки, привязанные к полям
// (ключ = имя поля в ответе), Details: сообщения без поля.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
	Details []string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && len(e.Details) > 0 {
		msg = strings.Join(e.Details, "; ")
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("backend: %d %s", e.Status, msg)
}

func (e *APIError) NotFound() bool { return e.Status == http.StatusNotFound }

// MatchFields раскладывает ошибку по известным полям формы. Всё, что не
// удалось привязать, собирается в одно общее сообщение.
func (e *APIError) MatchFields(known []string) (map[string]string, string) {
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[k] = true
	}
	matched := map[string]string{}
	var rest []string

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if set[k] {
			matched[k] = e.Fields[k]
		} else {
			rest = append(rest, k+": "+e.Fields[k])
		}
	}
	for _, d := range e.Details {
		// "title must not be empty": первое слово может оказаться полем
		if first, _, ok := strings.Cut(d, " "); ok && set[first] {
			if _, dup := matched[first]; !dup {
				matched[first] = d
				continue
			}
		}
		rest = append(rest, d)
	}

	generic := e.Message
	if len(rest) > 0 {
		if generic != "" {
			generic += ": "
		}
		generic += strings.Join(rest, "; ")
	}
	if generic == "" && len(matched) == 0 {
		generic = http.StatusText(e.Status)
	}
	return matched, generic
}

// parseAPIError понимает три формы ответа:
//
//	{"message": "...", "errors": {"field": "msg" | ["msg", ...]}}
//	{"errors": [{"field": "...", "message": "..."}]}
//	{"message": ["field: msg", "..."]}
func parseAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status, Fields: map[string]string{}}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		if s := strings.TrimSpace(string(body)); s != "" && len(s) < 300 {
			e.Message = s
		}
		return e
	}
	if m, ok := raw["message"]; ok {
		var s string
		var list []string
		switch {
		case json.Unmarshal(m, &s) == nil:
			e.Message = s
		case json.Unmarshal(m, &list) == nil:
			for _, it := range list {
				if f, msg, ok := strings.Cut(it, ":"); ok && !strings.ContainsAny(strings.TrimSpace(f), " \t") {
					e.Fields[strings.TrimSpace(f)] = strings.TrimSpace(msg)
					continue
				}
				e.Details = append(e.Details, it)
			}
		}
	}
	if e.Message == "" {
		if m, ok := raw["error"]; ok {
			_ = json.Unmarshal(m, &e.Message)
		}
	}
	if errs, ok := raw["errors"]; ok {
		var byField map[string]json.RawMessage
		var list []struct {
			Field   string `json:"field"`
			Path    string `json:"path"`
			Message string `json:"message"`
		}
		switch {
		case json.Unmarshal(errs, &byField) == nil:
			for f, v := range byField {
				var s string
				var arr []string
				if json.Unmarshal(v, &s) == nil {
					e.Fields[f] = s
				} else if json.Unmarshal(v, &arr) == nil && len(arr) > 0 {
					e.Fields[f] = strings.Join(arr, "; ")
				}
			}
		case json.Unmarshal(errs, &list) == nil:
			for _, it := range list {
				f := it.Field
				if f == "" {
					f = it.Path
				}
				if f == "" {
					e.Details = append(e.Details, it.Message)
					continue
				}
				e.Fields[f] = it.Message
			}
		}
	}
	return e
}
