package api

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"swimlms/internal/store"
)

// ==== Параметры листинга схем ====

type SortKey struct {
	Field string
	Desc  bool
}

type ListParams struct {
	Limit  int
	Offset int
	Sort   []SortKey
	Filter store.Filter
	Q      string
}

func parseListParams(q url.Values) ListParams {
	limit := 50
	lv := q.Get("_limit")
	if lv == "" {
		lv = q.Get("limit")
	}
	if lv != "" {
		if n, err := strconv.Atoi(lv); err == nil && n >= 0 && n <= 1000 {
			limit = n
		}
	}

	offset := 0
	ov := q.Get("_offset")
	if ov == "" {
		ov = q.Get("offset")
	}
	if ov != "" {
		if n, err := strconv.Atoi(ov); err == nil && n >= 0 {
			offset = n
		}
	}

	var sortKeys []SortKey
	sv := strings.TrimSpace(q.Get("_sort"))
	if sv == "" {
		sv = strings.TrimSpace(q.Get("sort"))
	}
	for _, p := range strings.Split(sv, ",") {
		p = strings.TrimSpace(p)
		desc := false
		if strings.HasPrefix(p, "-") {
			desc = true
			p = strings.TrimPrefix(p, "-")
		} else {
			p = strings.TrimPrefix(p, "+")
		}
		if sortable[p] {
			sortKeys = append(sortKeys, SortKey{Field: p, Desc: desc})
		}
	}

	return ListParams{
		Limit:  limit,
		Offset: offset,
		Sort:   sortKeys,
		Filter: store.Filter{
			OwnerKind: strings.TrimSpace(q.Get("owner_kind")),
			OwnerID:   strings.TrimSpace(q.Get("owner_id")),
		},
		Q: strings.TrimSpace(q.Get("q")),
	}
}

var sortable = map[string]bool{
	"id": true, "title": true, "version": true, "created_at": true, "updated_at": true,
}

func cmpByKey(a, b store.SchemaRecord, key string) int {
	switch key {
	case "title":
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case "version":
		return cmpInt(a.Version, b.Version)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	}
	return strings.Compare(a.ID, b.ID)
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// apply: поиск по названию, сортировка, страница. Возвращает страницу и total.
func (lp ListParams) apply(recs []store.SchemaRecord) ([]store.SchemaRecord, int) {
	if lp.Q != "" {
		ql := strings.ToLower(lp.Q)
		kept := recs[:0]
		for _, r := range recs {
			if strings.Contains(strings.ToLower(r.Title), ql) {
				kept = append(kept, r)
			}
		}
		recs = kept
	}
	if len(lp.Sort) > 0 {
		sort.SliceStable(recs, func(i, j int) bool {
			for _, k := range lp.Sort {
				c := cmpByKey(recs[i], recs[j], k.Field)
				if k.Desc {
					c = -c
				}
				if c != 0 {
					return c < 0
				}
			}
			return false
		})
	}
	total := len(recs)
	start := min(lp.Offset, total)
	end := min(start+lp.Limit, total)
	return recs[start:end], total
}
