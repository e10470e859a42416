package compare

import (
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"

	"swimlms/internal/render"
)

// длинный или многострочный текст дополнительно показываем построчным diff
const diffThreshold = 120

type RenderedChange struct {
	Key   string      `json:"key"`
	Label string      `json:"label"`
	Kind  render.Kind `json:"kind"`
	Old   string      `json:"old"`
	New   string      `json:"new"`
	Diff  string      `json:"diff,omitempty"`
}

func RenderChanges(changes []FieldChange, r *render.Renderer) []RenderedChange {
	out := make([]RenderedChange, 0, len(changes))
	for _, ch := range changes {
		rc := RenderedChange{
			Key:   ch.Key,
			Label: ch.Label,
			Kind:  ch.Type,
			Old:   renderSide(r, ch.Old, ch.Type),
			New:   renderSide(r, ch.New, ch.Type),
		}
		if ch.Type == render.KindText || ch.Type == render.KindAuto {
			oldS, ok1 := ch.Old.(string)
			newS, ok2 := ch.New.(string)
			if ok1 && ok2 && wantsDiff(oldS, newS) {
				rc.Diff = unified(oldS, newS)
			}
		}
		out = append(out, rc)
	}
	return out
}

func renderSide(r *render.Renderer, v any, k render.Kind) string {
	if _, ok := v.(absent); ok {
		return render.Empty
	}
	return r.Render(v, k)
}

func wantsDiff(a, b string) bool {
	return strings.Contains(a, "\n") || strings.Contains(b, "\n") ||
		utf8.RuneCountInString(a) > diffThreshold || utf8.RuneCountInString(b) > diffThreshold
}

func unified(a, b string) string {
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: "trước",
		ToFile:   "sau",
		Context:  1,
	}
	s, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return ""
	}
	return s
}
