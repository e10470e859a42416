package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveURL(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{"string", "/uploads/a.png", "/uploads/a.png"},
		{"blank string", "   ", Placeholder},
		{"string slice", []string{"", "/b.png"}, "/b.png"},
		{"any slice", []any{"", "/c.png"}, "/c.png"},
		{"object path", map[string]any{"path": "/d.png"}, "/d.png"},
		{"object url", map[string]any{"url": "https://cdn/e.png"}, "https://cdn/e.png"},
		{"array of objects", []any{map[string]any{"path": ""}, map[string]any{"path": "/f.png"}}, "/f.png"},
		{"nested path array", []any{map[string]any{"path": []any{"", "/g.png"}}}, "/g.png"},
		{"nil", nil, Placeholder},
		{"number", 42.0, Placeholder},
		{"empty object", map[string]any{}, Placeholder},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveURL(tc.in, ""))
		})
	}
}

func TestResolveURL_Fallback(t *testing.T) {
	assert.Equal(t, "/default-course.png", ResolveURL(nil, "/default-course.png"))
	assert.Equal(t, "/x.png", ResolveURL("/x.png", "/default-course.png"))
}
