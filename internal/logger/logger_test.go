package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"swimlms/internal/backend"
)

func TestLogger_LocalOnly(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Options{})
	s := backend.Session{TenantID: "t1", Token: "secret", UserID: "u1"}

	l.Error("add class failed", errors.New("backend: 500"), s)
	l.Printf("tables reloaded: %d", 5)
	l.Close()

	out := buf.String()
	assert.Contains(t, out, "ERROR add class failed")
	assert.Contains(t, out, "backend: 500")
	assert.Contains(t, out, "tables reloaded: 5")
	assert.NotContains(t, out, "secret")
}

func TestLogger_Prepare(t *testing.T) {
	l := New(&bytes.Buffer{}, Options{})
	err := errors.New("boom")
	args := l.prepare("msg", []any{err, backend.Session{TenantID: "t1", UserID: "u1", Token: "x"}, map[string]any{"slot": "s1"}})

	assert.Equal(t, "msg", args[0])
	assert.Equal(t, err, args[1])
	assert.Equal(t, map[string]any{"tenant_id": "t1", "user_id": "u1", "role": "", "slot": "s1"}, args[2])
}
