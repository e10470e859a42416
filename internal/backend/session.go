package backend

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

var (
	ErrNoTenant     = errors.New("backend: tenant is not selected")
	ErrNoToken      = errors.New("backend: not authenticated")
	ErrTokenExpired = errors.New("backend: session expired")
)

// Session: контекст вызова бэкенда (арендатор и токен оператора).
// Создаётся один раз на запрос и передаётся явно во все вызовы клиента.
type Session struct {
	TenantID  string
	Token     string
	UserID    string
	Role      string
	ExpiresAt time.Time
}

// NewSession проверяет предусловия до любого сетевого вызова. Подпись токена
// не проверяется (это делает бэкенд); из него читаются только sub/_id, role, exp.
func NewSession(tenantID, token string) (Session, error) {
	return newSessionAt(tenantID, token, time.Now())
}

func newSessionAt(tenantID, token string, now time.Time) (Session, error) {
	tenantID = strings.TrimSpace(tenantID)
	token = strings.TrimSpace(token)
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if tenantID == "" {
		return Session{}, ErrNoTenant
	}
	if token == "" {
		return Session{}, ErrNoToken
	}
	s := Session{TenantID: tenantID, Token: token}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// непрозрачный токен: пусть его оценит бэкенд
		return s, nil
	}
	s.UserID = claimString(claims, "sub", "_id", "id")
	s.Role = claimString(claims, "role")
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
		if !now.Before(exp.Time) {
			return Session{}, ErrTokenExpired
		}
	}
	return s, nil
}

// Key: ключ для состояний, привязанных к оператору. Для непрозрачного
// токена вместо пользователя берётся отпечаток токена.
func (s Session) Key() string {
	if s.UserID != "" {
		return s.TenantID + "/" + s.UserID
	}
	sum := sha256.Sum256([]byte(s.Token))
	return s.TenantID + "/" + hex.EncodeToString(sum[:8])
}

func claimString(c jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := c[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case []any:
			// role бывает массивом
			if len(v) > 0 {
				if s, ok := v[0].(string); ok {
					return s
				}
			}
		}
	}
	return ""
}
