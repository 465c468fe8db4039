// Package session carries the logged-in identity across requests. The
// identity is just the username, signed into a cookie token; durable profile
// data always comes from the credential store.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const CookieName = "session"

var ErrInvalidToken = errors.New("invalid session token")

type claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Manager issues and verifies session tokens with a secret loaded once at
// startup.
type Manager struct {
	secret []byte
	ttl    time.Duration

	nowFunc func() time.Time
}

func NewManager(secret []byte, ttl time.Duration) (*Manager, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("session secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session TTL must be > 0")
	}
	return &Manager{secret: secret, ttl: ttl, nowFunc: time.Now}, nil
}

// Issue signs a token naming the authenticated username.
func (m *Manager) Issue(username string) (string, error) {
	if username == "" {
		return "", fmt.Errorf("username is required")
	}

	now := m.nowFunc()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Username: username,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and returns the username the token
// names. Any parse or validation failure maps to ErrInvalidToken: a bad
// session is simply an anonymous one.
func (m *Manager) Verify(tokenString string) (string, error) {
	c := &claims{}
	token, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.nowFunc))
	if err != nil || !token.Valid || c.Username == "" {
		return "", ErrInvalidToken
	}
	return c.Username, nil
}

// SetCookie establishes the session on the response.
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie tears the session down. Safe to call for anonymous requests.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// FromRequest extracts the session username from the request cookie, or
// returns ErrInvalidToken when the request is anonymous or the token does
// not verify.
func (m *Manager) FromRequest(r *http.Request) (string, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", ErrInvalidToken
	}
	return m.Verify(c.Value)
}
