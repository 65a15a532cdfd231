package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/customify/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims carries the server-side session ID inside the browser cookie.
type SessionClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// CookieCodec mints and verifies the signed session cookie.
//
// The cookie value is an HS256 JWT whose only payload is the session ID;
// Spotify tokens and user data stay in the sessions table.
type CookieCodec struct {
	secret []byte
	name   string
	ttl    time.Duration
}

// NewCookieCodec creates a codec for the named cookie signed with secret.
func NewCookieCodec(secret, name string, ttl time.Duration) (*CookieCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: session secret is required", shared.ErrMissingConfig)
	}
	if name == "" {
		name = "customify_session"
	}
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}

	return &CookieCodec{secret: []byte(secret), name: name, ttl: ttl}, nil
}

// Name returns the cookie name the codec reads and writes.
func (c *CookieCodec) Name() string {
	return c.name
}

// Issue signs a cookie value for the given session ID.
func (c *CookieCodec) Issue(sessionID string) (string, error) {
	now := time.Now().UTC()
	claims := &SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			Issuer:    "customify",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}

	return signed, nil
}

// Verify parses a cookie value and returns the session ID it carries.
func (c *CookieCodec) Verify(value string) (string, error) {
	token, err := jwt.ParseWithClaims(value, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", fmt.Errorf("%w: invalid session cookie", shared.ErrNotAuthenticated)
	}

	return claims.SessionID, nil
}

// SetCookie writes the session cookie for a session ID.
func (c *CookieCodec) SetCookie(w http.ResponseWriter, sessionID string) error {
	value, err := c.Issue(sessionID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// ClearCookie expires the session cookie.
func (c *CookieCodec) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadCookie extracts and verifies the session ID from a request.
func (c *CookieCodec) ReadCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return "", fmt.Errorf("%w: no session cookie", shared.ErrNotAuthenticated)
	}
	return c.Verify(cookie.Value)
}
