package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultCookieName       = "planner_cookie"
	DefaultCookieExpiryDays = 30
)

var ErrInvalidSession = errors.New("invalid session")

// Config is the single credential pair and session cookie settings.
type Config struct {
	Username         string
	DisplayName      string
	PasswordHash     string
	CookieName       string
	CookieSigningKey []byte
	CookieExpiryDays int
}

// Gate validates the configured credentials and issues signed session cookies.
type Gate struct {
	cfg    Config
	parser *jwt.Parser
}

type sessionClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func NewGate(cfg Config) (*Gate, error) {
	cfg.Username = strings.TrimSpace(cfg.Username)
	if cfg.Username == "" {
		return nil, errors.New("auth: username is required")
	}
	if cfg.PasswordHash == "" {
		return nil, errors.New("auth: password hash is required")
	}
	if len(cfg.CookieSigningKey) == 0 {
		return nil, errors.New("auth: cookie signing key is required")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.CookieExpiryDays <= 0 {
		cfg.CookieExpiryDays = DefaultCookieExpiryDays
	}
	if cfg.DisplayName == "" {
		cfg.DisplayName = cfg.Username
	}
	return &Gate{
		cfg:    cfg,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

// HashPassword returns the bcrypt hash stored in configuration.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (g *Gate) Username() string    { return g.cfg.Username }
func (g *Gate) DisplayName() string { return g.cfg.DisplayName }
func (g *Gate) CookieName() string  { return g.cfg.CookieName }

func (g *Gate) CheckCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(g.cfg.Username)) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(g.cfg.PasswordHash), []byte(password)) == nil
	return userOK && passOK
}

func (g *Gate) ttl() time.Duration {
	return time.Duration(g.cfg.CookieExpiryDays) * 24 * time.Hour
}

func (g *Gate) issueToken(username string, now time.Time) (string, error) {
	claims := sessionClaims{
		Name: g.cfg.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl())),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.cfg.CookieSigningKey)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// IssueCookie returns a session cookie for username valid for the configured days.
func (g *Gate) IssueCookie(username string) (*http.Cookie, error) {
	now := time.Now()
	token, err := g.issueToken(username, now)
	if err != nil {
		return nil, err
	}
	return &http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(g.ttl()),
		MaxAge:   int(g.ttl().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// ClearCookie expires the session cookie in the browser.
func (g *Gate) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// Verify checks signature, expiry and subject and returns the username.
func (g *Gate) Verify(token string) (string, error) {
	var claims sessionClaims
	parsed, err := g.parser.ParseWithClaims(strings.TrimSpace(token), &claims, func(*jwt.Token) (any, error) {
		return g.cfg.CookieSigningKey, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidSession
	}
	if claims.ExpiresAt == nil || claims.Subject != g.cfg.Username {
		return "", ErrInvalidSession
	}
	return claims.Subject, nil
}
