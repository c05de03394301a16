package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("anishpass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	g, err := NewGate(Config{
		Username:         "anish",
		DisplayName:      "Anish",
		PasswordHash:     string(hash),
		CookieSigningKey: []byte("test-signing-key"),
	})
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	return g
}

func TestNewGateDefaultsAndValidation(t *testing.T) {
	g := newTestGate(t)
	if g.CookieName() != DefaultCookieName || g.cfg.CookieExpiryDays != DefaultCookieExpiryDays {
		t.Fatalf("unexpected defaults: %+v", g.cfg)
	}
	if _, err := NewGate(Config{Username: "anish", PasswordHash: "x"}); err == nil {
		t.Fatal("expected error without signing key")
	}
	if _, err := NewGate(Config{PasswordHash: "x", CookieSigningKey: []byte("k")}); err == nil {
		t.Fatal("expected error without username")
	}
}

func TestCheckCredentials(t *testing.T) {
	g := newTestGate(t)
	if !g.CheckCredentials("anish", "anishpass") {
		t.Fatal("expected valid credentials")
	}
	if g.CheckCredentials("anish", "wrong") {
		t.Fatal("wrong password accepted")
	}
	if g.CheckCredentials("someone", "anishpass") {
		t.Fatal("wrong username accepted")
	}
}

func TestHashPasswordRoundTrip(t *testing.T) {
	h, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(h), []byte("secret")) != nil {
		t.Fatal("hash does not verify")
	}
	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestIssueCookieVerifies(t *testing.T) {
	g := newTestGate(t)
	cookie, err := g.IssueCookie("anish")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if cookie.Name != DefaultCookieName || !cookie.HttpOnly || cookie.MaxAge != 30*24*3600 {
		t.Fatalf("unexpected cookie %+v", cookie)
	}
	user, err := g.Verify(cookie.Value)
	if err != nil || user != "anish" {
		t.Fatalf("verify: %q %v", user, err)
	}
}

func TestVerifyRejectsExpiredForgedAndForeignTokens(t *testing.T) {
	g := newTestGate(t)

	expired, err := g.issueToken("anish", time.Now().Add(-31*24*time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := g.Verify(expired); err == nil {
		t.Fatal("expired token accepted")
	}

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "anish",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	forgedToken, err := forged.SignedString([]byte("other-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := g.Verify(forgedToken); err == nil {
		t.Fatal("token signed with another key accepted")
	}

	stranger, err := g.issueToken("mallory", time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := g.Verify(stranger); err == nil {
		t.Fatal("token for another subject accepted")
	}

	if _, err := g.Verify("not-a-token"); err == nil {
		t.Fatal("garbage accepted")
	}
}

func TestMiddleware(t *testing.T) {
	g := newTestGate(t)
	e := echo.New()
	e.Use(g.Middleware())
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, UserFrom(c)) })
	e.GET("/api/items", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != "/login" {
		t.Fatalf("expected redirect to login, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for api, got %d", rec.Code)
	}

	cookie, err := g.IssueCookie("anish")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "anish" {
		t.Fatalf("expected 200 anish, got %d %q", rec.Code, rec.Body.String())
	}
}
