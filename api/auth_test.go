package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

func newEnabledAuth(secure bool) *Auth {
	return NewAuth("admin", "hunter2", "test-secret", secure)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", sessionCookieName)
	return nil
}

func TestAuthEnabledRequiresBothCredentials(t *testing.T) {
	if NewAuth("admin", "", "s", false).Enabled() {
		t.Fatalf("password missing should disable auth")
	}
	if NewAuth("", "pw", "s", false).Enabled() {
		t.Fatalf("username missing should disable auth")
	}
	if !newEnabledAuth(false).Enabled() {
		t.Fatalf("expected auth enabled")
	}
}

func TestIssueAndVerifyToken(t *testing.T) {
	a := newEnabledAuth(false)
	tok, exp, err := a.IssueToken("admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if d := time.Until(exp); d < 23*time.Hour || d > 25*time.Hour {
		t.Fatalf("unexpected expiry %v", exp)
	}
	user, err := a.VerifyToken(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user != "admin" {
		t.Fatalf("unexpected username %q", user)
	}
}

func TestVerifyTokenRejects(t *testing.T) {
	a := newEnabledAuth(false)

	other := NewAuth("admin", "hunter2", "other-secret", false)
	foreign, _, err := other.IssueToken("admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	a.now = func() time.Time { return time.Now().Add(-25 * time.Hour) }
	expired, _, err := a.IssueToken("admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	a.now = time.Now

	noUser := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	noUserTok, err := noUser.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	noneTok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"username": "admin",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	cases := map[string]string{
		"empty":       "",
		"garbage":     "not.a.token",
		"wrong key":   foreign,
		"expired":     expired,
		"no username": noUserTok,
		"alg none":    noneTok,
	}
	for name, tok := range cases {
		if _, err := a.VerifyToken(tok); err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
	}
}

func TestGateDisabledPassesThrough(t *testing.T) {
	e, _ := newTestServer(&mockStore{}, NewAuth("", "", "s", false))
	rec := doJSON(e, http.MethodGet, "/api/todos", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGateRedirectsWithoutSession(t *testing.T) {
	e, _ := newTestServer(&mockStore{}, newEnabledAuth(false))
	for _, path := range []string{"/", "/api/todos", "/api/todos/stream", "/no/such/page"} {
		rec := doJSON(e, http.MethodGet, path, "")
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("%s: expected 307, got %d", path, rec.Code)
		}
		want := "/login?redirect=" + strings.ReplaceAll(path, "/", "%2F")
		if got := rec.Header().Get(echo.HeaderLocation); got != want {
			t.Fatalf("%s: expected location %q, got %q", path, want, got)
		}
	}
}

func TestGateExemptPaths(t *testing.T) {
	e, _ := newTestServer(&mockStore{}, newEnabledAuth(false))
	for _, path := range []string{"/login", "/healthz"} {
		if rec := doJSON(e, http.MethodGet, path, ""); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestGateRejectsExpiredCookie(t *testing.T) {
	a := newEnabledAuth(false)
	e, _ := newTestServer(&mockStore{}, a)

	a.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	tok, _, err := a.IssueToken("admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	a.now = time.Now

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: tok})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", rec.Code)
	}
}

func TestLoginFlow(t *testing.T) {
	e, _ := newTestServer(&mockStore{}, newEnabledAuth(true))

	rec := doJSON(e, http.MethodPost, "/api/auth/login", `{"username":"admin","password":"hunter2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp authResponse
	if err := sonic.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success")
	}
	cookie := sessionCookie(t, rec)
	if !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("unexpected cookie attributes: %+v", cookie)
	}
	if cookie.Path != "/" || cookie.MaxAge != 86400 {
		t.Fatalf("unexpected cookie scope: path=%q maxAge=%d", cookie.Path, cookie.MaxAge)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: cookie.Value})
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with session, got %d", rec.Code)
	}
}

func TestLoginFailures(t *testing.T) {
	e, _ := newTestServer(&mockStore{}, newEnabledAuth(false))

	rec := doJSON(e, http.MethodPost, "/api/auth/login", `{"username":"admin","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var resp authResponse
	if err := sonic.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || resp.Message != "Invalid credentials" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("failed login must not set a cookie")
	}

	rec = doJSON(e, http.MethodPost, "/api/auth/login", `{"username":`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 for malformed body, got %d", rec.Code)
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Authentication failed" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestLoginWhenDisabled(t *testing.T) {
	e, _ := newTestServer(&mockStore{}, NewAuth("", "", "s", false))
	rec := doJSON(e, http.MethodPost, "/api/auth/login", `{}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	a := newEnabledAuth(false)
	e, _ := newTestServer(&mockStore{}, a)
	tok, _, err := a.IssueToken("admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: tok})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cookie := sessionCookie(t, rec)
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Fatalf("expected cleared cookie, got %+v", cookie)
	}
}
