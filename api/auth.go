package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

const (
	sessionCookieName = "auth-token"
	sessionTTL        = 24 * time.Hour
	loginPath         = "/login"
	loginAPIPath      = "/api/auth/login"
)

// Paths reachable without a session.
var exemptPaths = map[string]struct{}{
	loginPath:    {},
	loginAPIPath: {},
	"/healthz":   {},
}

var (
	errMissingSession = errors.New("missing session token")
	errExpiredSession = errors.New("token expired")
)

// Auth checks the configured credential pair and issues and verifies the
// signed session token carried in the auth-token cookie. With no credentials
// configured it lets every request through.
type Auth struct {
	username     string
	password     string
	secret       []byte
	secureCookie bool
	ttl          time.Duration
	now          func() time.Time
	parser       *jwt.Parser
}

// NewAuth creates a new Auth instance. Authentication is disabled unless both
// username and password are non-empty.
func NewAuth(username, password, secret string, secureCookie bool) *Auth {
	return &Auth{
		username:     username,
		password:     password,
		secret:       []byte(secret),
		secureCookie: secureCookie,
		ttl:          sessionTTL,
		now:          time.Now,
		parser:       jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithoutClaimsValidation()),
	}
}

// Enabled reports whether requests must carry a session.
func (a *Auth) Enabled() bool {
	return a.username != "" && a.password != ""
}

// CheckCredentials compares the pair against the configured values.
func (a *Auth) CheckCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	return userOK && passOK
}

// IssueToken signs a session token for username and returns its expiry.
func (a *Auth) IssueToken(username string) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(a.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"iat":      now.Unix(),
		"exp":      exp.Unix(),
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyToken validates signature and expiry and returns the username claim.
func (a *Auth) VerifyToken(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", errMissingSession
	}
	parsed, err := a.parser.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	now := a.now().Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return "", errExpiredSession
	}
	if !claims.VerifyIssuedAt(now, false) {
		return "", errors.New("token used before issued")
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return "", errors.New("missing username")
	}
	return username, nil
}

// Gate redirects requests without a valid session to the login page,
// preserving the requested path.
func (a *Auth) Gate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !a.Enabled() {
				return next(c)
			}
			path := c.Request().URL.Path
			if _, ok := exemptPaths[path]; ok {
				return next(c)
			}
			if cookie, err := c.Cookie(sessionCookieName); err == nil {
				_, verifyErr := a.VerifyToken(cookie.Value)
				if verifyErr == nil {
					return next(c)
				}
				log.WithError(verifyErr).WithField("path", path).Debug("session rejected")
			}
			return c.Redirect(http.StatusTemporaryRedirect, loginRedirect(path))
		}
	}
}

func loginRedirect(path string) string {
	return loginPath + "?" + url.Values{"redirect": {path}}.Encode()
}

func (a *Auth) setSessionCookie(c echo.Context, token string, exp time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secureCookie,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(a.ttl / time.Second),
		Expires:  exp,
	})
}

func (a *Auth) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secureCookie,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

func login(a *Auth, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !a.Enabled() {
			return c.JSON(http.StatusOK, authResponse{Success: true, Message: "Authentication disabled"})
		}

		var req loginRequest
		if err := decodeBody(c, &req); err != nil {
			logger.WithError(err).Error("login: decode body")
			return c.JSON(http.StatusInternalServerError, authResponse{Success: false, Message: "Authentication failed"})
		}
		if !a.CheckCredentials(req.Username, req.Password) {
			logger.WithField("username", req.Username).Warn("login rejected")
			return c.JSON(http.StatusUnauthorized, authResponse{Success: false, Message: "Invalid credentials"})
		}

		token, exp, err := a.IssueToken(req.Username)
		if err != nil {
			logger.WithError(err).Error("login: sign token")
			return c.JSON(http.StatusInternalServerError, authResponse{Success: false, Message: "Authentication failed"})
		}
		a.setSessionCookie(c, token, exp)
		return c.JSON(http.StatusOK, authResponse{Success: true})
	}
}

func logout(a *Auth) echo.HandlerFunc {
	return func(c echo.Context) error {
		a.clearSessionCookie(c)
		return c.JSON(http.StatusOK, authResponse{Success: true})
	}
}
