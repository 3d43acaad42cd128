package riverpress

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"

	"github.com/labstack/echo/v4"
)

// csrfField is the form field every mutating request must echo.
const csrfField = "csrf_token"

func newCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// csrfToken returns the session's token for embedding in forms, issuing a
// new one when the session has none or the current one has outlived the TTL.
// A valid token is reused across forms and submissions.
func (a *App) csrfToken(c echo.Context) (string, error) {
	s, err := a.Sessions.Get(c)
	if err != nil {
		return "", err
	}
	if s.CSRFToken != "" && a.now().Sub(s.CSRFIssuedAt) <= a.Config.CSRFTTL {
		return s.CSRFToken, nil
	}
	token, err := newCSRFToken()
	if err != nil {
		return "", err
	}
	s.CSRFToken = token
	s.CSRFIssuedAt = a.now()
	if err := a.Sessions.Set(c, s); err != nil {
		return "", err
	}
	return token, nil
}

// validCSRF reports whether the submitted token matches the session token
// and was issued within the TTL.
func (a *App) validCSRF(c echo.Context) bool {
	sent := c.FormValue(csrfField)
	if sent == "" {
		return false
	}
	s, err := a.Sessions.Get(c)
	if err != nil || s.CSRFToken == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(sent), []byte(s.CSRFToken)) != 1 {
		return false
	}
	return a.now().Sub(s.CSRFIssuedAt) <= a.Config.CSRFTTL
}

// csrfProtect rejects POST, PUT and DELETE requests without a valid token.
func (a *App) csrfProtect(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		switch c.Request().Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !a.validCSRF(c) {
				_ = a.flash(c, FlashError, "Your session expired. Please try again.")
				return c.String(http.StatusBadRequest, "Invalid CSRF token")
			}
		}
		return next(c)
	}
}
