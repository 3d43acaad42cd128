package riverpress

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

const sessionName = "riverpress_session"

const (
	keyAuthenticated = "admin_authenticated"
	keyCSRFToken     = "_csrf_token"
	keyCSRFIssuedAt  = "_csrf_ts"
	keyFlashes       = "_flashes"
)

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-time notice shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

// Session is the per-visitor state kept between requests.
type Session struct {
	Authenticated bool
	CSRFToken     string
	CSRFIssuedAt  time.Time
	Flashes       []Flash
}

// AddFlash queues a notice for the next rendered page.
func (s *Session) AddFlash(kind, message string) {
	s.Flashes = append(s.Flashes, Flash{Kind: kind, Message: message})
}

// TakeFlashes returns and clears the queued notices.
func (s *Session) TakeFlashes() []Flash {
	f := s.Flashes
	s.Flashes = nil
	return f
}

// SessionStore loads and persists Session values for a request.
type SessionStore interface {
	Get(c echo.Context) (*Session, error)
	Set(c echo.Context, s *Session) error
	Clear(c echo.Context) error
}

// cookieSessions keeps Session values in a signed gorilla cookie. It relies
// on session.Middleware having installed the gorilla store on the context.
type cookieSessions struct{}

// newCookieStore builds the gorilla store installed by session.Middleware.
func newCookieStore(key []byte, maxAge int, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   maxAge,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
	return store
}

// cookieSession returns the gorilla session for the request. A cookie that
// no longer decodes (for example after a key change) yields a fresh session.
func cookieSession(c echo.Context) (*sessions.Session, error) {
	sess, err := session.Get(sessionName, c)
	if sess == nil {
		return nil, err
	}
	return sess, nil
}

func (cookieSessions) Get(c echo.Context) (*Session, error) {
	sess, err := cookieSession(c)
	if err != nil {
		return nil, err
	}
	s := &Session{}
	s.Authenticated, _ = sess.Values[keyAuthenticated].(bool)
	s.CSRFToken, _ = sess.Values[keyCSRFToken].(string)
	if ts, ok := sess.Values[keyCSRFIssuedAt].(int64); ok {
		s.CSRFIssuedAt = time.Unix(ts, 0)
	}
	if raw, ok := sess.Values[keyFlashes].([]string); ok {
		for _, f := range raw {
			kind, msg, _ := strings.Cut(f, ":")
			s.Flashes = append(s.Flashes, Flash{Kind: kind, Message: msg})
		}
	}
	return s, nil
}

func (cookieSessions) Set(c echo.Context, s *Session) error {
	sess, err := cookieSession(c)
	if err != nil {
		return err
	}
	if s.Authenticated {
		sess.Values[keyAuthenticated] = true
	} else {
		delete(sess.Values, keyAuthenticated)
	}
	if s.CSRFToken != "" {
		sess.Values[keyCSRFToken] = s.CSRFToken
		sess.Values[keyCSRFIssuedAt] = s.CSRFIssuedAt.Unix()
	} else {
		delete(sess.Values, keyCSRFToken)
		delete(sess.Values, keyCSRFIssuedAt)
	}
	if len(s.Flashes) > 0 {
		raw := make([]string, len(s.Flashes))
		for i, f := range s.Flashes {
			raw[i] = f.Kind + ":" + f.Message
		}
		sess.Values[keyFlashes] = raw
	} else {
		delete(sess.Values, keyFlashes)
	}
	return sess.Save(c.Request(), c.Response())
}

// Clear drops every value but keeps the cookie, so a flash can still be
// queued after logout.
func (cookieSessions) Clear(c echo.Context) error {
	sess, err := cookieSession(c)
	if err != nil {
		return err
	}
	sess.Values = map[interface{}]interface{}{}
	return sess.Save(c.Request(), c.Response())
}

// IsAdmin checks if the current session is authenticated.
func (a *App) IsAdmin(c echo.Context) bool {
	s, err := a.Sessions.Get(c)
	return err == nil && s.Authenticated
}

// flash queues a notice in the visitor's session.
func (a *App) flash(c echo.Context, kind, message string) error {
	s, err := a.Sessions.Get(c)
	if err != nil {
		return err
	}
	s.AddFlash(kind, message)
	return a.Sessions.Set(c, s)
}
