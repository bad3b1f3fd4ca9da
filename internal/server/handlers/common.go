package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sellsmart/sellsmart-web/internal/config"
	"github.com/sellsmart/sellsmart-web/internal/domain/models"
	"github.com/sellsmart/sellsmart-web/internal/service/fetch"
	"github.com/sellsmart/sellsmart-web/internal/session"
)

const (
	sessionContextKey = "sellsmart.session"
	flashCookie       = "sellsmart_flash"

	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot notification shown at the top of the next page.
type Flash struct {
	Kind    string
	Message string
}

// Cookies reads and writes the session and flash cookies.
type Cookies struct {
	cfg config.SessionConfig
}

// NewCookies builds the cookie helper from the session configuration.
func NewCookies(cfg config.SessionConfig) Cookies {
	return Cookies{cfg: cfg}
}

// SessionID returns the session cookie value, if any.
func (k Cookies) SessionID(c *gin.Context) string {
	id, err := c.Cookie(k.cfg.CookieName)
	if err != nil {
		return ""
	}
	return id
}

// SetSession binds a session to the browser.
func (k Cookies) SetSession(c *gin.Context, sess models.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = int(k.cfg.TTL.Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(k.cfg.CookieName, sess.ID, maxAge, "/", "", k.cfg.Secure, true)
}

// ClearSession removes the session cookie.
func (k Cookies) ClearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(k.cfg.CookieName, "", -1, "/", "", k.cfg.Secure, true)
}

// SetFlash stores a notification for the next rendered page.
func (k Cookies) SetFlash(c *gin.Context, kind, message string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, url.QueryEscape(kind+"|"+message), 60, "/", "", k.cfg.Secure, true)
}

// TakeFlash returns and clears the pending notification.
func (k Cookies) TakeFlash(c *gin.Context) *Flash {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	c.SetCookie(flashCookie, "", -1, "/", "", k.cfg.Secure, true)

	value, err := url.QueryUnescape(raw)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(value, "|")
	if !ok || message == "" {
		return nil
	}
	return &Flash{Kind: kind, Message: message}
}

// RequireSession resolves the session cookie and stores the session on the
// context. Requests without a valid session go back to the login page.
func RequireSession(sessions *session.Manager, cookies Cookies, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		sess, err := sessions.Lookup(c.Request.Context(), cookies.SessionID(c))
		if err != nil {
			if !errors.Is(err, models.ErrAuth) {
				logger.Error("session lookup failed", zap.Error(err))
			}
			redirectToLogin(c, cookies)
			c.Abort()
			return
		}
		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

// CurrentSession returns the session stored by RequireSession.
func CurrentSession(c *gin.Context) models.Session {
	if v, ok := c.Get(sessionContextKey); ok {
		if sess, ok := v.(models.Session); ok {
			return sess
		}
	}
	return models.Session{}
}

func redirectToLogin(c *gin.Context, cookies Cookies) {
	cookies.ClearSession(c)
	if isPartial(c) {
		c.Header("HX-Redirect", "/")
		c.Status(http.StatusUnauthorized)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// settleStale answers a load superseded by a newer one. Partials get 204;
// full pages render the outcome of their own load. ok is false when the
// response has been written.
func settleStale[T any](c *gin.Context, res fetch.Result[T]) (fetch.Result[T], bool) {
	if res.State != fetch.StateStale {
		return res, true
	}
	if isPartial(c) {
		c.Status(http.StatusNoContent)
		return res, false
	}
	res.State = res.Settled
	return res, true
}

func isPartial(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true" || strings.HasPrefix(c.Request.URL.Path, "/ui/")
}

// statusFor maps the error taxonomy to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrNetwork), errors.Is(err, models.ErrServer):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleAuthFailure sends the user back to login when err says the upstream
// rejected the session. It reports whether it responded.
func handleAuthFailure(c *gin.Context, cookies Cookies, err error) bool {
	if !errors.Is(err, models.ErrAuth) {
		return false
	}
	cookies.SetFlash(c, FlashError, models.UserMessage(err))
	redirectToLogin(c, cookies)
	return true
}

// render adds the layout fields every page uses.
func render(c *gin.Context, cookies Cookies, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["Flash"]; !ok {
		data["Flash"] = cookies.TakeFlash(c)
	}
	if sess := CurrentSession(c); sess.Email != "" {
		data["UserEmail"] = sess.Email
	}
	c.HTML(status, name, data)
}

func today(now func() time.Time) models.Date {
	return models.DateOf(now())
}

// parseDateParam reads a YYYY-MM-DD value, falling back to def when empty.
func parseDateParam(raw string, def models.Date) (models.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, models.NewValidationError("date", "must be YYYY-MM-DD")
	}
	return d, nil
}
