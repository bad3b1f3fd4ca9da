package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sellsmart/sellsmart-web/internal/domain/models"
	"github.com/sellsmart/sellsmart-web/internal/service/auth"
	"github.com/sellsmart/sellsmart-web/internal/session"
)

// AuthHandler serves the sign-in flow and logout.
type AuthHandler struct {
	svc      *auth.Service
	sessions *session.Manager
	cookies  Cookies
	onLogout []func(sessionID string)
	logger   *zap.Logger
}

// NewAuthHandler constructs the HTTP handler adapter. onLogout callbacks drop
// per-session view state.
func NewAuthHandler(svc *auth.Service, sessions *session.Manager, cookies Cookies, logger *zap.Logger, onLogout ...func(string)) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{svc: svc, sessions: sessions, cookies: cookies, onLogout: onLogout, logger: logger}
}

func (h *AuthHandler) renderLogin(c *gin.Context, status int, draft auth.Draft, message string) {
	data := gin.H{
		"Step":  string(draft.Step),
		"Email": draft.Email,
	}
	if message != "" {
		data["Flash"] = &Flash{Kind: FlashError, Message: message}
	}
	render(c, h.cookies, status, "login.html", data)
}

// LoginPage shows the email step, or goes home when already signed in.
func (h *AuthHandler) LoginPage(c *gin.Context) {
	if id := h.cookies.SessionID(c); id != "" {
		if _, err := h.sessions.Lookup(c.Request.Context(), id); err == nil {
			c.Redirect(http.StatusSeeOther, "/home")
			return
		}
	}
	h.renderLogin(c, http.StatusOK, auth.Draft{Step: auth.StepEmail}, "")
}

// CheckEmail resolves the next step for the submitted email.
func (h *AuthHandler) CheckEmail(c *gin.Context) {
	email := c.PostForm("email")
	step, err := h.svc.CheckEmail(c.Request.Context(), email)
	if err != nil {
		draft := auth.Draft{Step: auth.StepEmail, Email: email}
		switch {
		case errors.Is(err, auth.ErrNotAuthorized):
			h.renderLogin(c, http.StatusForbidden, draft, auth.NotAuthorizedMessage)
		case errors.Is(err, models.ErrValidation):
			h.renderLogin(c, http.StatusUnprocessableEntity, draft, models.UserMessage(err))
		default:
			h.logger.Warn("check email failed", zap.Error(err))
			h.renderLogin(c, credentialStatus(err), draft, models.UserMessage(err))
		}
		return
	}
	h.renderLogin(c, http.StatusOK, auth.Draft{Step: step, Email: models.NormalizeEmail(email)}, "")
}

// Login handles the password step for registered users.
func (h *AuthHandler) Login(c *gin.Context) {
	h.submit(c, auth.StepLogin)
}

// Register handles the create-password step for new users.
func (h *AuthHandler) Register(c *gin.Context) {
	h.submit(c, auth.StepSignup)
}

func (h *AuthHandler) submit(c *gin.Context, step auth.Step) {
	draft := auth.Draft{
		Step:     step,
		Email:    c.PostForm("email"),
		Password: c.PostForm("password"),
		Confirm:  c.PostForm("confirm_password"),
	}

	out, err := h.svc.Submit(c.Request.Context(), draft)
	if err != nil {
		// Passwords are never echoed back.
		h.renderLogin(c, credentialStatus(err), auth.Draft{Step: step, Email: draft.Email}, models.UserMessage(err))
		return
	}

	h.cookies.SetSession(c, out.Session)
	message := out.Message
	if message == "" {
		message = "Welcome back!"
		if step == auth.StepSignup {
			message = "Account created."
		}
	}
	h.cookies.SetFlash(c, FlashSuccess, message)
	c.Redirect(http.StatusSeeOther, "/home")
}

// credentialStatus keeps a 401 or 403 from the auth endpoints, which answer
// without a session, instead of reporting an upstream failure.
func credentialStatus(err error) int {
	var se *models.ServerError
	if errors.As(err, &se) && (se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden) {
		return se.StatusCode
	}
	return statusFor(err)
}

// Logout ends the session and clears per-session view state.
func (h *AuthHandler) Logout(c *gin.Context) {
	id := h.cookies.SessionID(c)
	if err := h.svc.Logout(c.Request.Context(), id); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
	}
	for _, fn := range h.onLogout {
		fn(id)
	}
	h.cookies.ClearSession(c)
	c.Redirect(http.StatusSeeOther, "/")
}

// Home renders the landing page with links to every screen.
func (h *AuthHandler) Home(c *gin.Context) {
	render(c, h.cookies, http.StatusOK, "home.html", gin.H{})
}
