// Package auth drives the email → login/signup flow and is the only writer of
// sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/sellsmart/sellsmart-web/internal/domain/models"
	"github.com/sellsmart/sellsmart-web/internal/service/forms"
	"github.com/sellsmart/sellsmart-web/internal/session"
	"github.com/sellsmart/sellsmart-web/pkg/clients/sellsmart"
)

// Step of the sign-in flow.
type Step string

const (
	StepEmail  Step = "email"
	StepLogin  Step = "login"
	StepSignup Step = "signup"
)

// NotAuthorizedMessage is shown for emails the API does not allow.
const NotAuthorizedMessage = "Email is not authorized to use this app"

// ErrNotAuthorized is returned by CheckEmail for emails the API does not allow.
var ErrNotAuthorized = errors.New("email not authorized")

// Gateway is the part of the API client the flow needs.
type Gateway interface {
	CheckEmail(ctx context.Context, email string) (models.EmailStatus, error)
	Login(ctx context.Context, creds models.Credentials) (sellsmart.AuthResult, error)
	Register(ctx context.Context, creds models.Credentials) (sellsmart.AuthResult, error)
}

// Draft is the auth form input. It is carried by the page between steps.
type Draft struct {
	Step     Step
	Email    string
	Password string
	Confirm  string
}

// Validate checks the draft for its step before anything is sent.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Email) == "" {
		return &models.ValidationError{Message: "Please enter an email"}
	}
	switch d.Step {
	case StepLogin, StepSignup:
		if d.Password == "" {
			return &models.ValidationError{Message: "Email and password are required"}
		}
	}
	if d.Step == StepSignup && d.Password != d.Confirm {
		return &models.ValidationError{Message: "Passwords do not match"}
	}
	return nil
}

// Outcome of a successful login or registration.
type Outcome struct {
	Session models.Session
	Message string
}

// Service implements the flow.
type Service struct {
	gateway  Gateway
	sessions *session.Manager
	logger   *zap.Logger
}

// NewService wires the flow.
func NewService(gateway Gateway, sessions *session.Manager, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{gateway: gateway, sessions: sessions, logger: logger}
}

// CheckEmail decides the next step for email.
func (s *Service) CheckEmail(ctx context.Context, email string) (Step, error) {
	draft := Draft{Step: StepEmail, Email: email}
	var next Step
	ed := forms.NewEditor(nil, Draft.Validate)
	_ = ed.Edit(draft)
	err := ed.Submit(ctx, func(ctx context.Context, d Draft) error {
		status, err := s.gateway.CheckEmail(ctx, d.Email)
		if err != nil {
			return err
		}
		if !status.Authorized {
			return ErrNotAuthorized
		}
		next = StepSignup
		if status.Registered {
			next = StepLogin
		}
		return nil
	})
	if err != nil {
		return StepEmail, err
	}
	return next, nil
}

// Submit runs the login or signup step of draft and opens a session.
func (s *Service) Submit(ctx context.Context, draft Draft) (Outcome, error) {
	if draft.Step != StepLogin && draft.Step != StepSignup {
		return Outcome{}, models.NewValidationError("step", "must be login or signup")
	}

	var out Outcome
	ed := forms.NewEditor(nil, Draft.Validate)
	_ = ed.Edit(draft)
	err := ed.Submit(ctx, func(ctx context.Context, d Draft) error {
		creds := models.Credentials{Email: models.NormalizeEmail(d.Email), Password: d.Password}
		call := s.gateway.Login
		if d.Step == StepSignup {
			call = s.gateway.Register
		}
		res, err := call(ctx, creds)
		if err != nil {
			return err
		}

		expiresAt, _ := TokenExpiry(res.Token)
		sess, err := s.sessions.Create(ctx, creds.Email, res.Token, expiresAt)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		out = Outcome{Session: sess, Message: res.Message}
		return nil
	})
	if err != nil {
		s.logger.Info("sign-in failed", zap.String("step", string(draft.Step)), zap.Error(err))
		return Outcome{}, err
	}

	s.logger.Info("signed in",
		zap.String("step", string(draft.Step)),
		zap.String("session_id", out.Session.ID),
		zap.Time("expires_at", out.Session.ExpiresAt),
	)
	return out, nil
}

// Logout ends a session.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Destroy(ctx, sessionID)
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature;
// the API is the one that verifies it. ok is false for opaque tokens or
// tokens without exp.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
