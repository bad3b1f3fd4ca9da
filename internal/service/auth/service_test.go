package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/sellsmart/sellsmart-web/internal/domain/models"
	"github.com/sellsmart/sellsmart-web/internal/session"
	"github.com/sellsmart/sellsmart-web/pkg/clients/sellsmart"
)

type fakeGateway struct {
	status   models.EmailStatus
	checkErr error
	token    string
	message  string
	loginErr error
	calls    []string
}

func (f *fakeGateway) CheckEmail(ctx context.Context, email string) (models.EmailStatus, error) {
	f.calls = append(f.calls, "check:"+email)
	return f.status, f.checkErr
}

func (f *fakeGateway) Login(ctx context.Context, creds models.Credentials) (sellsmart.AuthResult, error) {
	f.calls = append(f.calls, "login:"+creds.Email)
	return sellsmart.AuthResult{Token: f.token, Message: f.message}, f.loginErr
}

func (f *fakeGateway) Register(ctx context.Context, creds models.Credentials) (sellsmart.AuthResult, error) {
	f.calls = append(f.calls, "register:"+creds.Email)
	return sellsmart.AuthResult{Token: f.token, Message: f.message}, f.loginErr
}

func newService(gw *fakeGateway) (*Service, *session.Manager) {
	mgr := session.NewManager(session.NewMemoryStore(), time.Hour)
	return NewService(gw, mgr, nil), mgr
}

func TestCheckEmailSteps(t *testing.T) {
	cases := []struct {
		status models.EmailStatus
		want   Step
		err    error
	}{
		{models.EmailStatus{Authorized: false}, StepEmail, ErrNotAuthorized},
		{models.EmailStatus{Authorized: true, Registered: true}, StepLogin, nil},
		{models.EmailStatus{Authorized: true, Registered: false}, StepSignup, nil},
	}
	for _, tc := range cases {
		svc, _ := newService(&fakeGateway{status: tc.status})
		step, err := svc.CheckEmail(context.Background(), "owner@shop.com")
		if step != tc.want || !errors.Is(err, tc.err) {
			t.Fatalf("status %+v: step=%s err=%v", tc.status, step, err)
		}
	}
}

func TestBlankEmailIsRejectedLocally(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newService(gw)
	if _, err := svc.CheckEmail(context.Background(), "  "); !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(gw.calls) != 0 {
		t.Fatalf("no call expected, got %v", gw.calls)
	}
}

func TestSignupRequiresMatchingPasswords(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newService(gw)
	_, err := svc.Submit(context.Background(), Draft{Step: StepSignup, Email: "a@b.c", Password: "one", Confirm: "two"})
	var ve *models.ValidationError
	if !errors.As(err, &ve) || ve.Message != "Passwords do not match" {
		t.Fatalf("expected mismatch error, got %v", err)
	}
	if len(gw.calls) != 0 {
		t.Fatalf("no call expected, got %v", gw.calls)
	}
}

func TestLoginWithJWTUsesExpClaim(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "owner@shop.com",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	gw := &fakeGateway{token: token}
	svc, mgr := newService(gw)
	out, err := svc.Submit(context.Background(), Draft{Step: StepLogin, Email: " Owner@Shop.com ", Password: "pw"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !out.Session.ExpiresAt.Equal(exp) {
		t.Fatalf("expiry = %v, want %v", out.Session.ExpiresAt, exp)
	}
	if out.Session.Email != "owner@shop.com" || out.Session.Token != token {
		t.Fatalf("session = %+v", out.Session)
	}
	if gw.calls[0] != "login:owner@shop.com" {
		t.Fatalf("calls = %v", gw.calls)
	}

	if _, err := mgr.Lookup(context.Background(), out.Session.ID); err != nil {
		t.Fatalf("session not stored: %v", err)
	}
	if err := svc.Logout(context.Background(), out.Session.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := mgr.Lookup(context.Background(), out.Session.ID); !errors.Is(err, models.ErrAuth) {
		t.Fatalf("logout should end the session")
	}
}

func TestRegisterWithPlainMessageUsesTTL(t *testing.T) {
	gw := &fakeGateway{message: "User registered successfully"}
	svc, _ := newService(gw)
	before := time.Now()
	out, err := svc.Submit(context.Background(), Draft{Step: StepSignup, Email: "a@b.c", Password: "pw", Confirm: "pw"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Message != "User registered successfully" || out.Session.Token != "" {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Session.ExpiresAt.Before(before.Add(59 * time.Minute)) {
		t.Fatalf("expiry should come from TTL, got %v", out.Session.ExpiresAt)
	}
	if gw.calls[0] != "register:a@b.c" {
		t.Fatalf("calls = %v", gw.calls)
	}
}

func TestFailedLoginCreatesNoSession(t *testing.T) {
	gw := &fakeGateway{loginErr: &models.ServerError{Op: "login", StatusCode: 401, Message: "Invalid credentials"}}
	svc, _ := newService(gw)
	_, err := svc.Submit(context.Background(), Draft{Step: StepLogin, Email: "a@b.c", Password: "bad"})
	if !errors.Is(err, models.ErrServer) {
		t.Fatalf("expected server error, got %v", err)
	}
}

func TestTokenExpiryOpaque(t *testing.T) {
	for _, tok := range []string{"", "opaque-token", "a.b.c"} {
		if _, ok := TokenExpiry(tok); ok {
			t.Fatalf("%q should have no expiry", tok)
		}
	}
}
