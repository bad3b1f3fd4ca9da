package router

import (
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sellsmart/sellsmart-web/internal/config"
	"github.com/sellsmart/sellsmart-web/internal/domain/models"
	"github.com/sellsmart/sellsmart-web/internal/server/handlers"
	"github.com/sellsmart/sellsmart-web/internal/service/auth"
	"github.com/sellsmart/sellsmart-web/internal/service/fetch"
	"github.com/sellsmart/sellsmart-web/internal/service/listview"
	"github.com/sellsmart/sellsmart-web/internal/service/reporting"
	"github.com/sellsmart/sellsmart-web/internal/session"
	"github.com/sellsmart/sellsmart-web/pkg/clients/sellsmart"
	"github.com/sellsmart/sellsmart-web/web"
)

type stack struct {
	handler  http.Handler
	sessions *session.Manager
	api      *httptest.Server
}

func newStack(t *testing.T) *stack {
	t.Helper()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/inventory/all":
			_, _ = w.Write([]byte(`[{"id":1,"name":"Rice","quantity":4,"buyPrice":10,"sellPrice":12.5}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	t.Cleanup(api.Close)

	tmpl, err := web.Templates()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		t.Fatalf("static: %v", err)
	}

	client := sellsmart.NewClient(config.APIConfig{BaseURL: api.URL, Timeout: time.Second}, nil)
	sessions := session.NewManager(session.NewMemoryStore(), time.Hour)
	cookies := handlers.NewCookies(config.SessionConfig{CookieName: "sellsmart_session", TTL: time.Hour})
	boards := listview.NewBoards()
	seq := fetch.NewSequencer(time.Second)
	reports := reporting.NewService(client, nil)

	h := Handlers{
		Auth:           handlers.NewAuthHandler(auth.NewService(client, sessions, nil), sessions, cookies, nil),
		Inventory:      handlers.NewInventoryHandler(client, boards, handlers.NewInventoryEditors(), seq, cookies, nil),
		Records:        handlers.NewRecordsHandler(client, boards, seq, cookies, nil),
		Entry:          handlers.NewEntryHandler(client, handlers.NewEntryEditors(nil), seq, cookies, nil),
		Report:         handlers.NewReportHandler(reports, seq, cookies, nil),
		RequireSession: handlers.RequireSession(sessions, cookies, nil),
	}
	return &stack{handler: New(h, tmpl, static, nil), sessions: sessions, api: api}
}

func (s *stack) get(t *testing.T, method, path string, sess *models.Session) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if sess != nil {
		req.AddCookie(&http.Cookie{Name: "sellsmart_session", Value: sess.ID})
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newStack(t)
	rec := s.get(t, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRequestID(t *testing.T) {
	s := newStack(t)
	rec := s.get(t, http.MethodGet, "/healthz", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("request id not assigned")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("incoming request id should be kept, got %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestStaticAssets(t *testing.T) {
	s := newStack(t)
	if rec := s.get(t, http.MethodGet, "/static/app.css", nil); rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestUnknownRouteAndMethod(t *testing.T) {
	s := newStack(t)
	if rec := s.get(t, http.MethodGet, "/nope", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("404 expected, got %d", rec.Code)
	}
	if rec := s.get(t, http.MethodDelete, "/healthz", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("405 expected, got %d", rec.Code)
	}
}

func TestScreensRequireSession(t *testing.T) {
	s := newStack(t)
	for _, path := range []string{"/home", "/inventory", "/sales", "/add-sale", "/add-damage", "/report", "/report/month/2024/3"} {
		rec := s.get(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
			t.Fatalf("%s: code=%d location=%q", path, rec.Code, rec.Header().Get("Location"))
		}
	}
	if rec := s.get(t, http.MethodGet, "/", nil); rec.Code != http.StatusOK {
		t.Fatalf("login page: %d", rec.Code)
	}
}

func TestSignedInScreensRender(t *testing.T) {
	s := newStack(t)
	sess, err := s.sessions.Create(context.Background(), "owner@shop.com", "tok", time.Time{})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	rec := s.get(t, http.MethodGet, "/inventory", &sess)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Rice") {
		t.Fatalf("inventory: code=%d body=%s", rec.Code, rec.Body.String())
	}
	for _, path := range []string{"/home", "/sales?date=2024-03-05", "/ui/sales?date=2024-03-05", "/add-sale", "/add-damage", "/report?year=2024", "/report/month/2024/March"} {
		if rec := s.get(t, http.MethodGet, path, &sess); rec.Code != http.StatusOK {
			t.Fatalf("%s: code = %d", path, rec.Code)
		}
	}
}
