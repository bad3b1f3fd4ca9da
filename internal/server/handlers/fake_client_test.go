package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sellsmart/sellsmart-web/internal/config"
	"github.com/sellsmart/sellsmart-web/internal/domain/models"
	"github.com/sellsmart/sellsmart-web/internal/service/auth"
	"github.com/sellsmart/sellsmart-web/internal/service/fetch"
	"github.com/sellsmart/sellsmart-web/internal/service/listview"
	"github.com/sellsmart/sellsmart-web/internal/service/reporting"
	"github.com/sellsmart/sellsmart-web/internal/session"
	"github.com/sellsmart/sellsmart-web/pkg/clients/sellsmart"
	"github.com/sellsmart/sellsmart-web/web"
)

type fakeClient struct {
	mu sync.Mutex

	status models.EmailStatus
	auth   sellsmart.AuthResult

	items   []models.InventoryItem
	names   []string
	sales   []models.SaleRecord
	damages []models.DamageRecord
	yearly  []models.ProfitEntry
	monthly []models.ProfitEntry

	// err is returned by every call when set.
	err error

	added           []models.InventoryItem
	updated         []models.InventoryItem
	deletedItems    []models.ID
	addedSales      []models.SaleLine
	reportedDamages []models.DamageLine
	updatedSales    []models.SaleRecord
	updatedDamages  []models.DamageRecord
	deletedSales    []models.ID
	deletedDamages  []models.ID
	monthKeys       []string
	lineDates       []models.Date
}

func (f *fakeClient) CheckEmail(ctx context.Context, email string) (models.EmailStatus, error) {
	return f.status, f.err
}

func (f *fakeClient) Login(ctx context.Context, creds models.Credentials) (sellsmart.AuthResult, error) {
	return f.auth, f.err
}

func (f *fakeClient) Register(ctx context.Context, creds models.Credentials) (sellsmart.AuthResult, error) {
	return f.auth, f.err
}

func (f *fakeClient) InventoryNames(ctx context.Context, sess models.Session) ([]string, error) {
	return f.names, f.err
}

func (f *fakeClient) ListInventory(ctx context.Context, sess models.Session) ([]models.InventoryItem, error) {
	return f.items, f.err
}

func (f *fakeClient) AddInventoryItem(ctx context.Context, sess models.Session, item models.InventoryItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, item)
	return f.err
}

func (f *fakeClient) UpdateInventoryItem(ctx context.Context, sess models.Session, item models.InventoryItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, item)
	return f.err
}

func (f *fakeClient) DeleteInventoryItem(ctx context.Context, sess models.Session, id models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedItems = append(f.deletedItems, id)
	return f.err
}

func (f *fakeClient) AddSales(ctx context.Context, sess models.Session, date models.Date, lines []models.SaleLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addedSales = append(f.addedSales, lines...)
	f.lineDates = append(f.lineDates, date)
	return f.err
}

func (f *fakeClient) ListSales(ctx context.Context, sess models.Session, date models.Date) ([]models.SaleRecord, error) {
	return f.sales, f.err
}

func (f *fakeClient) UpdateSale(ctx context.Context, sess models.Session, date models.Date, sale models.SaleRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updatedSales = append(f.updatedSales, sale)
	return f.err
}

func (f *fakeClient) DeleteSale(ctx context.Context, sess models.Session, date models.Date, id models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedSales = append(f.deletedSales, id)
	return f.err
}

func (f *fakeClient) SalesBetween(ctx context.Context, sess models.Session, from, to models.Date) ([]models.SaleRecord, error) {
	return f.sales, f.err
}

func (f *fakeClient) MonthlyProfitSummary(ctx context.Context, sess models.Session, monthKey string) ([]models.ProfitEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monthKeys = append(f.monthKeys, monthKey)
	return f.monthly, f.err
}

func (f *fakeClient) YearlyProfitSummary(ctx context.Context, sess models.Session, year int) ([]models.ProfitEntry, error) {
	return f.yearly, f.err
}

func (f *fakeClient) ReportDamages(ctx context.Context, sess models.Session, date models.Date, lines []models.DamageLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reportedDamages = append(f.reportedDamages, lines...)
	f.lineDates = append(f.lineDates, date)
	return f.err
}

func (f *fakeClient) ListDamages(ctx context.Context, sess models.Session, date models.Date) ([]models.DamageRecord, error) {
	return f.damages, f.err
}

func (f *fakeClient) UpdateDamage(ctx context.Context, sess models.Session, date models.Date, damage models.DamageRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updatedDamages = append(f.updatedDamages, damage)
	return f.err
}

func (f *fakeClient) DeleteDamage(ctx context.Context, sess models.Session, date models.Date, id models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedDamages = append(f.deletedDamages, id)
	return f.err
}

func (f *fakeClient) DamagesBetween(ctx context.Context, sess models.Session, from, to models.Date) ([]models.DamageRecord, error) {
	return f.damages, f.err
}

var testNow = time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)

type testApp struct {
	t         *testing.T
	engine    *gin.Engine
	client    *fakeClient
	sessions  *session.Manager
	store     *session.MemoryStore
	boards    *listview.Boards
	sess      models.Session
	loggedOut []string
}

// newTestApp mounts every handler on a fresh engine and opens a session.
func newTestApp(t *testing.T, client *fakeClient) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmpl, err := web.Templates()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}

	store := session.NewMemoryStore()
	sessions := session.NewManager(store, time.Hour)
	cookies := NewCookies(config.SessionConfig{CookieName: "sellsmart_session", TTL: time.Hour})
	boards := listview.NewBoards()
	seq := fetch.NewSequencer(time.Second)

	app := &testApp{t: t, client: client, sessions: sessions, store: store, boards: boards}

	authH := NewAuthHandler(auth.NewService(client, sessions, nil), sessions, cookies, nil,
		func(id string) { app.loggedOut = append(app.loggedOut, id) },
		boards.Drop,
	)
	invH := NewInventoryHandler(client, boards, NewInventoryEditors(), seq, cookies, nil)
	recH := NewRecordsHandler(client, boards, seq, cookies, nil)
	recH.now = func() time.Time { return testNow }
	entryH := NewEntryHandler(client, NewEntryEditors(func() time.Time { return testNow }), seq, cookies, nil)
	reportH := NewReportHandler(reporting.NewService(client, nil, reporting.WithClock(func() time.Time { return testNow })), seq, cookies, nil)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.GET("/", authH.LoginPage)
	r.POST("/auth/check-email", authH.CheckEmail)
	r.POST("/auth/login", authH.Login)
	r.POST("/auth/register", authH.Register)
	r.POST("/logout", authH.Logout)

	g := r.Group("/", RequireSession(sessions, cookies, nil))
	g.GET("/home", authH.Home)
	g.GET("/inventory", invH.List)
	g.POST("/inventory", invH.Save)
	g.GET("/inventory/:id/edit", invH.Edit)
	g.POST("/inventory/:id/delete", invH.RequestDelete)
	g.POST("/inventory/delete/confirm", invH.ConfirmDelete)
	g.POST("/inventory/delete/cancel", invH.CancelDelete)
	g.GET("/sales", recH.Page)
	g.GET("/ui/sales", recH.Partial)
	g.POST("/sales/:id/edit", recH.Edit(listview.KindSale))
	g.POST("/sales/:id/save", recH.Save(listview.KindSale))
	g.POST("/sales/:id/cancel", recH.Cancel(listview.KindSale))
	g.POST("/sales/:id/delete", recH.RequestDelete(listview.KindSale))
	g.POST("/damages/:id/edit", recH.Edit(listview.KindDamage))
	g.POST("/damages/:id/save", recH.Save(listview.KindDamage))
	g.POST("/damages/:id/delete", recH.RequestDelete(listview.KindDamage))
	g.POST("/records/delete/confirm", recH.ConfirmDelete)
	g.POST("/records/delete/cancel", recH.CancelDelete)
	g.GET("/add-sale", entryH.SaleForm)
	g.POST("/add-sale", entryH.AddSale)
	g.GET("/add-damage", entryH.DamageForm)
	g.POST("/add-damage", entryH.AddDamage)
	g.GET("/report", reportH.Yearly)
	g.GET("/report/month/:year/:month", reportH.Month)
	app.engine = r

	sess, err := sessions.Create(context.Background(), "owner@shop.com", "tok", time.Time{})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	app.sess = sess
	return app
}

// do sends a request carrying the session cookie. A nil form sends a GET.
func (a *testApp) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	return a.doWith(method, path, form, true)
}

func (a *testApp) doWith(method, path string, form url.Values, withSession bool) *httptest.ResponseRecorder {
	a.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if withSession {
		req.AddCookie(&http.Cookie{Name: "sellsmart_session", Value: a.sess.ID})
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func flashOf(rec *httptest.ResponseRecorder) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashCookie && c.Value != "" {
			v, err := url.QueryUnescape(c.Value)
			if err != nil {
				return ""
			}
			_, msg, _ := strings.Cut(v, "|")
			return msg
		}
	}
	return ""
}

func sessionCookieCleared(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sellsmart_session" && c.MaxAge < 0 {
			return true
		}
	}
	return false
}

func mustDate(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}
