package sellsmart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/sellsmart/sellsmart-web/internal/config"
	"github.com/sellsmart/sellsmart-web/internal/domain/models"
)

// Client exposes the SellSmart REST API. Every method performs exactly one
// request; nothing is retried or cached.
type Client interface {
	CheckEmail(ctx context.Context, email string) (models.EmailStatus, error)
	Login(ctx context.Context, creds models.Credentials) (AuthResult, error)
	Register(ctx context.Context, creds models.Credentials) (AuthResult, error)

	InventoryNames(ctx context.Context, sess models.Session) ([]string, error)
	ListInventory(ctx context.Context, sess models.Session) ([]models.InventoryItem, error)
	AddInventoryItem(ctx context.Context, sess models.Session, item models.InventoryItem) error
	UpdateInventoryItem(ctx context.Context, sess models.Session, item models.InventoryItem) error
	DeleteInventoryItem(ctx context.Context, sess models.Session, id models.ID) error

	AddSales(ctx context.Context, sess models.Session, date models.Date, lines []models.SaleLine) error
	ListSales(ctx context.Context, sess models.Session, date models.Date) ([]models.SaleRecord, error)
	UpdateSale(ctx context.Context, sess models.Session, date models.Date, sale models.SaleRecord) error
	DeleteSale(ctx context.Context, sess models.Session, date models.Date, id models.ID) error
	SalesBetween(ctx context.Context, sess models.Session, from, to models.Date) ([]models.SaleRecord, error)
	MonthlyProfitSummary(ctx context.Context, sess models.Session, monthKey string) ([]models.ProfitEntry, error)
	YearlyProfitSummary(ctx context.Context, sess models.Session, year int) ([]models.ProfitEntry, error)

	ReportDamages(ctx context.Context, sess models.Session, date models.Date, lines []models.DamageLine) error
	ListDamages(ctx context.Context, sess models.Session, date models.Date) ([]models.DamageRecord, error)
	UpdateDamage(ctx context.Context, sess models.Session, date models.Date, damage models.DamageRecord) error
	DeleteDamage(ctx context.Context, sess models.Session, date models.Date, id models.ID) error
	DamagesBetween(ctx context.Context, sess models.Session, from, to models.Date) ([]models.DamageRecord, error)
}

// AuthResult is the answer of login and register. The API replies either with
// a token object or with a plain text message.
type AuthResult struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient builds a SellSmart API client using the provided configuration values.
func NewClient(cfg config.APIConfig, logger *zap.Logger) *APIClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &APIClient{
		httpClient: restyClient,
		logger:     logger,
	}
}

// call describes one request. A nil session marks the unauthenticated auth
// endpoints, where 401/403 carry a user-facing message instead of meaning the
// session is gone.
type call struct {
	op      string
	method  string
	path    string
	session *models.Session
	query   map[string]string
	pathID  models.ID
	body    any
	out     any
}

func (c *APIClient) do(ctx context.Context, cl call) ([]byte, error) {
	req := c.httpClient.R().SetContext(ctx)

	query := map[string]string{}
	for k, v := range cl.query {
		query[k] = v
	}
	if cl.session != nil {
		query["email"] = models.NormalizeEmail(cl.session.Email)
		if cl.session.Token != "" {
			req.SetAuthToken(cl.session.Token)
		}
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if !cl.pathID.IsZero() {
		req.SetPathParam("id", cl.pathID.String())
	}
	if cl.body != nil {
		req.SetBody(cl.body)
	}

	start := time.Now()
	resp, err := req.Execute(cl.method, cl.path)
	if err != nil {
		c.logger.Warn("sellsmart request failed",
			zap.String("op", cl.op),
			zap.String("method", cl.method),
			zap.String("path", cl.path),
			zap.Error(err),
		)
		return nil, &models.NetworkError{Op: cl.op, Err: err}
	}

	status := resp.StatusCode()
	c.logger.Debug("sellsmart request",
		zap.String("op", cl.op),
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)),
	)

	body := resp.Body()
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		message := errorMessage(body)
		c.logger.Warn("sellsmart api error",
			zap.String("op", cl.op),
			zap.Int("status", status),
			zap.String("message", message),
		)
		if cl.session != nil && (status == http.StatusUnauthorized || status == http.StatusForbidden) {
			return nil, &models.AuthError{Reason: fmt.Sprintf("%s: %d", cl.op, status)}
		}
		return nil, &models.ServerError{Op: cl.op, StatusCode: status, Message: message}
	}

	if cl.out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, cl.out); err != nil {
			return nil, &models.ServerError{Op: cl.op, StatusCode: status, Message: "unreadable response: " + err.Error()}
		}
	}
	return body, nil
}

// errorMessage extracts a short message from an error body that is either
// plain text, a JSON string or an object with a message field.
func errorMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	switch body[0] {
	case '"':
		var s string
		if json.Unmarshal(body, &s) == nil {
			return s
		}
	case '{':
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(body, &payload) == nil {
			if payload.Message != "" {
				return payload.Message
			}
			return payload.Error
		}
	}
	msg := string(body)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func dateQuery(date models.Date) map[string]string {
	return map[string]string{"date": date.String()}
}

func rangeQuery(from, to models.Date) map[string]string {
	return map[string]string{"from": from.String(), "to": to.String()}
}

func (c *APIClient) CheckEmail(ctx context.Context, email string) (models.EmailStatus, error) {
	var status models.EmailStatus
	_, err := c.do(ctx, call{
		op:     "check email",
		method: resty.MethodGet,
		path:   "/api/auth/check-email",
		query:  map[string]string{"email": models.NormalizeEmail(email)},
		out:    &status,
	})
	return status, err
}

func (c *APIClient) Login(ctx context.Context, creds models.Credentials) (AuthResult, error) {
	return c.authenticate(ctx, "login", "/api/auth/login", creds)
}

func (c *APIClient) Register(ctx context.Context, creds models.Credentials) (AuthResult, error) {
	return c.authenticate(ctx, "register", "/api/auth/register", creds)
}

func (c *APIClient) authenticate(ctx context.Context, op, path string, creds models.Credentials) (AuthResult, error) {
	creds.Email = models.NormalizeEmail(creds.Email)
	body, err := c.do(ctx, call{op: op, method: resty.MethodPost, path: path, body: creds})
	if err != nil {
		return AuthResult{}, err
	}

	var result AuthResult
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &result) == nil {
		return result, nil
	}
	result.Message = errorMessage(trimmed)
	return result, nil
}

func (c *APIClient) InventoryNames(ctx context.Context, sess models.Session) ([]string, error) {
	var names []string
	_, err := c.do(ctx, call{op: "list inventory names", method: resty.MethodGet, path: "/api/inventory/list", session: &sess, out: &names})
	return names, err
}

func (c *APIClient) ListInventory(ctx context.Context, sess models.Session) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	_, err := c.do(ctx, call{op: "list inventory", method: resty.MethodGet, path: "/api/inventory/all", session: &sess, out: &items})
	return items, err
}

func (c *APIClient) AddInventoryItem(ctx context.Context, sess models.Session, item models.InventoryItem) error {
	item.ID = ""
	_, err := c.do(ctx, call{op: "add inventory item", method: resty.MethodPost, path: "/api/inventory/add", session: &sess, body: item})
	return err
}

func (c *APIClient) UpdateInventoryItem(ctx context.Context, sess models.Session, item models.InventoryItem) error {
	if item.ID.IsZero() {
		return models.NewValidationError("id", "is required to update an item")
	}
	_, err := c.do(ctx, call{op: "update inventory item", method: resty.MethodPut, path: "/api/inventory/update/{id}", session: &sess, pathID: item.ID, body: item})
	return err
}

func (c *APIClient) DeleteInventoryItem(ctx context.Context, sess models.Session, id models.ID) error {
	if id.IsZero() {
		return models.NewValidationError("id", "is required to delete an item")
	}
	_, err := c.do(ctx, call{op: "delete inventory item", method: resty.MethodDelete, path: "/api/inventory/delete/{id}", session: &sess, pathID: id})
	return err
}

func (c *APIClient) AddSales(ctx context.Context, sess models.Session, date models.Date, lines []models.SaleLine) error {
	_, err := c.do(ctx, call{op: "add sales", method: resty.MethodPost, path: "/api/sales/add", session: &sess, query: dateQuery(date), body: lines})
	return err
}

func (c *APIClient) ListSales(ctx context.Context, sess models.Session, date models.Date) ([]models.SaleRecord, error) {
	var sales []models.SaleRecord
	_, err := c.do(ctx, call{op: "list sales", method: resty.MethodGet, path: "/api/sales/view", session: &sess, query: dateQuery(date), out: &sales})
	return sales, err
}

func (c *APIClient) UpdateSale(ctx context.Context, sess models.Session, date models.Date, sale models.SaleRecord) error {
	if sale.ID.IsZero() {
		return models.NewValidationError("id", "is required to update a sale")
	}
	_, err := c.do(ctx, call{op: "update sale", method: resty.MethodPut, path: "/api/sales/update/{id}", session: &sess, query: dateQuery(date), pathID: sale.ID, body: sale})
	return err
}

func (c *APIClient) DeleteSale(ctx context.Context, sess models.Session, date models.Date, id models.ID) error {
	if id.IsZero() {
		return models.NewValidationError("id", "is required to delete a sale")
	}
	_, err := c.do(ctx, call{op: "delete sale", method: resty.MethodDelete, path: "/api/sales/delete/{id}", session: &sess, query: dateQuery(date), pathID: id})
	return err
}

func (c *APIClient) SalesBetween(ctx context.Context, sess models.Session, from, to models.Date) ([]models.SaleRecord, error) {
	var sales []models.SaleRecord
	_, err := c.do(ctx, call{op: "sales between", method: resty.MethodGet, path: "/api/sales/between", session: &sess, query: rangeQuery(from, to), out: &sales})
	return sales, err
}

func (c *APIClient) MonthlyProfitSummary(ctx context.Context, sess models.Session, monthKey string) ([]models.ProfitEntry, error) {
	var entries []models.ProfitEntry
	_, err := c.do(ctx, call{
		op:      "monthly profit summary",
		method:  resty.MethodGet,
		path:    "/api/sales/profit-summary",
		session: &sess,
		query:   map[string]string{"month": monthKey},
		out:     &entries,
	})
	return entries, err
}

func (c *APIClient) YearlyProfitSummary(ctx context.Context, sess models.Session, year int) ([]models.ProfitEntry, error) {
	var entries []models.ProfitEntry
	_, err := c.do(ctx, call{
		op:      "yearly profit summary",
		method:  resty.MethodGet,
		path:    "/api/sales/yearly-profit-summary",
		session: &sess,
		query:   map[string]string{"year": strconv.Itoa(year)},
		out:     &entries,
	})
	return entries, err
}

func (c *APIClient) ReportDamages(ctx context.Context, sess models.Session, date models.Date, lines []models.DamageLine) error {
	_, err := c.do(ctx, call{op: "report damages", method: resty.MethodPost, path: "/api/damages/report", session: &sess, query: dateQuery(date), body: lines})
	return err
}

func (c *APIClient) ListDamages(ctx context.Context, sess models.Session, date models.Date) ([]models.DamageRecord, error) {
	var damages []models.DamageRecord
	_, err := c.do(ctx, call{op: "list damages", method: resty.MethodGet, path: "/api/damages/view", session: &sess, query: dateQuery(date), out: &damages})
	return damages, err
}

func (c *APIClient) UpdateDamage(ctx context.Context, sess models.Session, date models.Date, damage models.DamageRecord) error {
	if damage.ID.IsZero() {
		return models.NewValidationError("id", "is required to update a damage record")
	}
	_, err := c.do(ctx, call{op: "update damage", method: resty.MethodPut, path: "/api/damages/update/{id}", session: &sess, query: dateQuery(date), pathID: damage.ID, body: damage})
	return err
}

func (c *APIClient) DeleteDamage(ctx context.Context, sess models.Session, date models.Date, id models.ID) error {
	if id.IsZero() {
		return models.NewValidationError("id", "is required to delete a damage record")
	}
	_, err := c.do(ctx, call{op: "delete damage", method: resty.MethodDelete, path: "/api/damages/delete/{id}", session: &sess, query: dateQuery(date), pathID: id})
	return err
}

func (c *APIClient) DamagesBetween(ctx context.Context, sess models.Session, from, to models.Date) ([]models.DamageRecord, error) {
	var damages []models.DamageRecord
	_, err := c.do(ctx, call{op: "damages between", method: resty.MethodGet, path: "/api/damages/between", session: &sess, query: rangeQuery(from, to), out: &damages})
	return damages, err
}
