package router

import (
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sellsmart/sellsmart-web/internal/server/handlers"
	"github.com/sellsmart/sellsmart-web/internal/service/listview"
)

// Handlers groups the HTTP adapters the router mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Inventory *handlers.InventoryHandler
	Records   *handlers.RecordsHandler
	Entry     *handlers.EntryHandler
	Report    *handlers.ReportHandler

	// RequireSession guards every screen behind sign-in.
	RequireSession gin.HandlerFunc
}

// New wires the Gin engine with required routes and middlewares. static may be
// nil when assets are served elsewhere.
func New(h Handlers, templates *template.Template, static fs.FS, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))
	r.SetHTMLTemplate(templates)

	if static != nil {
		r.StaticFS("/static", http.FS(static))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/", h.Auth.LoginPage)
	r.POST("/auth/check-email", h.Auth.CheckEmail)
	r.POST("/auth/login", h.Auth.Login)
	r.POST("/auth/register", h.Auth.Register)
	r.POST("/logout", h.Auth.Logout)

	app := r.Group("/")
	app.Use(h.RequireSession)

	app.GET("/home", h.Auth.Home)

	app.GET("/inventory", h.Inventory.List)
	app.POST("/inventory", h.Inventory.Save)
	app.GET("/inventory/:id/edit", h.Inventory.Edit)
	app.POST("/inventory/:id/delete", h.Inventory.RequestDelete)
	app.POST("/inventory/delete/confirm", h.Inventory.ConfirmDelete)
	app.POST("/inventory/delete/cancel", h.Inventory.CancelDelete)

	app.GET("/sales", h.Records.Page)
	app.GET("/ui/sales", h.Records.Partial)
	for prefix, kind := range map[string]listview.Kind{
		"/sales":   listview.KindSale,
		"/damages": listview.KindDamage,
	} {
		app.POST(prefix+"/:id/edit", h.Records.Edit(kind))
		app.POST(prefix+"/:id/save", h.Records.Save(kind))
		app.POST(prefix+"/:id/cancel", h.Records.Cancel(kind))
		app.POST(prefix+"/:id/delete", h.Records.RequestDelete(kind))
	}
	app.POST("/records/delete/confirm", h.Records.ConfirmDelete)
	app.POST("/records/delete/cancel", h.Records.CancelDelete)

	app.GET("/add-sale", h.Entry.SaleForm)
	app.POST("/add-sale", h.Entry.AddSale)
	app.GET("/add-damage", h.Entry.DamageForm)
	app.POST("/add-damage", h.Entry.AddDamage)

	app.GET("/report", h.Report.Yearly)
	app.GET("/report/month/:year/:month", h.Report.Month)

	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "page not found")
	})
	r.NoMethod(func(c *gin.Context) {
		c.String(http.StatusMethodNotAllowed, "method not allowed")
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

const requestIDHeader = "X-Request-ID"

// requestIDMiddleware keeps an incoming X-Request-ID or assigns a new one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDHeader)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}
