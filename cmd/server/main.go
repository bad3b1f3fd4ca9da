package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/sellsmart/sellsmart-web/internal/config"
	"github.com/sellsmart/sellsmart-web/internal/repository/mongodb"
	"github.com/sellsmart/sellsmart-web/internal/repository/sheets"
	"github.com/sellsmart/sellsmart-web/internal/scheduler"
	"github.com/sellsmart/sellsmart-web/internal/server/handlers"
	"github.com/sellsmart/sellsmart-web/internal/server/router"
	authsvc "github.com/sellsmart/sellsmart-web/internal/service/auth"
	"github.com/sellsmart/sellsmart-web/internal/service/fetch"
	"github.com/sellsmart/sellsmart-web/internal/service/listview"
	reportingsvc "github.com/sellsmart/sellsmart-web/internal/service/reporting"
	"github.com/sellsmart/sellsmart-web/internal/session"
	"github.com/sellsmart/sellsmart-web/pkg/clients/sellsmart"
	"github.com/sellsmart/sellsmart-web/pkg/logger"
	"github.com/sellsmart/sellsmart-web/web"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mongoRepo *mongodb.MongoDBRepository
	if cfg.MongoDB.Enabled() {
		mongoRepo, err = mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
	}

	var store session.Store
	switch cfg.Session.Backend {
	case config.SessionBackendMongo:
		store = mongoRepo
	default:
		mem := session.NewMemoryStore()
		go purgeExpiredSessions(ctx, mem, time.Minute, baseLogger.Named("session"))
		store = mem
	}
	sessions := session.NewManager(store, cfg.Session.TTL)

	apiClient := sellsmart.NewClient(cfg.API, baseLogger.Named("client.sellsmart"))

	var reportOpts []reportingsvc.Option
	if mongoRepo != nil {
		reportOpts = append(reportOpts, reportingsvc.WithSnapshotStore(mongoRepo))
	}
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		reportOpts = append(reportOpts, reportingsvc.WithExporter(sheets.NewReportExporter(sheetsRepo, baseLogger.Named("repo.sheets"))))
		baseLogger.Info("google sheets export enabled")
	} else {
		baseLogger.Warn("google sheets not configured, report export disabled")
	}
	reportingSvc := reportingsvc.NewService(apiClient, baseLogger.Named("svc.reporting"), reportOpts...)
	authSvc := authsvc.NewService(apiClient, sessions, baseLogger.Named("svc.auth"))

	boards := listview.NewBoards()
	inventoryEditors := handlers.NewInventoryEditors()
	entryEditors := handlers.NewEntryEditors(time.Now)
	seq := fetch.NewSequencer(cfg.View.FetchTimeout)
	cookies := handlers.NewCookies(cfg.Session)

	tmpl, err := web.Templates()
	if err != nil {
		baseLogger.Fatal("failed to parse templates", zap.Error(err))
	}
	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		baseLogger.Fatal("failed to mount static assets", zap.Error(err))
	}

	engine := router.New(router.Handlers{
		Auth: handlers.NewAuthHandler(authSvc, sessions, cookies, baseLogger.Named("handlers.auth"),
			boards.Drop, inventoryEditors.Drop, entryEditors.Drop, seq.Forget),
		Inventory:      handlers.NewInventoryHandler(apiClient, boards, inventoryEditors, seq, cookies, baseLogger.Named("handlers.inventory")),
		Records:        handlers.NewRecordsHandler(apiClient, boards, seq, cookies, baseLogger.Named("handlers.sales")),
		Entry:          handlers.NewEntryHandler(apiClient, entryEditors, seq, cookies, baseLogger.Named("handlers.entry")),
		Report:         handlers.NewReportHandler(reportingSvc, seq, cookies, baseLogger.Named("handlers.report")),
		RequireSession: handlers.RequireSession(sessions, cookies, baseLogger.Named("handlers.session")),
	}, tmpl, static, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("api", cfg.API.BaseURL),
			zap.String("session_backend", cfg.Session.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func purgeExpiredSessions(ctx context.Context, store *session.MemoryStore, every time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := store.PurgeExpired(now); n > 0 {
				logger.Debug("expired sessions purged", zap.Int("count", n))
			}
		}
	}
}
