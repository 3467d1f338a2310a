package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/mamadbah2/kitchenstock/internal/config"
	"github.com/mamadbah2/kitchenstock/internal/domain/models"
	"github.com/mamadbah2/kitchenstock/internal/messaging"
	"github.com/mamadbah2/kitchenstock/internal/metrics"
	"github.com/mamadbah2/kitchenstock/internal/repository/filestore"
	"github.com/mamadbah2/kitchenstock/internal/repository/mongodb"
	"github.com/mamadbah2/kitchenstock/internal/repository/seed"
	"github.com/mamadbah2/kitchenstock/internal/repository/sheets"
	"github.com/mamadbah2/kitchenstock/internal/scheduler"
	"github.com/mamadbah2/kitchenstock/internal/server/handlers"
	"github.com/mamadbah2/kitchenstock/internal/server/realtime"
	"github.com/mamadbah2/kitchenstock/internal/server/router"
	"github.com/mamadbah2/kitchenstock/internal/service/catalog"
	"github.com/mamadbah2/kitchenstock/internal/service/events"
	"github.com/mamadbah2/kitchenstock/internal/service/inbox"
	"github.com/mamadbah2/kitchenstock/internal/service/orders"
	reportingsvc "github.com/mamadbah2/kitchenstock/internal/service/reporting"
	"github.com/mamadbah2/kitchenstock/internal/service/serving"
	"github.com/mamadbah2/kitchenstock/internal/service/stock"
	"github.com/mamadbah2/kitchenstock/internal/transport"
	whatsappclient "github.com/mamadbah2/kitchenstock/pkg/clients/whatsapp"
	"github.com/mamadbah2/kitchenstock/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Transport and event pipeline.
	supervisor := transport.NewSupervisor(transport.Config{
		ConnectTimeout:    cfg.Realtime.ConnectTimeout,
		ReconnectAttempts: cfg.Realtime.ReconnectAttempts,
		ReconnectBackoff:  cfg.Realtime.ReconnectBackoff,
	}, transport.WebsocketFactory(cfg.Realtime.URL, baseLogger.Named("transport.live")), baseLogger.Named("transport"), m)
	defer func() {
		if err := supervisor.Close(); err != nil {
			baseLogger.Error("failed to close transport", zap.Error(err))
		}
	}()

	var routerOpts []events.Option
	if cfg.Kafka.Enabled() {
		mirror := messaging.NewKafkaMirror(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := mirror.Close(); err != nil {
				baseLogger.Error("failed to close kafka mirror", zap.Error(err))
			}
		}()
		routerOpts = append(routerOpts, events.WithMirror(mirror))
		baseLogger.Info("kafka mirror enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	eventRouter := events.NewRouter(supervisor, models.Actor{Name: "system"}, baseLogger.Named("svc.events"), routerOpts...)

	notifications := inbox.New(filestore.NewNotificationStore(cfg.Server.InboxPath), baseLogger.Named("svc.inbox"), m)
	detach := eventRouter.Attach(events.Viewer{
		ID:   cfg.Viewer.ID,
		Name: cfg.Viewer.Name,
		Role: models.Role(cfg.Viewer.Role),
	}, notifications.Deliver)
	defer detach()

	// Stock, recipes and serving.
	ledger := stock.NewLedger(baseLogger.Named("svc.ledger"))
	recipes, _ := catalog.New()
	if cfg.Server.SeedPath != "" {
		file, err := seed.Load(cfg.Server.SeedPath)
		if err != nil {
			baseLogger.Fatal("failed to load seed", zap.Error(err))
		}
		if err := file.Apply(ledger, recipes); err != nil {
			baseLogger.Fatal("failed to apply seed", zap.Error(err))
		}
		baseLogger.Info("seed applied",
			zap.Int("ingredients", len(file.Ingredients)),
			zap.Int("recipes", len(file.Recipes)))
	}

	stockSvc := stock.NewService(ledger, eventRouter, baseLogger.Named("svc.stock"))
	engine := serving.NewEngine(ledger, recipes, eventRouter, baseLogger.Named("svc.serving"), serving.WithMetrics(m))
	recipeEditor := catalog.NewEditor(recipes, eventRouter, baseLogger.Named("svc.recipes"))
	orderSvc := orders.NewService(stockSvc, eventRouter, baseLogger.Named("svc.orders"))

	// Reporting and scheduled jobs.
	var archives []scheduler.Archive
	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewReportRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archives = append(archives, mongoRepo)
	}
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		archives = append(archives, sheets.NewReportSheet(sheetsRepo))
	}

	schedOpts := []scheduler.Option{scheduler.WithArchives(archives...)}
	if cfg.WhatsApp.Enabled() {
		schedOpts = append(schedOpts, scheduler.WithAlerts(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.AlertRecipient))
		baseLogger.Info("whatsapp low-stock alerts enabled")
	} else {
		baseLogger.Warn("whatsapp credentials missing, low-stock alerts disabled")
	}

	reportingSvc := reportingsvc.NewService(engine, ledger, baseLogger.Named("svc.reporting"))
	sched, err := scheduler.NewScheduler(cfg.Reporting, ledger, reportingSvc, eventRouter, baseLogger.Named("scheduler"), schedOpts...)
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	// HTTP surface.
	hub := realtime.NewHub(baseLogger.Named("realtime"))
	engineHTTP := router.New(router.Handlers{
		Inventory:     handlers.NewInventoryHandler(stockSvc, baseLogger.Named("handlers.inventory")),
		Serving:       handlers.NewServingHandler(recipes, engine, baseLogger.Named("handlers.serving")),
		Recipes:       handlers.NewRecipeHandler(recipeEditor, engine, baseLogger.Named("handlers.recipes")),
		Orders:        handlers.NewOrderHandler(orderSvc, baseLogger.Named("handlers.orders")),
		Notifications: handlers.NewNotificationHandler(notifications, supervisor, baseLogger.Named("handlers.notifications")),
		Hub:           hub,
		Gatherer:      registry,
	}, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.CORS(cfg.Server.AllowedOrigins).Handler(engineHTTP),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	// The realtime endpoint may be this very server, so dial after it is listening.
	go func() {
		_ = supervisor.Connect(ctx)
		status := supervisor.Status()
		baseLogger.Info("event transport ready",
			zap.Bool("connected", status.Connected),
			zap.String("connection_type", string(status.ConnectionType)))
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	hub.Close()
}
