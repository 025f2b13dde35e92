package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/esteh-pos/stock-console/internal/config"
	"github.com/esteh-pos/stock-console/internal/console"
	"github.com/esteh-pos/stock-console/internal/eventbus"
	"github.com/esteh-pos/stock-console/internal/inventory"
	"github.com/esteh-pos/stock-console/internal/observability"
	"github.com/esteh-pos/stock-console/internal/remote"
	"github.com/esteh-pos/stock-console/internal/requests"
	"github.com/esteh-pos/stock-console/internal/sales"
	"github.com/esteh-pos/stock-console/internal/views"
	"github.com/esteh-pos/stock-console/internal/warehouse"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type mountable interface {
	Mount(ctx context.Context) error
	Unmount()
	Name() string
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ no .env file found, using process environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OtlpEndpoint != "" {
		tp, err := observability.InitTracer(ctx, cfg)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Warn("Error shutting down tracer", zap.Error(err))
			}
		}()

		mp, err := observability.InitMetrics(ctx, cfg)
		if err != nil {
			logger.Fatal("Failed to initialize metrics", zap.Error(err))
		}
		defer func() {
			if err := mp.Shutdown(context.Background()); err != nil {
				logger.Warn("Error shutting down meter provider", zap.Error(err))
			}
		}()
	} else {
		logger.Info("ℹ️ OTEL_EXPORTER_OTLP_ENDPOINT not set, telemetry export disabled")
	}

	client := remote.New(remote.Options{
		BaseURL: cfg.APIBaseURL,
		Token:   cfg.APIToken,
		Timeout: cfg.APITimeout,
	}, logger)

	outletID := cfg.OutletID
	if cfg.APIUsername != "" {
		session, err := client.Login(ctx, cfg.APIUsername, cfg.APIPassword)
		if err != nil {
			logger.Fatal("Failed to log in", zap.Error(err))
		}
		if outletID == 0 {
			outletID = session.User.OutletID
		}
	}
	if outletID == 0 && client.Token() != "" {
		if me, err := client.Me(ctx); err != nil {
			logger.Warn("⚠️ could not resolve the active outlet", zap.Error(err))
		} else {
			outletID = me.OutletID
		}
	}
	if outletID == 0 {
		logger.Warn("⚠️ no outlet resolved, the cashier screens will read the token's default outlet")
	}

	bus := eventbus.New(logger)

	availability := views.NewAvailabilityView(client, client, outletID, bus, logger)
	outletStock := views.NewStockView(client, inventory.LocationOutlet, outletID, bus, logger)
	warehouseStock := views.NewStockView(client, inventory.LocationWarehouse, 0, bus, logger)
	outletRequests := views.NewRequestQueueView(client, false, bus, logger)
	warehouseRequests := views.NewRequestQueueView(client, true, bus, logger)
	salesHistory := views.NewSalesHistoryView(client, bus, logger)

	mounted := []mountable{availability, outletStock, warehouseStock, outletRequests, warehouseRequests, salesHistory}
	for _, v := range mounted {
		if err := v.Mount(ctx); err != nil {
			logger.Warn("⚠️ first load failed, view will retry on the next event",
				zap.String("view", v.Name()), zap.Error(err))
		}
	}
	defer func() {
		for _, v := range mounted {
			v.Unmount()
		}
	}()

	handler := console.NewHandler(console.Deps{
		Cart:              sales.NewController(client, availability, bus, outletID, logger),
		Requests:          requests.NewTracker(client, bus, logger),
		Warehouse:         warehouse.NewService(client, bus, logger),
		Catalog:           availability,
		OutletStock:       outletStock,
		WarehouseStock:    warehouseStock,
		OutletRequests:    outletRequests,
		WarehouseRequests: warehouseRequests,
		SalesHistory:      salesHistory,
	}, logger)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           console.NewRouter(handler, cfg.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("🚀 Stock console listening",
			zap.String("port", cfg.Port),
			zap.String("api", cfg.APIBaseURL),
			zap.Int64("outlet_id", outletID))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("🛑 shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Error shutting down server", zap.Error(err))
	}
}
