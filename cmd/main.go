package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/MohammedMashal/smart-booking-system/internal/config"
	"github.com/MohammedMashal/smart-booking-system/internal/db"
	"github.com/MohammedMashal/smart-booking-system/internal/identity"
	"github.com/MohammedMashal/smart-booking-system/internal/logger"
	"github.com/MohammedMashal/smart-booking-system/internal/model"
	"github.com/MohammedMashal/smart-booking-system/internal/repository"
	"github.com/MohammedMashal/smart-booking-system/internal/service"
	"github.com/MohammedMashal/smart-booking-system/internal/transport/grpcapi"
	"github.com/MohammedMashal/smart-booking-system/internal/transport/httpapi"
)

func main() {
	// 1. Config from config.yaml / env.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// 2. Logger.
	zl, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	// 3. Database and migrations.
	gormDB, err := db.NewGormDB(&cfg.DB)
	if err != nil {
		zl.Fatal("init db", zap.Error(err))
	}
	if err := model.AutoMigrate(gormDB); err != nil {
		zl.Fatal("auto migrate", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		zl.Fatal("sql DB", zap.Error(err))
	}
	defer sqlDB.Close()
	ping := sqlDB.PingContext

	// 4. Repositories.
	txManager := repository.NewGormTxManager(gormDB)
	slotRepo := repository.NewGormAvailabilityRepository(gormDB)
	bookingRepo := repository.NewGormBookingRepository(gormDB)
	eventRepo := repository.NewGormEventRepository(gormDB)
	serviceRepo := repository.NewGormServiceRepository(gormDB)

	// 5. Catalog, cached in redis when configured.
	var catalog service.ServiceCatalog = service.NewRepositoryCatalog(serviceRepo)
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		catalog = service.NewCachedCatalog(catalog, rdb, cfg.Redis.CacheTTL, zl.Named("catalog"))
		zl.Info("catalog cache enabled", zap.String("redis", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.CacheTTL))
	}

	// 6. Services.
	catalogSvc := service.NewCatalogService(serviceRepo)
	allocator := service.NewBookingAllocator(txManager, slotRepo, bookingRepo, eventRepo, catalog, zl.Named("allocator"))
	querySvc := service.NewBookingQueryService(bookingRepo)
	availabilitySvc := service.NewAvailabilityService(txManager, slotRepo, bookingRepo, catalogSvc)

	// 7. HTTP and gRPC servers.
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.Deps{
		Allocator:      allocator,
		Bookings:       querySvc,
		Catalog:        catalogSvc,
		Availability:   availabilitySvc,
		Verifier:       identity.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer),
		Ping:           ping,
		Log:            zl.Named("http"),
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpcapi.NewServer(ping, zl.Named("grpc"))
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		zl.Fatal("listen grpc", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go grpcServer.RunProbe(ctx, 10*time.Second)

	go func() {
		zl.Info("grpc server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			zl.Error("grpc serve", zap.Error(err))
			stop()
		}
	}()

	go func() {
		zl.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Error("http serve", zap.Error(err))
			stop()
		}
	}()

	// 8. Graceful shutdown on signal.
	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zl.Warn("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
}
