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

	"github.com/Baaaki/procurehub/internal/config"
	"github.com/Baaaki/procurehub/internal/database"
	"github.com/Baaaki/procurehub/internal/handler"
	"github.com/Baaaki/procurehub/internal/middleware"
	"github.com/Baaaki/procurehub/internal/scraper"
	"github.com/Baaaki/procurehub/internal/service"
	"github.com/Baaaki/procurehub/internal/session"
	"github.com/Baaaki/procurehub/internal/storage"
	"github.com/Baaaki/procurehub/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("Failed to open store", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer backend.Close()

	// legacy accounts need a userType before the shop flow can run
	if _, err := service.NewMigrationService(backend.Store.Users).BackfillUserTypes(ctx); err != nil {
		logger.Log.Fatal("Failed to backfill user types", zap.Error(err))
	}

	var denylist session.Denylist = session.NoopDenylist{}
	var rateLimiter *middleware.RateLimiter
	if cfg.RedisURL != "" {
		redisClient, err := session.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.Log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		denylist = session.NewRedisDenylistFromClient(redisClient)
		rateLimiter = middleware.NewRateLimiter(redisClient, middleware.RateLimiterConfig{
			MaxRequests: cfg.RateLimitMaxRequests,
			Window:      cfg.RateLimitWindow,
			BlockTime:   cfg.RateLimitBlockTime,
			BanAfter:    cfg.RateLimitBanAfter,
		})
	} else {
		logger.Log.Warn("REDIS_URL not set, signout revocation and rate limiting are disabled")
	}
	defer denylist.Close()

	authService := service.NewAuthService(backend.Store.Users, denylist, service.AuthConfig{
		JWTSecret:   cfg.JWTSecret,
		TokenTTL:    cfg.TokenTTL,
		BcryptCost:  cfg.BcryptCost,
		Environment: cfg.Environment,
	})
	shopService := service.NewShopService(backend.Store.Users, backend.Store.Shops, cfg.JWTSecret, cfg.TokenTTL)
	productService := service.NewProductService(backend.Store.Products, shopService, storage.NewLocalStore(cfg.UploadDir))

	router := handler.NewRouter(handler.RouterConfig{
		AuthService:    authService,
		ShopService:    shopService,
		ProductService: productService,
		Scraper:        scraper.NewClient(cfg.ScraperURL, cfg.ScraperTimeout),
		Ping:           backend.Ping,
		RateLimiter:    rateLimiter,
		IsProduction:   cfg.IsProduction(),
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		ScraperTimeout: cfg.ScraperTimeout,
		UploadDir:      cfg.UploadDir,
		ClientDistDir:  cfg.ClientDistDir,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.Environment),
			zap.String("driver", cfg.DBDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
